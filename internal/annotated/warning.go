package annotated

// WarningType classifies a non-fatal conversion issue.
type WarningType string

const (
	WarningUnknownNodeKind   WarningType = "unknown_node_kind"
	WarningUnknownAction     WarningType = "unknown_action"
	WarningInvalidSpan       WarningType = "invalid_span"
	WarningFrontMatterDecode WarningType = "front_matter_decode"
	WarningConfigSchema      WarningType = "config_schema"
)

// Warning records a local degradation. Offset is -1 when the warning is not
// tied to a source position.
type Warning struct {
	Type    WarningType `json:"type"`
	Offset  int         `json:"offset"`
	Message string      `json:"message"`
}
