package markdown

import "strings"

// NodeKind enumerates the syntax node kinds the builder dispatches on.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindDocument
	KindParagraph
	KindHeading
	KindText
	KindEmphasis
	KindStrong
	KindLink
	KindImage
	KindAutoLink
	KindInlineCode
	KindFencedCodeBlock
	KindIndentedCodeBlock
	KindHTMLBlock
	KindHTMLInline
	KindHTMLEntity
	KindBlockQuote
	KindList
	KindListItem
	KindThematicBreak
	KindTable
	KindTableRow
	KindTableSeparator
	KindTableCell
	KindDefinitionList
	KindDefinitionTerm
	KindDefinition
	KindFrontMatter
	KindMathInline
	KindMathBlock
	KindStrikethrough
	KindTaskCheckBox
	KindSoftLineBreak
	KindHardLineBreak

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown:           "Unknown",
	KindDocument:          "Document",
	KindParagraph:         "Paragraph",
	KindHeading:           "Heading",
	KindText:              "Text",
	KindEmphasis:          "Emphasis",
	KindStrong:            "Strong",
	KindLink:              "Link",
	KindImage:             "Image",
	KindAutoLink:          "AutoLink",
	KindInlineCode:        "InlineCode",
	KindFencedCodeBlock:   "FencedCodeBlock",
	KindIndentedCodeBlock: "IndentedCodeBlock",
	KindHTMLBlock:         "HtmlBlock",
	KindHTMLInline:        "HtmlInline",
	KindHTMLEntity:        "HtmlEntity",
	KindBlockQuote:        "BlockQuote",
	KindList:              "List",
	KindListItem:          "ListItem",
	KindThematicBreak:     "ThematicBreak",
	KindTable:             "Table",
	KindTableRow:          "TableRow",
	KindTableSeparator:    "TableSeparator",
	KindTableCell:         "TableCell",
	KindDefinitionList:    "DefinitionList",
	KindDefinitionTerm:    "DefinitionTerm",
	KindDefinition:        "Definition",
	KindFrontMatter:       "FrontMatter",
	KindMathInline:        "MathInline",
	KindMathBlock:         "MathBlock",
	KindStrikethrough:     "Strikethrough",
	KindTaskCheckBox:      "TaskCheckBox",
	KindSoftLineBreak:     "SoftLineBreak",
	KindHardLineBreak:     "HardLineBreak",
}

// kindAliases maps node names used by other Markdown toolchains onto kinds.
var kindAliases = map[string]NodeKind{
	"code":                    KindInlineCode,
	"codespan":                KindInlineCode,
	"codeblock":               KindIndentedCodeBlock,
	"yamlfrontmatterblock":    KindFrontMatter,
	"htmlinlinebase":          KindHTMLInline,
	"rawhtml":                 KindHTMLInline,
	"ltexmarkdowninlinemath":  KindMathInline,
	"gitlabinlinemath":        KindMathInline,
	"ltexmarkdowndisplaymath": KindMathBlock,
	"gitlabdisplaymath":       KindMathBlock,
	"bulletlist":              KindList,
	"orderedlist":             KindList,
	"bulletlistitem":          KindListItem,
	"orderedlistitem":         KindListItem,
	"tablehead":               KindTableRow,
	"tablebody":               KindTableRow,
	"tableheader":             KindTableRow,
	"definitiondescription":   KindDefinition,
	"textblock":               KindParagraph,
}

var kindsByName = func() map[string]NodeKind {
	out := make(map[string]NodeKind, len(kindNames)+len(kindAliases))
	for kind, name := range kindNames {
		out[strings.ToLower(name)] = NodeKind(kind)
	}
	for alias, kind := range kindAliases {
		out[alias] = kind
	}
	return out
}()

func (k NodeKind) String() string {
	if k < 0 || k >= kindCount {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// ParseNodeKind resolves a configuration key into a NodeKind. Matching is
// case-insensitive and accepts the aliases listed in kindAliases.
func ParseNodeKind(name string) (NodeKind, bool) {
	kind, ok := kindsByName[strings.ToLower(strings.TrimSpace(name))]
	return kind, ok
}

// NodeKinds returns every kind in declaration order.
func NodeKinds() []NodeKind {
	out := make([]NodeKind, 0, kindCount)
	for k := NodeKind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// NodeKindNames returns every accepted configuration key, canonical names first.
func NodeKindNames() []string {
	out := make([]string, 0, len(kindNames)+len(kindAliases))
	out = append(out, kindNames[:]...)
	for alias := range kindAliases {
		out = append(out, alias)
	}
	return out
}
