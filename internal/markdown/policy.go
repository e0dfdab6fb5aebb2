package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-mdtext/internal/annotated"
)

// Action tells the builder how to treat a node.
type Action int

const (
	actionUnset Action = iota
	// ActionPlainText recurses into the node and emits its prose.
	ActionPlainText
	// ActionDrop emits nothing but the newlines of the node's span.
	ActionDrop
	// ActionPlaceholder emits a numbered DummyN token.
	ActionPlaceholder
	// ActionLiteral emits the node's raw source text.
	ActionLiteral
)

var actionNames = map[Action]string{
	actionUnset:       "unset",
	ActionPlainText:   "plain",
	ActionDrop:        "drop",
	ActionPlaceholder: "placeholder",
	ActionLiteral:     "literal",
}

var actionKeywords = map[string]Action{
	"default":     ActionLiteral,
	"literal":     ActionLiteral,
	"plain":       ActionPlainText,
	"plaintext":   ActionPlainText,
	"ignore":      ActionDrop,
	"drop":        ActionDrop,
	"dummy":       ActionPlaceholder,
	"placeholder": ActionPlaceholder,
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction resolves a configuration keyword. "default" selects the literal
// rendering of a node.
func ParseAction(keyword string) (Action, bool) {
	action, ok := actionKeywords[strings.ToLower(strings.TrimSpace(keyword))]
	return action, ok
}

// ActionKeywords lists the accepted action keywords in sorted order.
func ActionKeywords() []string {
	out := make([]string, 0, len(actionKeywords))
	for keyword := range actionKeywords {
		out = append(out, keyword)
	}
	sort.Strings(out)
	return out
}

// Policy maps every NodeKind to an action. The zero value resolves every
// kind through the defaults.
type Policy struct {
	overrides [kindCount]Action
}

var defaultActions = [kindCount]Action{
	KindUnknown:           ActionPlainText,
	KindDocument:          ActionPlainText,
	KindParagraph:         ActionPlainText,
	KindHeading:           ActionPlainText,
	KindText:              ActionPlainText,
	KindEmphasis:          ActionPlainText,
	KindStrong:            ActionPlainText,
	KindLink:              ActionPlainText,
	KindImage:             ActionPlainText,
	KindAutoLink:          ActionPlaceholder,
	KindInlineCode:        ActionPlaceholder,
	KindFencedCodeBlock:   ActionDrop,
	KindIndentedCodeBlock: ActionDrop,
	KindHTMLBlock:         ActionDrop,
	KindHTMLInline:        ActionDrop,
	KindHTMLEntity:        ActionPlainText,
	KindBlockQuote:        ActionPlainText,
	KindList:              ActionPlainText,
	KindListItem:          ActionPlainText,
	KindThematicBreak:     ActionPlainText,
	KindTable:             ActionPlainText,
	KindTableRow:          ActionPlainText,
	KindTableSeparator:    ActionDrop,
	KindTableCell:         ActionPlainText,
	KindDefinitionList:    ActionPlainText,
	KindDefinitionTerm:    ActionPlainText,
	KindDefinition:        ActionPlainText,
	KindFrontMatter:       ActionDrop,
	KindMathInline:        ActionPlaceholder,
	KindMathBlock:         ActionDrop,
	KindStrikethrough:     ActionPlainText,
	KindTaskCheckBox:      ActionPlainText,
	KindSoftLineBreak:     ActionPlainText,
	KindHardLineBreak:     ActionPlainText,
}

// DefaultPolicy returns the policy used when no overrides are configured.
func DefaultPolicy() Policy {
	return Policy{}
}

// NewPolicy translates a loose kind-name to keyword map into a Policy.
// Unknown kinds and keywords are skipped and reported as warnings.
func NewPolicy(nodes map[string]string) (Policy, []annotated.Warning) {
	policy := Policy{}
	var warnings []annotated.Warning

	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		keyword := nodes[name]
		kind, ok := ParseNodeKind(name)
		if !ok {
			warnings = append(warnings, annotated.Warning{
				Type:    annotated.WarningUnknownNodeKind,
				Offset:  -1,
				Message: fmt.Sprintf("unknown node kind %q ignored", name),
			})
			continue
		}
		action, ok := ParseAction(keyword)
		if !ok {
			msg := fmt.Sprintf("unknown action %q for %s (accepted: %s), using %s",
				keyword, kind, strings.Join(ActionKeywords(), ", "), defaultActions[kind])
			warnings = append(warnings, annotated.Warning{
				Type:    annotated.WarningUnknownAction,
				Offset:  -1,
				Message: msg,
			})
			continue
		}
		policy.overrides[kind] = action
	}
	return policy, warnings
}

// Resolve returns the action for kind.
func (p Policy) Resolve(kind NodeKind) Action {
	if kind < 0 || kind >= kindCount {
		kind = KindUnknown
	}
	if action := p.overrides[kind]; action != actionUnset {
		return action
	}
	return defaultActions[kind]
}
