package markdowncmd

import (
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-mdtext/internal/markdown"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

const (
	convertDocumentMessageType  = "mdtext.markdown.convert_document"
	convertDirectoryMessageType = "mdtext.markdown.convert_directory"
)

// ConvertDocumentCommand converts a single Markdown file into annotated text.
type ConvertDocumentCommand struct {
	// Path is resolved against the service base path.
	Path string `json:"path"`
	// Extensions overrides the configured parser extensions.
	Extensions []string `json:"extensions,omitempty"`
	// Nodes overrides node actions keyed by node kind name.
	Nodes map[string]string `json:"nodes,omitempty"`
}

// Type implements command.Message.
func (ConvertDocumentCommand) Type() string { return convertDocumentMessageType }

// Validate ensures a path is present and extension names are known.
func (cmd ConvertDocumentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(requireText(convertDocumentMessageType+".path_required", "path is required"))),
		validation.Field(&cmd.Extensions, validation.Each(validation.By(knownExtension))),
		validation.Field(&cmd.Nodes, validation.By(nodeEntries)),
	)
}

// Options maps the command onto service conversion options.
func (cmd ConvertDocumentCommand) Options() interfaces.LoadOptions {
	return interfaces.LoadOptions{
		Convert: convertOptions(cmd.Extensions, cmd.Nodes),
	}
}

// ConvertDirectoryCommand converts every Markdown file under Directory.
type ConvertDirectoryCommand struct {
	Directory string `json:"directory"`
	// Pattern overrides the configured discovery glob.
	Pattern string `json:"pattern,omitempty"`
	// Recursive overrides the configured recursion when set.
	Recursive  *bool             `json:"recursive,omitempty"`
	Extensions []string          `json:"extensions,omitempty"`
	Nodes      map[string]string `json:"nodes,omitempty"`
}

// Type implements command.Message.
func (ConvertDirectoryCommand) Type() string { return convertDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd ConvertDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(requireText(convertDirectoryMessageType+".directory_required", "directory is required"))),
		validation.Field(&cmd.Pattern, validation.By(validPattern)),
		validation.Field(&cmd.Extensions, validation.Each(validation.By(knownExtension))),
		validation.Field(&cmd.Nodes, validation.By(nodeEntries)),
	)
}

// Options maps the command onto service load options.
func (cmd ConvertDirectoryCommand) Options() interfaces.LoadOptions {
	return interfaces.LoadOptions{
		Recursive: cmd.Recursive,
		Pattern:   cmd.Pattern,
		Convert:   convertOptions(cmd.Extensions, cmd.Nodes),
	}
}

func convertOptions(extensions []string, nodes map[string]string) interfaces.ConvertOptions {
	return interfaces.ConvertOptions{
		Parser: interfaces.ParseOptions{Extensions: extensions},
		Nodes:  nodes,
	}
}

func requireText(code, message string) validation.RuleFunc {
	return func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}

func knownExtension(value any) error {
	name, _ := value.(string)
	key := strings.ToLower(strings.TrimSpace(name))
	for _, supported := range markdown.SupportedExtensions() {
		if key == supported {
			return nil
		}
	}
	return validation.NewError("mdtext.markdown.extension_unknown", "unknown extension "+name)
}

func validPattern(value any) error {
	pattern, _ := value.(string)
	if _, err := filepath.Match(pattern, "probe.md"); err != nil {
		return validation.NewError("mdtext.markdown.pattern_invalid", "pattern is not a valid glob")
	}
	return nil
}

// nodeEntries only rejects empty entries. Unknown kinds and actions become
// conversion warnings.
func nodeEntries(value any) error {
	nodes, _ := value.(map[string]string)
	for kind, action := range nodes {
		if strings.TrimSpace(kind) == "" || strings.TrimSpace(action) == "" {
			return validation.NewError("mdtext.markdown.node_entry_empty", "node entries need a kind and an action")
		}
	}
	return nil
}
