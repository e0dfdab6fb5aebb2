// Command mdtext converts Markdown into plain annotated text for grammar
// checking and maps plain-text offsets back to the Markdown source.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-mdtext"
	"github.com/goliatone/go-mdtext/internal/logging"
	"github.com/goliatone/go-mdtext/internal/validation"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

var version = "dev"

// ErrWarningsReported is returned under --check when a conversion reported warnings.
var ErrWarningsReported = errors.New("mdtext: conversion reported warnings")

// CLI defines the command-line interface.
type CLI struct {
	Config     string            `name:"config" short:"c" help:"Configuration file (yaml, toml or json)" type:"path"`
	Node       map[string]string `name:"node" help:"Node action override as Kind=action; repeatable"`
	Nodes      string            `name:"nodes" help:"Node action overrides as a JSON object"`
	Extensions []string          `name:"ext" help:"Parser extensions to enable; defaults to the configured ones"`
	Format     string            `name:"format" short:"f" enum:"text,json" default:"text" help:"Output format (text, json)"`
	Check      bool              `name:"check" help:"Fail when a conversion reports warnings"`
	LogLevel   string            `name:"log-level" help:"Override the configured log level"`

	Convert  ConvertCmd  `cmd:"" help:"Convert one Markdown file"`
	Dir      DirCmd      `cmd:"" help:"Convert every Markdown file in a directory"`
	Position PositionCmd `cmd:"" help:"Map a plain-text offset back to a source line and column"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "mdtext: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("mdtext"),
		kong.Description("Markdown to annotated plain text for grammar checking"),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	if ctx.Command() == "version" {
		return ctx.Run(&runtime{stdout: stdout})
	}

	rt, err := newRuntime(&cli, stdout, stderr)
	if err != nil {
		return err
	}
	return ctx.Run(rt)
}

// runtime carries the module and output settings shared by every command.
type runtime struct {
	module   *mdtext.Module
	commands *mdtext.RegistrationResult
	logger   interfaces.Logger
	stdout   io.Writer
	stderr   io.Writer

	format     string
	summary    bool
	check      bool
	extensions []string
	nodes      map[string]string
	warnings   int
}

func newRuntime(cli *CLI, stdout, stderr io.Writer) (*runtime, error) {
	cfg, err := mdtext.LoadConfig(cli.Config)
	var configWarnings []mdtext.Warning
	if err != nil {
		if !errors.Is(err, mdtext.ErrMarkdownNodesInvalid) {
			return nil, err
		}
		configWarnings = validation.Warnings(err)
	}
	if level := strings.TrimSpace(cli.LogLevel); level != "" {
		cfg.Logging.Level = level
	}

	nodes, flagWarnings := flagNodes(cli)
	configWarnings = append(configWarnings, flagWarnings...)

	module, err := mdtext.New(cfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		module:     module,
		logger:     logging.CLILogger(module.LoggerProvider()),
		stdout:     stdout,
		stderr:     stderr,
		format:     cli.Format,
		check:      cli.Check,
		extensions: cli.Extensions,
		nodes:      nodes,
	}
	rt.report("config", configWarnings)

	rt.commands, err = module.RegisterCommands(mdtext.RegistrationOptions{
		Sink: mdtext.SinkFunc(rt.emit),
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// flagNodes merges --nodes JSON with --node pairs; pairs win.
func flagNodes(cli *CLI) (map[string]string, []mdtext.Warning) {
	nodes := map[string]string{}
	var warnings []mdtext.Warning

	if raw := strings.TrimSpace(cli.Nodes); raw != "" {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			warnings = append(warnings, mdtext.Warning{
				Type:    mdtext.WarningConfigSchema,
				Offset:  -1,
				Message: fmt.Sprintf("--nodes is not a JSON object: %v", err),
			})
		} else {
			valid, err := validation.NodeConfig(decoded)
			if err != nil {
				warnings = append(warnings, validation.Warnings(err)...)
			}
			for kind, action := range valid {
				nodes[kind] = action
			}
		}
	}
	for kind, action := range cli.Node {
		nodes[kind] = action
	}
	return nodes, warnings
}

func (rt *runtime) report(path string, warnings []mdtext.Warning) {
	rt.warnings += len(warnings)
	for _, w := range warnings {
		if w.Offset >= 0 {
			fmt.Fprintf(rt.stderr, "%s:%d: %s: %s\n", path, w.Offset, w.Type, w.Message)
			continue
		}
		fmt.Fprintf(rt.stderr, "%s: %s: %s\n", path, w.Type, w.Message)
	}
}

// emit writes one conversion result in the selected format.
func (rt *runtime) emit(_ context.Context, result *mdtext.Result) error {
	path := result.Document.FilePath
	rt.report(path, result.Warnings)

	if rt.format == "json" {
		return json.NewEncoder(rt.stdout).Encode(documentOutput{
			Path:        path,
			Checksum:    result.Document.Checksum,
			Text:        result.Text,
			FrontMatter: result.FrontMatter,
			Warnings:    result.Warnings,
		})
	}
	if rt.summary {
		_, err := fmt.Fprintf(rt.stdout, "%s: %d plain bytes, %d runs, %d warnings\n",
			path, len(result.Text.Plain()), len(result.Text.Runs()), len(result.Warnings))
		return err
	}
	_, err := io.WriteString(rt.stdout, result.Text.Plain())
	return err
}

func (rt *runtime) finish() error {
	if rt.check && rt.warnings > 0 {
		return fmt.Errorf("%w: %d", ErrWarningsReported, rt.warnings)
	}
	return nil
}

type documentOutput struct {
	Path        string           `json:"path"`
	Checksum    string           `json:"checksum"`
	Text        *mdtext.Text     `json:"text"`
	FrontMatter map[string]any   `json:"front_matter,omitempty"`
	Warnings    []mdtext.Warning `json:"warnings,omitempty"`
}

// ConvertCmd converts one file and prints its plain text or position map.
type ConvertCmd struct {
	Path string `arg:"" help:"Markdown file, relative to the content directory"`
}

func (c *ConvertCmd) Run(rt *runtime) error {
	err := rt.commands.Document.Execute(context.Background(), mdtext.ConvertDocumentCommand{
		Path:       c.Path,
		Extensions: rt.extensions,
		Nodes:      rt.nodes,
	})
	if err != nil {
		return err
	}
	return rt.finish()
}

// DirCmd converts a directory tree. Text output is one summary line per file.
type DirCmd struct {
	Directory   string `arg:"" optional:"" default:"." help:"Directory, relative to the content directory"`
	Pattern     string `name:"pattern" help:"Glob selecting files; defaults to the configured pattern"`
	NoRecursive bool   `name:"no-recursive" help:"Only convert files directly inside the directory"`
}

func (c *DirCmd) Run(rt *runtime) error {
	msg := mdtext.ConvertDirectoryCommand{
		Directory:  c.Directory,
		Pattern:    c.Pattern,
		Extensions: rt.extensions,
		Nodes:      rt.nodes,
	}
	if c.NoRecursive {
		recursive := false
		msg.Recursive = &recursive
	}
	rt.summary = true
	if err := rt.commands.Directory.Execute(context.Background(), msg); err != nil {
		return err
	}
	return rt.finish()
}

// PositionCmd resolves a plain-text offset of a converted file.
type PositionCmd struct {
	Path   string `arg:"" help:"Markdown file, relative to the content directory"`
	Offset int    `arg:"" help:"Offset into the plain text"`
	End    bool   `name:"end" help:"Treat the offset as an exclusive range end"`
}

type positionOutput struct {
	Path         string          `json:"path"`
	PlainOffset  int             `json:"plain_offset"`
	SourceOffset int             `json:"source_offset"`
	Position     mdtext.Position `json:"position"`
}

func (c *PositionCmd) Run(rt *runtime) error {
	result, err := rt.module.ConvertFile(context.Background(), c.Path, mdtext.LoadOptions{
		Convert: mdtext.ConvertOptions{
			Parser: mdtext.ParseOptions{Extensions: rt.extensions},
			Nodes:  rt.nodes,
		},
	})
	if err != nil {
		return err
	}
	rt.report(result.Document.FilePath, result.Warnings)

	sourceOffset := result.Text.ToSourceOffset(c.Offset, c.End)
	out := positionOutput{
		Path:         result.Document.FilePath,
		PlainOffset:  c.Offset,
		SourceOffset: sourceOffset,
		Position:     mdtext.NewLineIndex(string(result.Document.Source)).Position(sourceOffset),
	}
	rt.logger.Debug("cli.position.resolved", "path", out.Path, "plain_offset", c.Offset, "source_offset", sourceOffset)

	if rt.format == "json" {
		if err := json.NewEncoder(rt.stdout).Encode(out); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(rt.stdout, "%s:%d:%d (source offset %d)\n", out.Path, out.Position.Line+1, out.Position.Character+1, sourceOffset)
	}
	return rt.finish()
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(rt *runtime) error {
	_, err := fmt.Fprintln(rt.stdout, "mdtext", version)
	return err
}
