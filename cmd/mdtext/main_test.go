package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# Title\nSome `code` here.\n"

func setupContent(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.md"), []byte(sampleDoc), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "more.md"), []byte("More text.\n"), 0o644))

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MDTEXT_MARKDOWN_CONTENT_DIR", dir)
	t.Setenv("MDTEXT_LOGGING_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestConvertPrintsPlainText(t *testing.T) {
	setupContent(t)

	stdout, _, err := execute(t, "convert", "doc.md")
	require.NoError(t, err)
	assert.Equal(t, "Title\nSome Dummy0 here.\n", stdout)
}

func TestConvertAppliesNodeFlags(t *testing.T) {
	setupContent(t)

	stdout, _, err := execute(t, "--node", "InlineCode=literal", "convert", "doc.md")
	require.NoError(t, err)
	assert.Equal(t, "Title\nSome code here.\n", stdout)

	stdout, _, err = execute(t, "--nodes", `{"Heading":"drop"}`, "convert", "doc.md")
	require.NoError(t, err)
	assert.Equal(t, "\nSome Dummy0 here.\n", stdout)
}

func TestConvertJSONIncludesPositionMap(t *testing.T) {
	setupContent(t)

	stdout, _, err := execute(t, "--format", "json", "convert", "doc.md")
	require.NoError(t, err)

	var out struct {
		Path     string `json:"path"`
		Checksum string `json:"checksum"`
		Text     struct {
			Plain string            `json:"plain"`
			Runs  []json.RawMessage `json:"runs"`
		} `json:"text"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "doc.md", out.Path)
	assert.Len(t, out.Checksum, 64)
	assert.Equal(t, "Title\nSome Dummy0 here.\n", out.Text.Plain)
	assert.NotEmpty(t, out.Text.Runs)
}

func TestCheckFailsOnWarnings(t *testing.T) {
	setupContent(t)

	_, stderr, err := execute(t, "--check", "--node", "NoSuchKind=drop", "convert", "doc.md")
	require.ErrorIs(t, err, ErrWarningsReported)
	assert.Contains(t, stderr, "unknown_node_kind")

	_, _, err = execute(t, "--check", "convert", "doc.md")
	require.NoError(t, err)
}

func TestInvalidNodesJSONIsReportedNotFatal(t *testing.T) {
	setupContent(t)

	stdout, stderr, err := execute(t, "--nodes", `{"InlineCode": 3}`, "convert", "doc.md")
	require.NoError(t, err)
	assert.Equal(t, "Title\nSome Dummy0 here.\n", stdout)
	assert.Contains(t, stderr, "config_schema")
}

func TestDirPrintsSummaryPerFile(t *testing.T) {
	setupContent(t)

	stdout, _, err := execute(t, "dir")
	require.NoError(t, err)
	assert.Contains(t, stdout, "doc.md: 24 plain bytes")
	assert.Contains(t, stdout, "sub/more.md: 11 plain bytes")

	stdout, _, err = execute(t, "dir", "--no-recursive")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "sub/more.md")
}

func TestPositionResolvesLineAndColumn(t *testing.T) {
	setupContent(t)

	stdout, _, err := execute(t, "position", "doc.md", "6")
	require.NoError(t, err)
	assert.Equal(t, "doc.md:2:1 (source offset 8)\n", stdout)

	stdout, _, err = execute(t, "--format", "json", "position", "doc.md", "6")
	require.NoError(t, err)
	var out positionOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 8, out.SourceOffset)
	assert.Equal(t, 1, out.Position.Line)
	assert.Equal(t, 0, out.Position.Character)
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mdtext dev\n", stdout)
}

func TestMissingFileFails(t *testing.T) {
	setupContent(t)

	_, _, err := execute(t, "convert", "missing.md")
	require.Error(t, err)
}
