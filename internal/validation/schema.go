package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-mdtext/internal/annotated"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// PayloadValidationError surfaces validation issues with schema-aware context.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

// Warnings converts validation issues into conversion warnings so callers can
// report them next to the warnings of the conversion itself.
func Warnings(err error) []annotated.Warning {
	issues := Issues(err)
	if len(issues) == 0 {
		return nil
	}
	out := make([]annotated.Warning, 0, len(issues))
	for _, issue := range issues {
		message := issue.Message
		if location := strings.TrimSpace(issue.Location); location != "" {
			message = location + ": " + message
		}
		out = append(out, annotated.Warning{
			Type:    annotated.WarningConfigSchema,
			Offset:  -1,
			Message: message,
		})
	}
	return out
}

// nodeConfigSchema describes the loosely typed node configuration: an object
// mapping node kind names to action keywords. Names and keywords are resolved
// later, so the schema only pins the shape.
var nodeConfigSchema = map[string]any{
	"type":                 "object",
	"propertyNames":        map[string]any{"minLength": 1},
	"additionalProperties": map[string]any{"type": "string", "minLength": 1},
}

var (
	nodeConfigOnce     sync.Once
	nodeConfigCompiled *jsonschema.Schema
	nodeConfigErr      error
)

// NodeConfig validates raw node configuration, as decoded from a config file,
// environment or JSON flag, and returns the entries that are usable. Invalid
// entries are skipped and described by a *PayloadValidationError; the returned
// map is valid even when the error is not nil.
func NodeConfig(raw map[string]any) (map[string]string, error) {
	nodes := make(map[string]string, len(raw))
	if len(raw) == 0 {
		return nodes, nil
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if value, ok := raw[key].(string); ok && strings.TrimSpace(key) != "" && value != "" {
			nodes[key] = value
		}
	}

	payload, err := normalizePayload(raw)
	if err != nil {
		return nodes, &PayloadValidationError{
			Issues: []ValidationIssue{{Message: err.Error()}},
			Cause:  err,
		}
	}
	return nodes, validateNodeConfig(payload)
}

// ValidateNodeConfig reports whether raw is a well formed node configuration.
func ValidateNodeConfig(raw map[string]any) error {
	_, err := NodeConfig(raw)
	return err
}

func validateNodeConfig(payload any) error {
	nodeConfigOnce.Do(func() {
		nodeConfigCompiled, nodeConfigErr = compileSchema(nodeConfigSchema)
	})
	if nodeConfigErr != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, nodeConfigErr)
	}
	if err := nodeConfigCompiled.Validate(payload); err != nil {
		return &PayloadValidationError{
			Issues: Issues(err),
			Cause:  err,
		}
	}
	return nil
}

// normalizePayload round-trips raw through JSON so the validator sees plain
// JSON values whatever decoder produced them.
func normalizePayload(raw map[string]any) (any, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("node configuration is not JSON compatible: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
