// Package patch applies RFC 6902 operations to a form snapshot. It is the
// bulk counterpart of single-field upserts: the conversational actor can
// propose several field changes in one turn and have them applied together.
package patch

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/openshift-partner-labs/labform/schema"
)

const (
	OpAdd     = "add"
	OpReplace = "replace"
	OpRemove  = "remove"
)

type Operation struct {
	Op    string `json:"op" jsonschema:"required,enum=add,enum=replace,enum=remove,description=RFC 6902 operation"`
	Path  string `json:"path" jsonschema:"required,description=JSON pointer to a form field, for example /company_name"`
	Value any    `json:"value,omitempty" jsonschema:"description=New value for add and replace operations"`
}

// Field returns the form field the operation targets, or an error when the
// path is not a single-level pointer to a registered field.
func (o Operation) Field() (string, error) {
	if !strings.HasPrefix(o.Path, "/") {
		return "", fmt.Errorf("invalid pointer %q: must start with /", o.Path)
	}
	name := strings.TrimPrefix(o.Path, "/")
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid pointer %q: form fields are top-level", o.Path)
	}
	if _, err := schema.DefinitionOf(name); err != nil {
		return "", err
	}
	return name, nil
}

// Apply runs ops against the snapshot and returns the patched result. The
// input snapshot is not modified. Every path must point at a registered form
// field; replace on an absent field is downgraded to add, and remove on an
// absent field is dropped, so the actor does not need to know which fields
// are already set.
func Apply(current schema.Snapshot, ops []Operation) (schema.Snapshot, error) {
	if len(ops) == 0 {
		return current, nil
	}
	for _, op := range ops {
		if _, err := op.Field(); err != nil {
			return nil, err
		}
	}

	if current == nil {
		current = schema.Snapshot{}
	}
	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	ops = fixOperations(current, ops)
	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	decoded, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	patchedJSON, err := decoded.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	var result schema.Snapshot
	if err := sonic.Unmarshal(patchedJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patched snapshot: %w", err)
	}
	return result, nil
}

func fixOperations(current schema.Snapshot, ops []Operation) []Operation {
	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		field := strings.TrimPrefix(op.Path, "/")
		_, exists := current[field]
		switch op.Op {
		case OpReplace:
			if !exists {
				op.Op = OpAdd
			}
			fixed = append(fixed, op)
		case OpRemove:
			if exists {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}
	return fixed
}
