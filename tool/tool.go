// Package tool exposes the form engine's operations as eino tools so a
// tool-calling chat model can drive the conversation. The model decides
// which operation to invoke; all state and validation stay in the engine,
// and the requester identity is resolved from the caller's context, never
// from model output.
package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"github.com/openshift-partner-labs/labform"
	"github.com/openshift-partner-labs/labform/patch"
	"github.com/openshift-partner-labs/labform/schema"
	"github.com/openshift-partner-labs/labform/validate"
)

type sessionIDKey struct{}

// WithSessionID routes subsequent tool calls to the given session.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// SessionIDFromContext returns the routing session id, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(string)
	return id, ok && id != ""
}

// IdentityFunc resolves the authenticated requester identity for submission.
// It must come from the surrounding application (OIDC, env, ...), not from
// the conversation.
type IdentityFunc func(ctx context.Context) (string, error)

// Set builds the engine's tool bindings.
type Set struct {
	engine   *labform.Engine
	identity IdentityFunc
}

func NewSet(engine *labform.Engine, identity IdentityFunc) *Set {
	return &Set{engine: engine, identity: identity}
}

// Tools returns all bindings, ready for a tool-calling agent.
func (s *Set) Tools() ([]tool.BaseTool, error) {
	var out []tool.BaseTool
	for _, build := range []func() (tool.BaseTool, error){
		s.getFormData,
		s.updateFormField,
		s.updateFormFields,
		s.validateField,
		s.checkCompleteness,
		s.getFormSummary,
		s.submitForm,
	} {
		t, err := build()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Set) sessionID(ctx context.Context) (string, error) {
	id, ok := SessionIDFromContext(ctx)
	if !ok {
		return "", errors.New("no session id in context")
	}
	return id, nil
}

type emptyArgs struct{}

type formDataResult struct {
	FormState     schema.Snapshot `json:"form_state"`
	Phase         string          `json:"phase"`
	MissingFields []string        `json:"missing_fields"`
}

func (s *Set) getFormData() (tool.BaseTool, error) {
	return utils.InferTool(
		"get_form_data",
		"Get the current form state, the conversation phase and the fields still missing.",
		func(ctx context.Context, _ emptyArgs) (*formDataResult, error) {
			id, err := s.sessionID(ctx)
			if err != nil {
				return nil, err
			}
			return &formDataResult{
				FormState:     s.engine.Snapshot(id),
				Phase:         string(s.engine.Phase(id)),
				MissingFields: s.engine.MissingFields(id),
			}, nil
		},
	)
}

type updateFieldArgs struct {
	Field string `json:"field" jsonschema:"required,description=Form field name, for example company_name"`
	Value string `json:"value" jsonschema:"required,description=The value the user provided"`
}

type opResult struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// rejection turns a recoverable validation failure into tool output the
// model can relay to the user. Schema mismatches stay hard errors.
func rejection(err error) (*opResult, error) {
	var reason *validate.Reason
	if errors.As(err, &reason) {
		return &opResult{Accepted: false, Message: reason.Message}, nil
	}
	return nil, err
}

func (s *Set) updateFormField() (tool.BaseTool, error) {
	return utils.InferTool(
		"update_form_field",
		"Validate and store one form field value. Rejections include a message to relay to the user.",
		func(ctx context.Context, args *updateFieldArgs) (*opResult, error) {
			id, err := s.sessionID(ctx)
			if err != nil {
				return nil, err
			}
			value, err := s.engine.UpsertField(id, args.Field, args.Value)
			if err != nil {
				return rejection(err)
			}
			return &opResult{Accepted: true, Value: value}, nil
		},
	)
}

type updateFieldsArgs struct {
	Ops []patch.Operation `json:"ops" jsonschema:"required,description=RFC 6902 operations against the form, one per field change"`
}

func (s *Set) updateFormFields() (tool.BaseTool, error) {
	return utils.InferTool(
		"update_form_fields",
		"Apply several field changes at once. Either all changes are applied or none.",
		func(ctx context.Context, args *updateFieldsArgs) (*opResult, error) {
			id, err := s.sessionID(ctx)
			if err != nil {
				return nil, err
			}
			snapshot, err := s.engine.ApplyPatch(id, args.Ops)
			if err != nil {
				return rejection(err)
			}
			return &opResult{Accepted: true, Value: snapshot}, nil
		},
	)
}

func (s *Set) validateField() (tool.BaseTool, error) {
	return utils.InferTool(
		"validate_field",
		"Check a value against a field's rules without storing it.",
		func(ctx context.Context, args *updateFieldArgs) (*opResult, error) {
			value, err := s.engine.Validate(args.Field, args.Value)
			if err != nil {
				return rejection(err)
			}
			return &opResult{Accepted: true, Value: value}, nil
		},
	)
}

type completenessResult struct {
	Submittable   bool     `json:"submittable"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

func (s *Set) checkCompleteness() (tool.BaseTool, error) {
	return utils.InferTool(
		"check_form_completeness",
		"Report whether all active required fields are filled and which are still missing.",
		func(ctx context.Context, _ emptyArgs) (*completenessResult, error) {
			id, err := s.sessionID(ctx)
			if err != nil {
				return nil, err
			}
			missing := s.engine.MissingFields(id)
			return &completenessResult{
				Submittable:   len(missing) == 0,
				MissingFields: missing,
			}, nil
		},
	)
}

type summaryResult struct {
	Summary string `json:"summary"`
}

func (s *Set) getFormSummary() (tool.BaseTool, error) {
	return utils.InferTool(
		"get_form_summary",
		"Render a human-readable summary of the form for the user to review before submitting.",
		func(ctx context.Context, _ emptyArgs) (*summaryResult, error) {
			id, err := s.sessionID(ctx)
			if err != nil {
				return nil, err
			}
			return &summaryResult{Summary: s.engine.Summary(id)}, nil
		},
	)
}

type submitResult struct {
	Submitted bool   `json:"submitted"`
	RecordID  int64  `json:"record_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (s *Set) submitForm() (tool.BaseTool, error) {
	return utils.InferTool(
		"submit_form",
		"Submit the completed form. Call only after the user explicitly confirmed the summary.",
		func(ctx context.Context, _ emptyArgs) (*submitResult, error) {
			id, err := s.sessionID(ctx)
			if err != nil {
				return nil, err
			}
			identity, err := s.identity(ctx)
			if err != nil {
				return nil, fmt.Errorf("resolve requester identity: %w", err)
			}
			recordID, err := s.engine.Finalize(ctx, id, identity)
			if err != nil {
				var incomplete *labform.IncompleteError
				if errors.As(err, &incomplete) {
					return &submitResult{Submitted: false, Message: incomplete.Error()}, nil
				}
				var storeErr *labform.StoreError
				if errors.As(err, &storeErr) {
					return &submitResult{
						Submitted: false,
						Message:   "submission could not be stored, the form is preserved; try again shortly",
					}, nil
				}
				return nil, err
			}
			return &submitResult{Submitted: true, RecordID: recordID}, nil
		},
	)
}
