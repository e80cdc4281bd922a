// Package labform is the conversation-driven completion engine for OpenShift
// partner lab request forms. It owns the per-session field state, the
// validation rules, the conditional-requirement completeness evaluation and
// the finalize-and-submit protocol. The natural-language actor that decides
// which operation to call next lives outside this package and talks to it
// through Engine.
package labform

import (
	"context"
	"log/slog"
	"time"

	"github.com/openshift-partner-labs/labform/patch"
	"github.com/openshift-partner-labs/labform/schema"
	"github.com/openshift-partner-labs/labform/session"
	"github.com/openshift-partner-labs/labform/store"
	"github.com/openshift-partner-labs/labform/validate"
)

type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseConfirming Phase = "confirming"
)

// Engine ties the field registry, the session store and the record store
// together behind the operations the orchestration layer calls.
type Engine struct {
	sessions *session.Store
	records  store.RecordStore
	now      func() time.Time
}

func New(records store.RecordStore) *Engine {
	return &Engine{
		sessions: session.NewStore(),
		records:  records,
		now:      time.Now,
	}
}

// Sessions exposes the underlying session store for lifecycle policies such
// as periodic idle expiry.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

// Validate checks a raw value against the named field's rules without
// touching any session, for pre-flight checks.
func (e *Engine) Validate(field string, raw any) (any, error) {
	return validate.Validate(field, raw)
}

// UpsertField validates raw and stores the coerced value in the session.
// Rejected values leave the session unchanged.
func (e *Engine) UpsertField(sessionID, field string, raw any) (any, error) {
	return e.sessions.UpsertField(sessionID, field, raw)
}

// ApplyPatch applies a batch of field operations to the session, validating
// the result before committing.
func (e *Engine) ApplyPatch(sessionID string, ops []patch.Operation) (schema.Snapshot, error) {
	return e.sessions.ApplyPatch(sessionID, ops)
}

// Snapshot returns a copy of the session's current values.
func (e *Engine) Snapshot(sessionID string) schema.Snapshot {
	return e.sessions.Get(sessionID)
}

// MissingFields returns the names of active required fields absent from the
// session, in form order. Empty means the form is submittable.
func (e *Engine) MissingFields(sessionID string) []string {
	missing := schema.Missing(e.sessions.Get(sessionID))
	names := make([]string, len(missing))
	for i, def := range missing {
		names[i] = def.Name
	}
	return names
}

// Phase reports where the session is in the conversation. It is derived
// from completeness on every call: a session becomes confirming the moment
// nothing is missing and drops back to collecting if an answer reopens a
// conditional requirement.
func (e *Engine) Phase(sessionID string) Phase {
	snapshot := e.sessions.Get(sessionID)
	if len(snapshot) > 0 && len(schema.Missing(snapshot)) == 0 {
		return PhaseConfirming
	}
	return PhaseCollecting
}

// Clear drops all state for the session. Idempotent.
func (e *Engine) Clear(sessionID string) {
	e.sessions.Clear(sessionID)
}

// Finalize atomically submits a completed session. It rejects with
// *IncompleteError while required fields are missing, builds the submission
// record with the caller-supplied identity and system timestamps, inserts it
// into the record store, and clears the session only after a successful
// insert. A failed insert surfaces as *StoreError with the session intact,
// so the caller can retry. The session's write slot is held for the duration
// of the call, so two concurrent finalizes of the same session cannot
// double-insert.
func (e *Engine) Finalize(ctx context.Context, sessionID, identity string) (int64, error) {
	var recordID int64
	err := e.sessions.Exclusive(sessionID, func(snapshot schema.Snapshot) (bool, error) {
		missing := schema.Missing(snapshot)
		if len(missing) > 0 {
			names := make([]string, len(missing))
			for i, def := range missing {
				names[i] = def.Name
			}
			return false, &IncompleteError{Missing: names}
		}

		sub := e.buildSubmission(snapshot, identity)
		id, err := e.records.Insert(ctx, sub)
		if err != nil {
			slog.Warn("record store insert failed", "session_id", sessionID, "error", err)
			return false, &StoreError{Err: err}
		}
		recordID = id
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	slog.Info("submitted lab request", "session_id", sessionID, "record_id", recordID)
	return recordID, nil
}

func (e *Engine) buildSubmission(snapshot schema.Snapshot, identity string) store.Submission {
	now := e.now().UTC()
	virtualization, _ := snapshot[schema.FieldVirtualization].(bool)
	return store.Submission{
		Timestamp:       now,
		RequestState:    store.InitialState,
		RequestEvalDate: now,
		EmailAddress:    identity,

		CompanyName:           text(snapshot, schema.FieldCompanyName),
		PrimaryContactName:    text(snapshot, schema.FieldPrimaryContactName),
		PrimaryContactEmail:   text(snapshot, schema.FieldPrimaryContactEmail),
		SecondaryContactName:  text(snapshot, schema.FieldSecondaryContactName),
		SecondaryContactEmail: text(snapshot, schema.FieldSecondaryContactEmail),
		SponsorEmail:          text(snapshot, schema.FieldSponsorEmail),
		ProjectName:           text(snapshot, schema.FieldProjectName),
		DesiredStartDate:      text(snapshot, schema.FieldDesiredStartDate),
		LeaseDuration:         text(snapshot, schema.FieldLeaseDuration),
		Timezone:              text(snapshot, schema.FieldTimezone),
		OpenShiftVersion:      text(snapshot, schema.FieldOpenShiftVersion),
		Virtualization:        virtualization,
		ClusterRequirements:   text(snapshot, schema.FieldClusterRequirements),
		ApplicationType:       text(snapshot, schema.FieldApplicationType),
		RequestType:           text(snapshot, schema.FieldRequestType),
		ClusterSize:           text(snapshot, schema.FieldClusterSize),
		CloudProvider:         text(snapshot, schema.FieldCloudProvider),
		Description:           text(snapshot, schema.FieldDescription),
		ScopeOfWork:           text(snapshot, schema.FieldScopeOfWork),
		Notes:                 text(snapshot, schema.FieldNotes),
	}
}

func text(s schema.Snapshot, field string) string {
	v, _ := s[field].(string)
	return v
}
