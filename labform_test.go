package labform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openshift-partner-labs/labform/schema"
	"github.com/openshift-partner-labs/labform/store"
)

type failingStore struct {
	err error
}

func (f *failingStore) Insert(ctx context.Context, sub store.Submission) (int64, error) {
	return 0, f.err
}

var requiredValues = map[string]any{
	schema.FieldCompanyName:         "Acme",
	schema.FieldPrimaryContactName:  "Pat Doe",
	schema.FieldPrimaryContactEmail: "pat@acme.com",
	schema.FieldSponsorEmail:        "sponsor@redhat.com",
	schema.FieldProjectName:         "edge-lab",
	schema.FieldDesiredStartDate:    "2026-09-15",
	schema.FieldLeaseDuration:       "2w",
	schema.FieldTimezone:            "America/New_York",
	schema.FieldOpenShiftVersion:    "4.16.2",
	schema.FieldVirtualization:      "no",
	schema.FieldApplicationType:     "workload",
	schema.FieldRequestType:         "general",
	schema.FieldClusterSize:         "medium",
	schema.FieldCloudProvider:       "aws",
	schema.FieldDescription:         "Partner integration lab",
	schema.FieldScopeOfWork:         "Validate the partner operator on 4.16",
}

func fillRequired(t *testing.T, e *Engine, sessionID string) {
	t.Helper()
	for field, value := range requiredValues {
		if _, err := e.UpsertField(sessionID, field, value); err != nil {
			t.Fatalf("fill %s: %v", field, err)
		}
	}
}

func TestMissingFieldsScenario(t *testing.T) {
	t.Parallel()
	e := New(store.NewMemory())
	const sessionID = "S1"

	if _, err := e.UpsertField(sessionID, schema.FieldCompanyName, "Acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.UpsertField(sessionID, schema.FieldVirtualization, "true"); err != nil {
		t.Fatal(err)
	}

	missing := e.MissingFields(sessionID)
	byName := make(map[string]bool, len(missing))
	for _, name := range missing {
		byName[name] = true
	}
	if !byName[schema.FieldClusterRequirements] {
		t.Error("cluster_requirements should be required while virtualization is true")
	}
	if !byName[schema.FieldProjectName] || !byName[schema.FieldSponsorEmail] {
		t.Error("unfilled required fields missing from the missing set")
	}
	if byName[schema.FieldCompanyName] {
		t.Error("filled field reported missing")
	}
	if byName[schema.FieldNotes] || byName[schema.FieldSecondaryContactEmail] {
		t.Error("optional fields reported missing")
	}

	// Toggling virtualization off removes the conditional requirement.
	if _, err := e.UpsertField(sessionID, schema.FieldVirtualization, "false"); err != nil {
		t.Fatal(err)
	}
	for _, name := range e.MissingFields(sessionID) {
		if name == schema.FieldClusterRequirements {
			t.Error("cluster_requirements still required after toggling virtualization off")
		}
	}
}

func TestPhaseDerivedFromCompleteness(t *testing.T) {
	t.Parallel()
	e := New(store.NewMemory())
	id := "phase-session"

	if e.Phase(id) != PhaseCollecting {
		t.Error("empty session should be collecting")
	}
	fillRequired(t, e, id)
	if e.Phase(id) != PhaseConfirming {
		t.Error("complete session should be confirming")
	}

	// Enabling virtualization reopens a requirement and drops the phase back.
	if _, err := e.UpsertField(id, schema.FieldVirtualization, "yes"); err != nil {
		t.Fatal(err)
	}
	if e.Phase(id) != PhaseCollecting {
		t.Error("phase should fall back to collecting when a conditional field activates")
	}
}

func TestFinalizeIncompleteForm(t *testing.T) {
	t.Parallel()
	records := store.NewMemory()
	e := New(records)
	id := "incomplete"
	if _, err := e.UpsertField(id, schema.FieldCompanyName, "Acme"); err != nil {
		t.Fatal(err)
	}

	_, err := e.Finalize(context.Background(), id, "user@acme.com")
	var incomplete *IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
	if len(incomplete.Missing) == 0 {
		t.Error("incomplete error should list missing fields")
	}
	if records.Len() != 0 {
		t.Error("incomplete finalize inserted a record")
	}
	if e.Snapshot(id)[schema.FieldCompanyName] != "Acme" {
		t.Error("incomplete finalize mutated the session")
	}
}

func TestFinalizeSuccess(t *testing.T) {
	t.Parallel()
	records := store.NewMemory()
	e := New(records)
	id := "complete"
	fillRequired(t, e, id)

	recordID, err := e.Finalize(context.Background(), id, "user@acme.com")
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	sub, ok := records.Get(recordID)
	if !ok {
		t.Fatalf("record %d not stored", recordID)
	}
	if sub.Timestamp.IsZero() || sub.RequestEvalDate.IsZero() {
		t.Error("system timestamps not stamped")
	}
	if sub.RequestState != store.InitialState {
		t.Errorf("expected state %q, got %q", store.InitialState, sub.RequestState)
	}
	if sub.EmailAddress != "user@acme.com" {
		t.Errorf("identity not taken from caller: %q", sub.EmailAddress)
	}
	if sub.CompanyName != "Acme" || sub.OpenShiftVersion != "4.16.2" {
		t.Error("form fields not copied into the submission")
	}
	if len(e.Snapshot(id)) != 0 {
		t.Error("session not cleared after successful finalize")
	}

	// The cleared session cannot be double-submitted.
	if _, err := e.Finalize(context.Background(), id, "user@acme.com"); err == nil {
		t.Error("repeat finalize on cleared session should fail completeness")
	}
	if records.Len() != 1 {
		t.Errorf("expected exactly one record, got %d", records.Len())
	}
}

func TestFinalizeIdentityCannotBeSpoofed(t *testing.T) {
	t.Parallel()
	records := store.NewMemory()
	e := New(records)
	id := "spoof"
	fillRequired(t, e, id)
	// email_address is not a form field; the nearest thing a user could try
	// is writing contact emails, which must not leak into the identity.
	if _, err := e.UpsertField(id, schema.FieldPrimaryContactEmail, "attacker@evil.com"); err != nil {
		t.Fatal(err)
	}

	recordID, err := e.Finalize(context.Background(), id, "real@acme.com")
	if err != nil {
		t.Fatal(err)
	}
	sub, _ := records.Get(recordID)
	if sub.EmailAddress != "real@acme.com" {
		t.Errorf("identity %q, want caller-supplied value", sub.EmailAddress)
	}
}

func TestFinalizeStoreFailurePreservesSession(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	failing := &failingStore{err: boom}
	e := New(failing)
	id := "retry"
	fillRequired(t, e, id)

	_, err := e.Finalize(context.Background(), id, "user@acme.com")
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("StoreError should wrap the store's error")
	}
	if len(e.MissingFields(id)) != 0 {
		t.Error("session data lost after store failure, resubmission impossible")
	}

	// Swapping in a healthy store shows the same session can be resubmitted.
	records := store.NewMemory()
	e.records = records
	if _, err := e.Finalize(context.Background(), id, "user@acme.com"); err != nil {
		t.Fatalf("retry after store failure failed: %v", err)
	}
	if records.Len() != 1 {
		t.Errorf("expected 1 record after retry, got %d", records.Len())
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	e := New(store.NewMemory())
	id := "summary"
	if _, err := e.UpsertField(id, schema.FieldCompanyName, "Acme"); err != nil {
		t.Fatal(err)
	}

	out := e.Summary(id)
	if !strings.Contains(out, "Acme") {
		t.Error("summary missing stored value")
	}
	if !strings.Contains(out, "Still missing:") {
		t.Error("summary should call out missing fields")
	}

	fillRequired(t, e, id)
	out = e.Summary(id)
	if !strings.Contains(out, "ready for submission") {
		t.Error("complete summary should say the form is submittable")
	}
	if strings.Contains(out, "Still missing:") {
		t.Error("complete summary still lists missing fields")
	}
}

func TestValidatePassThrough(t *testing.T) {
	t.Parallel()
	e := New(store.NewMemory())
	if _, err := e.Validate(schema.FieldPrimaryContactEmail, "a@b.com"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	if _, err := e.Validate(schema.FieldPrimaryContactEmail, "not-an-email"); err == nil {
		t.Error("malformed email accepted")
	}
	// Pre-flight validation must not create session state.
	if len(e.Snapshot("anything")) != 0 {
		t.Error("validate touched session state")
	}
}
