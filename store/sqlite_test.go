package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func sampleSubmission() Submission {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return Submission{
		Timestamp:           now,
		RequestState:        InitialState,
		RequestEvalDate:     now,
		EmailAddress:        "user@acme.com",
		CompanyName:         "Acme",
		PrimaryContactName:  "Pat Doe",
		PrimaryContactEmail: "pat@acme.com",
		SponsorEmail:        "sponsor@redhat.com",
		ProjectName:         "edge-lab",
		DesiredStartDate:    "2026-09-15",
		LeaseDuration:       "2w",
		Timezone:            "America/New_York",
		OpenShiftVersion:    "4.16.2",
		Virtualization:      true,
		ClusterRequirements: "3 bare-metal workers",
		ApplicationType:     "workload",
		RequestType:         "virtualization",
		ClusterSize:         "large",
		CloudProvider:       "aws",
		Description:         "Partner integration lab",
		ScopeOfWork:         "Validate the partner operator",
	}
}

func TestSQLiteInsertAndLoad(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "requests.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	first, err := s.Insert(ctx, sampleSubmission())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := s.Insert(ctx, sampleSubmission())
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if second <= first {
		t.Errorf("ids not increasing: %d then %d", first, second)
	}

	sub, err := s.GetByID(ctx, first)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := sampleSubmission()
	if sub.CompanyName != want.CompanyName ||
		sub.OpenShiftVersion != want.OpenShiftVersion ||
		sub.EmailAddress != want.EmailAddress ||
		sub.ClusterRequirements != want.ClusterRequirements {
		t.Errorf("loaded submission differs: %+v", sub)
	}
	if !sub.Virtualization {
		t.Error("virtualization flag lost")
	}
	if sub.RequestState != InitialState {
		t.Errorf("request state %q", sub.RequestState)
	}
	if !sub.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp %v, want %v", sub.Timestamp, want.Timestamp)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	id, err := m.Insert(context.Background(), sampleSubmission())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	sub, ok := m.Get(id)
	if !ok {
		t.Fatal("record not stored")
	}
	if sub.ProjectName != "edge-lab" {
		t.Errorf("stored submission differs: %+v", sub)
	}
	if m.Len() != 1 {
		t.Errorf("len %d", m.Len())
	}
}
