// Package store persists finalized lab request submissions. The engine only
// depends on the RecordStore contract; the SQLite implementation mirrors the
// production requests table, and the memory implementation backs tests.
package store

import (
	"context"
	"sync"
	"time"
)

// InitialState is the workflow state stamped on every new submission.
const InitialState = "pending"

// Submission is the finalized form augmented with the system-generated
// fields. It is constructed only by the finalizer and handed to a
// RecordStore exactly once per successful submission.
type Submission struct {
	Timestamp       time.Time `json:"timestamp"`
	RequestState    string    `json:"request_state"`
	RequestEvalDate time.Time `json:"request_eval_date"`

	// EmailAddress is the authenticated requester identity. It is supplied
	// by the caller at finalize time and never read from user-editable form
	// data.
	EmailAddress string `json:"email_address"`

	CompanyName           string `json:"company_name"`
	PrimaryContactName    string `json:"primary_contact_name"`
	PrimaryContactEmail   string `json:"primary_contact_email"`
	SecondaryContactName  string `json:"secondary_contact_name,omitempty"`
	SecondaryContactEmail string `json:"secondary_contact_email,omitempty"`
	SponsorEmail          string `json:"sponsor_email"`
	ProjectName           string `json:"project_name"`
	DesiredStartDate      string `json:"desired_start_date"`
	LeaseDuration         string `json:"lease_duration"`
	Timezone              string `json:"timezone"`
	OpenShiftVersion      string `json:"openshift_version"`
	Virtualization        bool   `json:"virtualization"`
	ClusterRequirements   string `json:"cluster_requirements,omitempty"`
	ApplicationType       string `json:"application_type"`
	RequestType           string `json:"request_type"`
	ClusterSize           string `json:"cluster_size"`
	CloudProvider         string `json:"cloud_provider"`
	Description           string `json:"description"`
	ScopeOfWork           string `json:"scope_of_work"`
	Notes                 string `json:"notes,omitempty"`
}

// RecordStore accepts finalized submissions. Insert returns the identifier
// of the stored record; any error is surfaced to the finalizer's caller,
// which owns the retry decision.
type RecordStore interface {
	Insert(ctx context.Context, sub Submission) (int64, error)
}

// Memory is an in-memory RecordStore for tests and local runs.
type Memory struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]Submission
}

func NewMemory() *Memory {
	return &Memory{records: make(map[int64]Submission)}
}

func (m *Memory) Insert(ctx context.Context, sub Submission) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.records[m.nextID] = sub
	return m.nextID, nil
}

// Get returns a stored submission by id.
func (m *Memory) Get(id int64) (Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.records[id]
	return sub, ok
}

// Len reports the number of stored submissions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
