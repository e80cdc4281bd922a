package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS requests (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp               TEXT NOT NULL,
	request_state           TEXT NOT NULL,
	request_eval_date       TEXT NOT NULL,
	email_address           TEXT NOT NULL,
	company_name            TEXT NOT NULL,
	primary_contact_name    TEXT NOT NULL,
	primary_contact_email   TEXT NOT NULL,
	secondary_contact_name  TEXT,
	secondary_contact_email TEXT,
	sponsor_email           TEXT NOT NULL,
	project_name            TEXT NOT NULL,
	desired_start_date      TEXT NOT NULL,
	lease_duration          TEXT NOT NULL,
	timezone                TEXT NOT NULL,
	openshift_version       TEXT NOT NULL,
	virtualization          INTEGER NOT NULL,
	cluster_requirements    TEXT,
	application_type        TEXT NOT NULL,
	request_type            TEXT NOT NULL,
	cluster_size            TEXT NOT NULL,
	cloud_provider          TEXT NOT NULL,
	description             TEXT NOT NULL,
	scope_of_work           TEXT NOT NULL,
	notes                   TEXT,
	created_at              TEXT NOT NULL
);
`

// SQLite is a RecordStore backed by a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the database at path and runs migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Insert(ctx context.Context, sub Submission) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (
			timestamp, request_state, request_eval_date, email_address,
			company_name, primary_contact_name, primary_contact_email,
			secondary_contact_name, secondary_contact_email, sponsor_email,
			project_name, desired_start_date, lease_duration, timezone,
			openshift_version, virtualization, cluster_requirements,
			application_type, request_type, cluster_size, cloud_provider,
			description, scope_of_work, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.Timestamp.Format(time.RFC3339Nano),
		sub.RequestState,
		sub.RequestEvalDate.Format(time.RFC3339Nano),
		sub.EmailAddress,
		sub.CompanyName,
		sub.PrimaryContactName,
		sub.PrimaryContactEmail,
		sub.SecondaryContactName,
		sub.SecondaryContactEmail,
		sub.SponsorEmail,
		sub.ProjectName,
		sub.DesiredStartDate,
		sub.LeaseDuration,
		sub.Timezone,
		sub.OpenShiftVersion,
		sub.Virtualization,
		sub.ClusterRequirements,
		sub.ApplicationType,
		sub.RequestType,
		sub.ClusterSize,
		sub.CloudProvider,
		sub.Description,
		sub.ScopeOfWork,
		sub.Notes,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetByID loads a stored submission, mainly for inspection tooling and tests.
func (s *SQLite) GetByID(ctx context.Context, id int64) (Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT timestamp, request_state, request_eval_date, email_address,
			company_name, primary_contact_name, primary_contact_email,
			secondary_contact_name, secondary_contact_email, sponsor_email,
			project_name, desired_start_date, lease_duration, timezone,
			openshift_version, virtualization, cluster_requirements,
			application_type, request_type, cluster_size, cloud_provider,
			description, scope_of_work, notes
		FROM requests WHERE id = ?`, id)

	var sub Submission
	var timestamp, evalDate string
	err := row.Scan(
		&timestamp, &sub.RequestState, &evalDate, &sub.EmailAddress,
		&sub.CompanyName, &sub.PrimaryContactName, &sub.PrimaryContactEmail,
		&sub.SecondaryContactName, &sub.SecondaryContactEmail, &sub.SponsorEmail,
		&sub.ProjectName, &sub.DesiredStartDate, &sub.LeaseDuration, &sub.Timezone,
		&sub.OpenShiftVersion, &sub.Virtualization, &sub.ClusterRequirements,
		&sub.ApplicationType, &sub.RequestType, &sub.ClusterSize, &sub.CloudProvider,
		&sub.Description, &sub.ScopeOfWork, &sub.Notes,
	)
	if err != nil {
		return Submission{}, fmt.Errorf("load request %d: %w", id, err)
	}
	if sub.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp); err != nil {
		return Submission{}, fmt.Errorf("parse timestamp: %w", err)
	}
	if sub.RequestEvalDate, err = time.Parse(time.RFC3339Nano, evalDate); err != nil {
		return Submission{}, fmt.Errorf("parse eval date: %w", err)
	}
	return sub, nil
}
