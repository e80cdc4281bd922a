// Package session holds the per-conversation field state. The store is
// arena-style: an indexed map of session id to record with an explicit
// create/clear lifecycle, so sessions never leak into each other and locking
// stays per-session.
package session

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/openshift-partner-labs/labform/patch"
	"github.com/openshift-partner-labs/labform/schema"
	"github.com/openshift-partner-labs/labform/validate"
)

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

type record struct {
	mu     sync.Mutex
	values schema.Snapshot
	// lastAccess is unix nanoseconds, kept atomic so expiry can read it
	// without taking the per-session mutex.
	lastAccess atomic.Int64
}

func (r *record) touch(now time.Time) {
	r.lastAccess.Store(now.UnixNano())
}

// Store maps session ids to their form state. Mutations on the same session
// are serialized by a per-session mutex; the store-level lock only guards the
// index, so independent sessions never contend on the data path.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*record
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*record),
		now:      time.Now,
	}
}

func (s *Store) lookup(sessionID string, create bool) *record {
	s.mu.RLock()
	rec, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok || !create {
		return rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.sessions[sessionID]; ok {
		return rec
	}
	rec = &record{values: schema.Snapshot{}}
	rec.touch(s.now())
	s.sessions[sessionID] = rec
	slog.Debug("created session", "session_id", sessionID)
	return rec
}

// Get returns a copy of the session's current values. Unknown sessions yield
// an empty snapshot, never an error.
func (s *Store) Get(sessionID string) schema.Snapshot {
	rec := s.lookup(sessionID, false)
	if rec == nil {
		return schema.Snapshot{}
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.touch(s.now())
	return cloneSnapshot(rec.values)
}

// UpsertField validates raw and, only on success, replaces the session's
// entry for the field with the coerced value. On rejection the session is
// left untouched and the reason is returned for relay to the user. The
// session is created on its first successful write.
func (s *Store) UpsertField(sessionID, field string, raw any) (any, error) {
	value, err := validate.Validate(field, raw)
	if err != nil {
		return nil, err
	}

	rec := s.lookup(sessionID, true)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.values[field] = value
	rec.touch(s.now())
	slog.Debug("updated field", "session_id", sessionID, "field", field)
	return value, nil
}

// ApplyPatch applies a batch of RFC 6902 operations to the session and
// validates every field of the result before committing. If any operation or
// any resulting value is invalid the session is left unchanged.
func (s *Store) ApplyPatch(sessionID string, ops []patch.Operation) (schema.Snapshot, error) {
	rec := s.lookup(sessionID, true)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	patched, err := patch.Apply(rec.values, ops)
	if err != nil {
		return nil, err
	}
	for field, raw := range patched {
		value, vErr := validate.Validate(field, raw)
		if vErr != nil {
			return nil, vErr
		}
		patched[field] = value
	}

	rec.values = patched
	rec.touch(s.now())
	slog.Debug("applied patch", "session_id", sessionID, "ops", len(ops))
	return cloneSnapshot(patched), nil
}

// Clear removes all state for the session. Clearing an unknown session is a
// no-op.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		slog.Debug("cleared session", "session_id", sessionID)
	}
}

// Exclusive runs fn while holding the session's write slot, so no other
// mutation on the same session can interleave with it. fn receives a copy of
// the current values; when it returns remove=true with a nil error the
// session is cleared before the slot is released. Unknown sessions run fn
// against an empty snapshot.
func (s *Store) Exclusive(sessionID string, fn func(snapshot schema.Snapshot) (remove bool, err error)) error {
	rec := s.lookup(sessionID, false)
	if rec == nil {
		_, err := fn(schema.Snapshot{})
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	remove, err := fn(cloneSnapshot(rec.values))
	if err != nil {
		return err
	}
	if remove {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		slog.Debug("cleared session", "session_id", sessionID)
	}
	return nil
}

// ExpireIdle removes sessions whose last access is older than maxIdle and
// returns how many were removed.
func (s *Store) ExpireIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.sessions {
		if rec.lastAccess.Load() < cutoff.UnixNano() {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("expired idle sessions", "count", removed)
	}
	return removed
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func cloneSnapshot(s schema.Snapshot) schema.Snapshot {
	out := make(schema.Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
