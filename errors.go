package labform

import (
	"fmt"
	"strings"
)

// IncompleteError rejects a finalize attempt while active required fields
// are still missing. It is recoverable: the caller should re-prompt for the
// listed fields.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("form is incomplete, missing: %s", strings.Join(e.Missing, ", "))
}

// StoreError wraps a failed insert on the external record store. The session
// is preserved so the caller can retry finalize without re-collecting data.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store insert failed: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
