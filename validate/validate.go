// Package validate holds the pure field validation rules for the lab request
// form. Validation never touches session state: it maps a (field, raw value)
// pair to a coerced value or a typed rejection reason.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openshift-partner-labs/labform/schema"
)

type Code string

const (
	CodeMalformedEmail     Code = "malformed_email"
	CodeMalformedVersion   Code = "malformed_version"
	CodeMalformedDate      Code = "malformed_date"
	CodeNotInAllowedSet    Code = "not_in_allowed_set"
	CodeUnknownTimezone    Code = "unknown_timezone"
	CodeEmptyRequiredValue Code = "empty_required_value"
	CodeInvalidBoolean     Code = "invalid_boolean"
)

// Reason is a recoverable validation failure, meant to be relayed to the
// user for correction.
type Reason struct {
	Field   string
	Code    Code
	Message string
}

func (r *Reason) Error() string {
	return fmt.Sprintf("%s: %s", r.Field, r.Message)
}

func reject(field string, code Code, format string, args ...any) (any, error) {
	return nil, &Reason{Field: field, Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	versionPattern = regexp.MustCompile(`^4\.\d+(\.\d+)?$`)
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Validate checks a raw value against the rules of the named field and
// returns the coerced value to store. A *Reason error means the user should
// correct the value; a schema.ErrUnknownField error means the caller and the
// registry disagree about the form.
func Validate(field string, raw any) (any, error) {
	def, err := schema.DefinitionOf(field)
	if err != nil {
		return nil, err
	}

	if field == schema.FieldVirtualization {
		return validateBoolean(field, raw)
	}

	value, ok := asString(raw)
	if !ok {
		return reject(field, CodeEmptyRequiredValue, "expected a text value, got %T", raw)
	}
	value = strings.TrimSpace(value)

	if value == "" {
		if def.Requiredness == schema.Optional {
			return "", nil
		}
		return reject(field, CodeEmptyRequiredValue, "%s cannot be empty", def.DisplayName)
	}

	switch {
	case len(def.Allowed) > 0:
		candidate := strings.ToLower(value)
		for _, allowed := range def.Allowed {
			if candidate == allowed {
				return allowed, nil
			}
		}
		return reject(field, CodeNotInAllowedSet, "%s must be one of: %s",
			def.DisplayName, strings.Join(def.Allowed, ", "))

	case strings.HasSuffix(field, "_email"):
		if !emailPattern.MatchString(value) {
			return reject(field, CodeMalformedEmail, "invalid email format for %s", def.DisplayName)
		}
		return value, nil

	case field == schema.FieldOpenShiftVersion:
		if !versionPattern.MatchString(value) {
			return reject(field, CodeMalformedVersion, "OpenShift version must be in format 4.y or 4.y.z")
		}
		return value, nil

	case field == schema.FieldTimezone:
		if _, err := time.LoadLocation(value); err != nil {
			return reject(field, CodeUnknownTimezone, "%q is not a recognized IANA timezone", value)
		}
		return value, nil

	case field == schema.FieldDesiredStartDate:
		if !validDate(value) {
			return reject(field, CodeMalformedDate, "start date must be an ISO date such as 2026-09-15")
		}
		return value, nil

	default:
		return value, nil
	}
}

func validDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func validateBoolean(field string, raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1", "t":
			return true, nil
		case "false", "no", "n", "0", "f":
			return false, nil
		}
	}
	return reject(field, CodeInvalidBoolean, "virtualization must be a yes/no value")
}

func asString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
