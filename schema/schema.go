package schema

import (
	"errors"
	"fmt"
)

// Snapshot is the validated field values of one session. Values are coerced
// by the validator before they get here: strings for text and enum fields,
// bool for the virtualization flag.
type Snapshot map[string]any

type Requiredness string

const (
	Required    Requiredness = "required"
	Conditional Requiredness = "conditional"
	Optional    Requiredness = "optional"
)

// Field names of the lab request form.
const (
	FieldCompanyName           = "company_name"
	FieldPrimaryContactName    = "primary_contact_name"
	FieldPrimaryContactEmail   = "primary_contact_email"
	FieldSecondaryContactName  = "secondary_contact_name"
	FieldSecondaryContactEmail = "secondary_contact_email"
	FieldSponsorEmail          = "sponsor_email"
	FieldProjectName           = "project_name"
	FieldDesiredStartDate      = "desired_start_date"
	FieldLeaseDuration         = "lease_duration"
	FieldTimezone              = "timezone"
	FieldOpenShiftVersion      = "openshift_version"
	FieldVirtualization        = "virtualization"
	FieldClusterRequirements   = "cluster_requirements"
	FieldApplicationType       = "application_type"
	FieldRequestType           = "request_type"
	FieldClusterSize           = "cluster_size"
	FieldCloudProvider         = "cloud_provider"
	FieldDescription           = "description"
	FieldScopeOfWork           = "scope_of_work"
	FieldNotes                 = "notes"
)

// Allowed value sets for the enumerated fields.
var (
	AllowedLeaseDurations   = []string{"1d", "2d", "1w", "2w", "1m"}
	AllowedApplicationTypes = []string{"workload", "infrastructure"}
	AllowedRequestTypes     = []string{"general", "engineering", "rosa", "nvidia", "virtualization", "ai"}
	AllowedClusterSizes     = []string{"small", "medium", "large", "xl"}
	AllowedCloudProviders   = []string{"aws", "gcp", "azure", "ibm"}
)

// ErrUnknownField marks a field name that has no definition in the registry.
// It indicates a schema mismatch between the caller and this package, not a
// user mistake.
var ErrUnknownField = errors.New("unknown form field")

// FieldDefinition is the static declaration of one form field. Definitions
// are registered once at package init and never mutated.
type FieldDefinition struct {
	Name         string
	DisplayName  string
	Requiredness Requiredness
	// Allowed is non-empty for enumerated fields.
	Allowed []string
	// Prompt is guidance for the conversational actor asking for this field.
	Prompt string
	// Condition reports whether a conditional field is active given the
	// current snapshot. Nil for required and optional fields.
	Condition func(Snapshot) bool
}

// Active reports whether the field must be present for the snapshot to be
// complete. Conditional activation is re-evaluated on every call so earlier
// answers can add or remove requirements mid-conversation.
func (d FieldDefinition) Active(s Snapshot) bool {
	switch d.Requiredness {
	case Required:
		return true
	case Conditional:
		return d.Condition != nil && d.Condition(s)
	default:
		return false
	}
}

var fields = []FieldDefinition{
	{Name: FieldCompanyName, DisplayName: "Company name", Requiredness: Required},
	{Name: FieldPrimaryContactName, DisplayName: "Primary contact name", Requiredness: Required},
	{Name: FieldPrimaryContactEmail, DisplayName: "Primary contact email", Requiredness: Required,
		Prompt: "A valid email address for the primary contact."},
	{Name: FieldSecondaryContactName, DisplayName: "Secondary contact name", Requiredness: Optional},
	{Name: FieldSecondaryContactEmail, DisplayName: "Secondary contact email", Requiredness: Optional,
		Prompt: "Optional. A valid email address for the secondary contact."},
	{Name: FieldSponsorEmail, DisplayName: "Sponsor email", Requiredness: Required,
		Prompt: "Email address of the Red Hat sponsor for this request."},
	{Name: FieldProjectName, DisplayName: "Project name", Requiredness: Required},
	{Name: FieldDesiredStartDate, DisplayName: "Desired start date", Requiredness: Required,
		Prompt: "ISO date, for example 2026-09-15."},
	{Name: FieldLeaseDuration, DisplayName: "Lease duration", Requiredness: Required,
		Allowed: AllowedLeaseDurations},
	{Name: FieldTimezone, DisplayName: "Timezone", Requiredness: Required,
		Prompt: "An IANA timezone identifier, for example America/New_York."},
	{Name: FieldOpenShiftVersion, DisplayName: "OpenShift version", Requiredness: Required,
		Prompt: "Format 4.y or 4.y.z, for example 4.16 or 4.16.2."},
	{Name: FieldVirtualization, DisplayName: "Virtualization", Requiredness: Required,
		Prompt: "Whether the lab needs OpenShift Virtualization (yes/no)."},
	{Name: FieldClusterRequirements, DisplayName: "Cluster requirements", Requiredness: Conditional,
		Prompt:    "Required when virtualization is enabled. Describe the cluster requirements.",
		Condition: virtualizationEnabled},
	{Name: FieldApplicationType, DisplayName: "Application type", Requiredness: Required,
		Allowed: AllowedApplicationTypes},
	{Name: FieldRequestType, DisplayName: "Request type", Requiredness: Required,
		Allowed: AllowedRequestTypes},
	{Name: FieldClusterSize, DisplayName: "Cluster size", Requiredness: Required,
		Allowed: AllowedClusterSizes},
	{Name: FieldCloudProvider, DisplayName: "Cloud provider", Requiredness: Required,
		Allowed: AllowedCloudProviders},
	{Name: FieldDescription, DisplayName: "Description", Requiredness: Required},
	{Name: FieldScopeOfWork, DisplayName: "Scope of work", Requiredness: Required},
	{Name: FieldNotes, DisplayName: "Notes", Requiredness: Optional},
}

var fieldsByName = func() map[string]FieldDefinition {
	m := make(map[string]FieldDefinition, len(fields))
	for _, def := range fields {
		m[def.Name] = def
	}
	return m
}()

func virtualizationEnabled(s Snapshot) bool {
	enabled, ok := s[FieldVirtualization].(bool)
	return ok && enabled
}

// DefinitionOf returns the definition of a field, or an error wrapping
// ErrUnknownField if no such field is registered.
func DefinitionOf(name string) (FieldDefinition, error) {
	def, ok := fieldsByName[name]
	if !ok {
		return FieldDefinition{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return def, nil
}

// Fields returns all definitions in declaration order.
func Fields() []FieldDefinition {
	out := make([]FieldDefinition, len(fields))
	copy(out, fields)
	return out
}

// FieldNames returns all field names in declaration order.
func FieldNames() []string {
	names := make([]string, len(fields))
	for i, def := range fields {
		names[i] = def.Name
	}
	return names
}

// Missing returns the active fields absent from the snapshot, in declaration
// order. An empty result means the form is submittable. Activation is derived
// from the snapshot on every call, never cached.
func Missing(s Snapshot) []FieldDefinition {
	var missing []FieldDefinition
	for _, def := range fields {
		if !def.Active(s) {
			continue
		}
		if _, ok := s[def.Name]; !ok {
			missing = append(missing, def)
		}
	}
	return missing
}
