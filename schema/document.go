package schema

import (
	"encoding/json"
	"fmt"

	"github.com/eino-contrib/jsonschema"
)

// Document is the JSON shape of a completed lab request form. It exists for
// schema reflection: the conversational actor receives the reflected schema
// so it knows the field names and their constraints.
type Document struct {
	CompanyName           string `json:"company_name" jsonschema:"description=Company requesting the lab"`
	PrimaryContactName    string `json:"primary_contact_name" jsonschema:"description=Primary contact full name"`
	PrimaryContactEmail   string `json:"primary_contact_email" jsonschema:"description=Primary contact email address"`
	SecondaryContactName  string `json:"secondary_contact_name,omitempty" jsonschema:"description=Optional secondary contact full name"`
	SecondaryContactEmail string `json:"secondary_contact_email,omitempty" jsonschema:"description=Optional secondary contact email address"`
	SponsorEmail          string `json:"sponsor_email" jsonschema:"description=Red Hat sponsor email address"`
	ProjectName           string `json:"project_name" jsonschema:"description=Project name"`
	DesiredStartDate      string `json:"desired_start_date" jsonschema:"description=Desired start date in ISO format"`
	LeaseDuration         string `json:"lease_duration" jsonschema:"enum=1d,enum=2d,enum=1w,enum=2w,enum=1m,description=Lease duration"`
	Timezone              string `json:"timezone" jsonschema:"description=IANA timezone identifier"`
	OpenShiftVersion      string `json:"openshift_version" jsonschema:"description=OpenShift version in 4.y or 4.y.z format"`
	Virtualization        bool   `json:"virtualization" jsonschema:"description=Whether OpenShift Virtualization is needed"`
	ClusterRequirements   string `json:"cluster_requirements,omitempty" jsonschema:"description=Cluster requirements. Required when virtualization is true"`
	ApplicationType       string `json:"application_type" jsonschema:"enum=workload,enum=infrastructure,description=Application type"`
	RequestType           string `json:"request_type" jsonschema:"enum=general,enum=engineering,enum=rosa,enum=nvidia,enum=virtualization,enum=ai,description=Request type"`
	ClusterSize           string `json:"cluster_size" jsonschema:"enum=small,enum=medium,enum=large,enum=xl,description=Cluster size"`
	CloudProvider         string `json:"cloud_provider" jsonschema:"enum=aws,enum=gcp,enum=azure,enum=ibm,description=Cloud provider"`
	Description           string `json:"description" jsonschema:"description=What the lab will be used for"`
	ScopeOfWork           string `json:"scope_of_work" jsonschema:"description=Scope of the work planned in the lab"`
	Notes                 string `json:"notes,omitempty" jsonschema:"description=Optional free-form notes"`
}

// JSONSchema returns the reflected JSON schema of the form document.
func JSONSchema() (string, error) {
	s := jsonschema.Reflect(&Document{})
	s.Title = "OpenShift lab request"
	s.Description = "Resource request form for an OpenShift partner lab environment."
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return string(data), nil
}
