package labform

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/openshift-partner-labs/labform/schema"
)

// Summary renders the session as a markdown table for the user to review
// before confirming submission. Optional fields without a value are listed
// as not provided; missing active fields are called out below the table.
func (e *Engine) Summary(sessionID string) string {
	snapshot := e.sessions.Get(sessionID)

	var buf strings.Builder
	buf.WriteString("# Lab request summary\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value")
	for _, def := range schema.Fields() {
		_ = table.Append(def.DisplayName, displayValue(snapshot, def))
	}
	_ = table.Render()

	if missing := schema.Missing(snapshot); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, def := range missing {
			names[i] = def.DisplayName
		}
		buf.WriteString(fmt.Sprintf("\nStill missing: %s\n", strings.Join(names, ", ")))
	} else {
		buf.WriteString("\nAll required fields are filled. The form is ready for submission.\n")
	}
	return buf.String()
}

func displayValue(s schema.Snapshot, def schema.FieldDefinition) string {
	value, ok := s[def.Name]
	if !ok {
		if def.Active(s) {
			return "(missing)"
		}
		return "(not provided)"
	}
	switch v := value.(type) {
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case string:
		if v == "" {
			return "(not provided)"
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}
