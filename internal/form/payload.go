// internal/form/actions.go
//
// Contact – Forms subsystem: submitted payload.
//
// Context
//   After a successful submit the collected values are handed to an external
//   collaborator (logging or telemetry).  The payload is a flat map of field
//   name to raw value.  Consent checkboxes are not part of it; they gate the
//   submit but carry no content.
//
//------------------------------------------------------------------------------

package form

// Payload maps field name to the value exactly as the user entered it.
type Payload map[string]string

// Payload assembles the submission payload from values.  Fields missing from
// values are reported as "".
func (d *Definition) Payload(values map[Field]Value) Payload {
	out := make(Payload, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Kind == KindConsent {
			continue
		}
		out[string(f.Name)] = values[f.Name].Text
	}
	return out
}
