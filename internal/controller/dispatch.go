package controller

import "github.com/yanizio/contactform/internal/form"

// dispatchKey selects the handler for one (field, trigger) pair.
type dispatchKey struct {
	field   form.Field
	trigger Trigger
}

// handler stores v on field i and returns its status.  Caller holds c.mu.
type handler func(c *Controller, i int, v form.Value, out *outbox) FieldStatus

// buildDispatch wires every field of def.  Text-like controls validate on
// blur and, while already showing an error, on every input so the message
// clears as soon as the value is fixed.  Checkboxes validate on change
// instead of input.  Blur stays wired for checkboxes as well.
func buildDispatch(def *form.Definition) map[dispatchKey]handler {
	table := make(map[dispatchKey]handler, 2*len(def.Fields))
	for _, f := range def.Fields {
		table[dispatchKey{f.Name, Blur}] = validateOn
		if f.Kind == form.KindConsent {
			table[dispatchKey{f.Name, Change}] = validateOn
			continue
		}
		table[dispatchKey{f.Name, Input}] = revalidateIfInvalid
	}
	return table
}

func validateOn(c *Controller, i int, v form.Value, out *outbox) FieldStatus {
	c.fields[i].Value = v
	return c.validate(i, out)
}

func revalidateIfInvalid(c *Controller, i int, v form.Value, out *outbox) FieldStatus {
	c.fields[i].Value = v
	if c.fields[i].Valid {
		return c.fields[i]
	}
	return c.validate(i, out)
}
