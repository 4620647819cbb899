// internal/form/validate.go
//
// Contact – Forms subsystem: field validation rules.
//
// Context
//   Every field kind owns a short chain of rules evaluated top to bottom.  The
//   first failing rule wins and its message is returned; an empty string
//   means the value is valid.  Rules are pure functions of the value, so the
//   same input always yields the same message.
//
// Workflow
//   •  Emptiness and length checks look at the whitespace-trimmed value.
//   •  Charset and format patterns test the raw value, so stray inner or
//      outer characters are still caught.
//   •  Lengths count runes, not bytes, so accented names measure correctly.
//   •  Whitespace is the browser's set: ASCII spaces plus every Unicode space
//      separator, U+FEFF, and the line/paragraph separators.  A name typed
//      with a no-break space is still a name.
//   •  ValidateAll checks every field and never stops at the first failure.
//
//------------------------------------------------------------------------------

package form

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// -----------------------------------------------------------------------------
// Values
// -----------------------------------------------------------------------------

// Value is the raw state of one input: text for text-like controls, Checked
// for checkboxes.
type Value struct {
	Text    string `json:"value,omitempty"`
	Checked bool   `json:"checked,omitempty"`
}

// Text wraps a text value.
func Text(s string) Value { return Value{Text: s} }

// Checked wraps a checkbox state.
func Checked(b bool) Value { return Value{Checked: b} }

// -----------------------------------------------------------------------------
// Rules
// -----------------------------------------------------------------------------

// Rule names, also the keys of FieldDef.Messages.
const (
	RuleRequired  = "required"
	RuleMinLength = "min_length"
	RuleCharset   = "charset"
	RuleFormat    = "format"
	RuleMinDigits = "min_digits"
)

const (
	minNameLength    = 2
	minMessageLength = 10
	minPhoneDigits   = 8
)

// space is the body of a character class matching one whitespace rune.
const space = `\t\n\v\f\r \p{Zs}\x{FEFF}\x{2028}\x{2029}`

var (
	nameCharset  = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ` + space + `]+$`)
	emailFormat  = regexp.MustCompile(`^[^@` + space + `]+@[^@` + space + `]+\.[^@` + space + `]+$`)
	phoneCharset = regexp.MustCompile(`^[\d\-\+\(\)` + space + `]+$`)
)

// rule reports true when v violates it.
type rule struct {
	name  string
	fails func(v Value) bool
}

var chains = map[Kind][]rule{
	KindPersonName: {
		{RuleRequired, blank},
		{RuleMinLength, shorterThan(minNameLength)},
		{RuleCharset, mismatch(nameCharset)},
	},
	KindEmail: {
		{RuleRequired, blank},
		{RuleFormat, mismatch(emailFormat)},
	},
	KindPhone: {
		{RuleRequired, blank},
		{RuleCharset, mismatch(phoneCharset)},
		{RuleMinDigits, fewerDigitsThan(minPhoneDigits)},
	},
	KindSelect: {
		// A selection is judged untrimmed: any chosen option is acceptable.
		{RuleRequired, func(v Value) bool { return v.Text == "" }},
	},
	KindLongText: {
		{RuleRequired, blank},
		{RuleMinLength, shorterThan(minMessageLength)},
	},
	KindConsent: {
		{RuleRequired, func(v Value) bool { return !v.Checked }},
	},
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\uFEFF', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func trim(s string) string { return strings.TrimFunc(s, isSpace) }

func blank(v Value) bool { return trim(v.Text) == "" }

func shorterThan(n int) func(Value) bool {
	return func(v Value) bool {
		return utf8.RuneCountInString(trim(v.Text)) < n
	}
}

func mismatch(re *regexp.Regexp) func(Value) bool {
	return func(v Value) bool { return !re.MatchString(v.Text) }
}

func fewerDigitsThan(n int) func(Value) bool {
	return func(v Value) bool {
		digits := 0
		for _, r := range v.Text {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		return digits < n
	}
}

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

// Check runs the field's rule chain and returns the first failing rule with
// its message.  Both are empty when v is valid.
func (f *FieldDef) Check(v Value) (ruleName, message string) {
	for _, r := range chains[f.Kind] {
		if r.fails(v) {
			return r.name, f.Messages[r.name]
		}
	}
	return "", ""
}

// Validate returns the user-facing error for v, or "" when v is valid.
func (f *FieldDef) Validate(v Value) string {
	_, msg := f.Check(v)
	return msg
}

// ValidateAll validates every field of d against values.  Fields missing
// from values are validated as empty.  Failures come back in form order.
func (d *Definition) ValidateAll(values map[Field]Value) []ErrorField {
	var errs []ErrorField
	for i := range d.Fields {
		f := &d.Fields[i]
		if msg := f.Validate(values[f.Name]); msg != "" {
			errs = append(errs, ErrorField{Name: f.Name, Message: msg})
		}
	}
	return errs
}

// Validate checks v against the stock contact form's rules for name.  It
// returns "" for valid input and for names the stock form does not define.
func Validate(name Field, v Value) string {
	f, ok := Default().Lookup(name)
	if !ok {
		return ""
	}
	return f.Validate(v)
}
