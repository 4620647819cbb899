// internal/form/definition.go
//
// Contact – Forms subsystem: YAML definition loader.
//
// Context
//   The contact form is declared in YAML.  The definition lists every field
//   in form order together with its kind (which rule chain validates it) and
//   the user-facing message for each rule.  A default definition is embedded
//   in the binary; operators may point config at a replacement file to change
//   labels or wording without rebuilding.
//
// Workflow
//   •  Structs mirror the YAML schema: Definition → FieldDef.
//   •  ParseDefinition decodes raw YAML and enforces structural rules.
//   •  LoadDefinition reads a file and delegates to ParseDefinition.
//   •  Default returns the embedded definition, parsed once.
//
//   The Definition is built once at startup and passed explicitly to the
//   controller.  Nothing in this package keeps a mutable field table.
//
//------------------------------------------------------------------------------

package form

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// Field names one input of the form, e.g. “firstName”.
type Field string

// Fields of the stock contact form, in form order.
const (
	FirstName Field = "firstName"
	LastName  Field = "lastName"
	Email     Field = "email"
	Phone     Field = "phone"
	Subject   Field = "subject"
	Message   Field = "message"
	Terms     Field = "terms"
)

// Kind selects the rule chain used to validate a field.
type Kind string

const (
	KindPersonName Kind = "person_name" // required, min length, letters only
	KindEmail      Kind = "email"       // required, local@domain.tld
	KindPhone      Kind = "phone"       // required, phone charset, min digits
	KindSelect     Kind = "select"      // non-empty selection
	KindLongText   Kind = "long_text"   // required, min length
	KindConsent    Kind = "consent"     // checkbox must be checked
)

// Definition is one parsed form.  Fields keep declaration order, which is the
// order used for “first invalid field” focus and for payload assembly.
//
// The JSON form is the client's rendering description: title, labels, and
// fields in order.  Rule messages stay server-side.
type Definition struct {
	ID           string     `yaml:"id"             json:"id"              validate:"required"`
	Title        string     `yaml:"title"          json:"title,omitempty"`
	SubmitLabel  string     `yaml:"submit_label"   json:"submit_label"    validate:"required"`
	SendingLabel string     `yaml:"sending_label"  json:"sending_label"   validate:"required"`
	Fields       []FieldDef `yaml:"fields"         json:"fields"          validate:"required,min=1,dive"`

	index map[Field]int
}

// FieldDef describes a single input control.  Messages are keyed by rule
// name (see Rule* constants) and must cover every rule of the field's kind.
type FieldDef struct {
	Name     Field             `yaml:"name"     json:"name"  validate:"required"`
	Label    string            `yaml:"label"    json:"label" validate:"required"`
	Kind     Kind              `yaml:"kind"     json:"kind"  validate:"required,oneof=person_name email phone select long_text consent"`
	Messages map[string]string `yaml:"messages" json:"-"     validate:"required"`
}

//go:embed contact.yaml
var defaultYAML []byte

var (
	defaultOnce sync.Once
	defaultDef  *Definition
)

// structValidator checks the tag rules above.  validator.Validate is safe for
// concurrent use and caches struct metadata, so one instance is shared.
var structValidator = validator.New()

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// Default returns the embedded contact form definition.  It panics if the
// embedded YAML is malformed, which only a broken build can cause.
func Default() *Definition {
	defaultOnce.Do(func() {
		fd, err := ParseDefinition(defaultYAML, "embedded contact.yaml")
		if err != nil {
			panic(err)
		}
		defaultDef = fd
	})
	return defaultDef
}

// LoadDefinition reads and parses one YAML file.  An empty path yields the
// embedded default.
func LoadDefinition(path string) (*Definition, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseDefinition(raw, path)
}

// ParseDefinition decodes raw YAML and validates its structure.  src is only
// used to label errors.
func ParseDefinition(raw []byte, src string) (*Definition, error) {
	var fd Definition
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := structValidator.Struct(&fd); err != nil {
		return nil, fmt.Errorf("form definition %s: %w", src, err)
	}
	if err := validateDefinition(&fd, src); err != nil {
		return nil, err
	}
	return &fd, nil
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// Lookup returns the descriptor for name.  The boolean is false when the
// field is not part of the form.
func (d *Definition) Lookup(name Field) (*FieldDef, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.Fields[i], true
}

// Names returns the field names in form order.
func (d *Definition) Names() []Field {
	out := make([]Field, len(d.Fields))
	for i := range d.Fields {
		out[i] = d.Fields[i].Name
	}
	return out
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateDefinition enforces rules the struct tags cannot express: unique
// names and a message for every rule in each field's chain.
func validateDefinition(fd *Definition, src string) error {
	fd.index = make(map[Field]int, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if _, dup := fd.index[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", src, f.Name)
		}
		fd.index[f.Name] = i

		for _, r := range chains[f.Kind] {
			if f.Messages[r.name] == "" {
				return fmt.Errorf("form %s: field '%s' missing message for rule '%s'", src, f.Name, r.name)
			}
		}
	}
	return nil
}
