// Package record defines the business record exchanged by the service: a
// fixed core (identifier, name, description) plus an ordered list of
// user-defined custom attributes owned by the record.
//
// The package has no storage or transport dependencies. Stores, the exchange
// engine and the HTTP layer all share these types.
package record

import "strings"

// Field length limits enforced by Validate.
const (
	MaxNameLength              = 100
	MaxDescriptionLength       = 255
	MaxAttributeNameLength     = 100
	MaxAttributeValueLength    = 2000
	MaxValidationMessageLength = 100
)

// Record is a business record with fixed fields and custom attributes.
type Record struct {
	ID          *int64 // nil until persisted
	Name        string
	Description string
	Attributes  []CustomAttribute
}

// CustomAttribute is a named, typed extension field of a single Record.
// Names are unique per record, not globally.
type CustomAttribute struct {
	Name              string
	Value             string
	Type              AttributeType
	Required          bool
	ValidationPattern string
	ValidationMessage string
	Options           string // comma-separated, dropdown only
}

// Text returns a text attribute with the given name and value.
func Text(name, value string) CustomAttribute {
	return CustomAttribute{Name: name, Value: value, Type: TypeText}
}

// IDPtr returns a pointer to id. Convenient for literals and tests.
func IDPtr(id int64) *int64 {
	return &id
}

// HasID reports whether the record has been assigned an identifier.
func (r *Record) HasID() bool {
	return r.ID != nil
}

// Attribute returns the first attribute with the given name.
func (r *Record) Attribute(name string) (CustomAttribute, bool) {
	for _, a := range r.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return CustomAttribute{}, false
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.ID != nil {
		out.ID = IDPtr(*r.ID)
	}
	if r.Attributes != nil {
		out.Attributes = make([]CustomAttribute, len(r.Attributes))
		copy(out.Attributes, r.Attributes)
	}
	return out
}

// ParseOptions splits a comma-separated dropdown option list.
// Blank entries are dropped.
func ParseOptions(options string) []string {
	if strings.TrimSpace(options) == "" {
		return nil
	}
	parts := strings.Split(options, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
