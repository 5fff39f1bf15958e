package record

// validation.go checks records submitted through the CRUD API.
//
// Validation happens at two levels:
//  1. Record: name and description bounds, attribute name uniqueness
//  2. Attribute: each value against its declared type, pattern and options
//
// Import never calls Validate; exchange files are accepted as-is and
// degrade gracefully instead.

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field or attribute name
	Value   string // The invalid value, if relevant
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every problem found on a record.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid record: " + strings.Join(msgs, "; ")
}

// Validate checks the record and all of its attributes.
// Returns nil or a ValidationErrors value listing every problem.
func (r *Record) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	} else if utf8.RuneCountInString(r.Name) > MaxNameLength {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength),
		})
	}

	if utf8.RuneCountInString(r.Description) > MaxDescriptionLength {
		errs = append(errs, ValidationError{
			Field:   "description",
			Message: fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength),
		})
	}

	seen := make(map[string]bool, len(r.Attributes))
	for i, attr := range r.Attributes {
		field := attr.Name
		if strings.TrimSpace(field) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("customColumns[%d]", i),
				Message: "column name is required",
			})
			continue
		}
		if seen[attr.Name] {
			errs = append(errs, ValidationError{Field: field, Message: "duplicate column name"})
			continue
		}
		seen[attr.Name] = true

		if err := attr.Check(); err != nil {
			if ve, ok := err.(ValidationError); ok {
				errs = append(errs, ve)
			} else {
				errs = append(errs, ValidationError{Field: field, Message: err.Error()})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Check validates a single attribute: bounds, required value, declared
// type, validation pattern and dropdown options.
func (a CustomAttribute) Check() error {
	fail := func(msg string) error {
		return ValidationError{Field: a.Name, Value: a.Value, Message: msg}
	}

	if utf8.RuneCountInString(a.Name) > MaxAttributeNameLength {
		return fail(fmt.Sprintf("column name must be at most %d characters", MaxAttributeNameLength))
	}
	if utf8.RuneCountInString(a.Value) > MaxAttributeValueLength {
		return fail(fmt.Sprintf("column value must be at most %d characters", MaxAttributeValueLength))
	}
	if utf8.RuneCountInString(a.ValidationMessage) > MaxValidationMessageLength {
		return fail(fmt.Sprintf("error message must be at most %d characters", MaxValidationMessageLength))
	}
	if a.Type != "" && !a.Type.Valid() {
		return fail(fmt.Sprintf("unknown column type %q", string(a.Type)))
	}

	value := strings.TrimSpace(a.Value)
	if value == "" {
		if a.Required {
			return fail("required field is empty")
		}
		return nil
	}

	if a.ValidationPattern != "" {
		re, err := regexp.Compile(a.ValidationPattern)
		if err != nil {
			return fail(fmt.Sprintf("invalid validation pattern: %v", err))
		}
		if !re.MatchString(a.Value) {
			if a.ValidationMessage != "" {
				return fail(a.ValidationMessage)
			}
			return fail("value does not match the validation pattern")
		}
	}

	return ValidateValue(value, a.Type.OrDefault(), a.Options)
}

// ValidateValue validates a non-empty value against a declared type.
// Returns nil if valid, or an error describing the problem.
func ValidateValue(value string, t AttributeType, options string) error {
	if value == "" {
		return nil
	}

	switch t {
	case TypeNumber, TypeCurrency:
		if _, ok := ParseNumber(value); !ok {
			return fmt.Errorf("invalid number format")
		}
	case TypeDate:
		if _, ok := ParseDate(value); !ok {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD or similar)")
		}
	case TypeBoolean:
		if _, ok := ParseBool(value); !ok {
			return fmt.Errorf("must be yes/no, true/false, or 1/0")
		}
	case TypeEmail:
		if !IsEmail(value) {
			return fmt.Errorf("invalid email address")
		}
	case TypeURL:
		if !IsURL(value) {
			return fmt.Errorf("invalid url")
		}
	case TypePhone:
		if !IsPhone(value) {
			return fmt.Errorf("invalid phone number")
		}
	case TypeDropdown:
		opts := ParseOptions(options)
		if len(opts) == 0 {
			return nil
		}
		for _, o := range opts {
			if strings.EqualFold(o, value) {
				return nil
			}
		}
		return fmt.Errorf("value must be one of: %s", strings.Join(opts, ", "))
	}
	return nil
}
