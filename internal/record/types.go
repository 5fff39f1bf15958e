package record

import (
	"fmt"
	"strings"
)

// AttributeType is the declared data type of a custom attribute.
type AttributeType string

const (
	TypeText          AttributeType = "text"
	TypeNumber        AttributeType = "number"
	TypeDate          AttributeType = "date"
	TypeBoolean       AttributeType = "boolean"
	TypeEmail         AttributeType = "email"
	TypeURL           AttributeType = "url"
	TypeDropdown      AttributeType = "dropdown"
	TypePhone         AttributeType = "phone"
	TypeCurrency      AttributeType = "currency"
	TypeMultilineText AttributeType = "multiline_text"
	TypeFileReference AttributeType = "file_reference"
)

// AttributeTypes lists every supported type in declaration order.
var AttributeTypes = []AttributeType{
	TypeText,
	TypeNumber,
	TypeDate,
	TypeBoolean,
	TypeEmail,
	TypeURL,
	TypeDropdown,
	TypePhone,
	TypeCurrency,
	TypeMultilineText,
	TypeFileReference,
}

// ParseAttributeType converts a wire name to an AttributeType.
// Matching is case-insensitive, so "MULTILINE_TEXT" and "multiline_text"
// are equivalent. An empty string yields TypeText.
func ParseAttributeType(s string) (AttributeType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TypeText, nil
	}
	for _, t := range AttributeTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown attribute type %q", s)
}

// Valid reports whether t is one of the supported types.
func (t AttributeType) Valid() bool {
	_, err := ParseAttributeType(string(t))
	return err == nil && t != ""
}

// OrDefault returns t, or TypeText when t is empty.
func (t AttributeType) OrDefault() AttributeType {
	if t == "" {
		return TypeText
	}
	return t
}

func (t AttributeType) String() string {
	return string(t.OrDefault())
}
