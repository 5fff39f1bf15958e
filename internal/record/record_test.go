package record

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAttributeType(t *testing.T) {
	tests := []struct {
		in      string
		want    AttributeType
		wantErr bool
	}{
		{"", TypeText, false},
		{"text", TypeText, false},
		{"NUMBER", TypeNumber, false},
		{"  date ", TypeDate, false},
		{"MULTILINE_TEXT", TypeMultilineText, false},
		{"file_reference", TypeFileReference, false},
		{"spreadsheet", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAttributeType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAttributeType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAttributeType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAttributeType_OrDefault(t *testing.T) {
	var empty AttributeType
	if got := empty.OrDefault(); got != TypeText {
		t.Errorf("empty.OrDefault() = %q, want %q", got, TypeText)
	}
	if empty.Valid() {
		t.Error("empty type should not be Valid")
	}
	if !TypeCurrency.Valid() {
		t.Error("TypeCurrency should be Valid")
	}
}

func TestRecord_Attribute_FirstMatchWins(t *testing.T) {
	r := Record{
		Name: "widget",
		Attributes: []CustomAttribute{
			Text("color", "red"),
			Text("size", "L"),
			Text("color", "blue"),
		},
	}

	got, ok := r.Attribute("color")
	if !ok {
		t.Fatal("Attribute(color) not found")
	}
	if got.Value != "red" {
		t.Errorf("Attribute(color).Value = %q, want %q", got.Value, "red")
	}

	if _, ok := r.Attribute("weight"); ok {
		t.Error("Attribute(weight) should not be found")
	}
}

func TestRecord_Clone(t *testing.T) {
	orig := Record{
		ID:         IDPtr(7),
		Name:       "widget",
		Attributes: []CustomAttribute{Text("color", "red")},
	}

	c := orig.Clone()
	*c.ID = 8
	c.Attributes[0].Value = "blue"

	if *orig.ID != 7 {
		t.Errorf("orig.ID = %d, want 7", *orig.ID)
	}
	if orig.Attributes[0].Value != "red" {
		t.Errorf("orig attribute = %q, want red", orig.Attributes[0].Value)
	}
}

func TestParseOptions(t *testing.T) {
	got := ParseOptions(" small, medium ,,large ")
	want := []string{"small", "medium", "large"}
	if len(got) != len(want) {
		t.Fatalf("ParseOptions len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseOptions[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if ParseOptions("  ") != nil {
		t.Error("ParseOptions(blank) should be nil")
	}
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name      string
		rec       Record
		wantField string // empty means valid
	}{
		{
			name: "valid minimal record",
			rec:  Record{Name: "widget"},
		},
		{
			name:      "blank name",
			rec:       Record{Name: "  "},
			wantField: "name",
		},
		{
			name:      "name too long",
			rec:       Record{Name: strings.Repeat("x", MaxNameLength+1)},
			wantField: "name",
		},
		{
			name:      "description too long",
			rec:       Record{Name: "w", Description: strings.Repeat("d", MaxDescriptionLength+1)},
			wantField: "description",
		},
		{
			name: "blank attribute name",
			rec: Record{Name: "w", Attributes: []CustomAttribute{
				{Name: " ", Value: "v"},
			}},
			wantField: "customColumns[0]",
		},
		{
			name: "duplicate attribute name",
			rec: Record{Name: "w", Attributes: []CustomAttribute{
				Text("color", "red"), Text("color", "blue"),
			}},
			wantField: "color",
		},
		{
			name: "required attribute empty",
			rec: Record{Name: "w", Attributes: []CustomAttribute{
				{Name: "sku", Required: true},
			}},
			wantField: "sku",
		},
		{
			name: "number attribute invalid",
			rec: Record{Name: "w", Attributes: []CustomAttribute{
				{Name: "qty", Value: "lots", Type: TypeNumber},
			}},
			wantField: "qty",
		},
		{
			name: "currency with symbol valid",
			rec: Record{Name: "w", Attributes: []CustomAttribute{
				{Name: "price", Value: "$1,234.50", Type: TypeCurrency},
			}},
		},
		{
			name: "unknown type",
			rec: Record{Name: "w", Attributes: []CustomAttribute{
				{Name: "x", Value: "1", Type: "matrix"},
			}},
			wantField: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("first error field = %q, want %q (%v)", verrs[0].Field, tt.wantField, verrs)
			}
		})
	}
}

func TestCustomAttribute_Check_Pattern(t *testing.T) {
	attr := CustomAttribute{
		Name:              "sku",
		Value:             "AB-12",
		ValidationPattern: `^[A-Z]{3}-\d+$`,
		ValidationMessage: "SKU must look like ABC-123",
	}

	err := attr.Check()
	if err == nil {
		t.Fatal("Check() error = nil, want pattern mismatch")
	}
	if !strings.Contains(err.Error(), "SKU must look like ABC-123") {
		t.Errorf("Check() error = %q, want custom message", err.Error())
	}

	attr.Value = "ABC-12"
	if err := attr.Check(); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}

	attr.ValidationPattern = "("
	if err := attr.Check(); err == nil {
		t.Error("Check() with broken pattern should fail")
	}
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		typ     AttributeType
		options string
		wantErr bool
	}{
		{"empty always valid", "", TypeNumber, "", false},
		{"text anything", "whatever", TypeText, "", false},
		{"number", "-12.5e3", TypeNumber, "", false},
		{"accounting negative", "(100.00)", TypeCurrency, "", false},
		{"bad number", "12abc", TypeNumber, "", true},
		{"iso date", "2024-01-15", TypeDate, "", false},
		{"us date", "1/15/2024", TypeDate, "", false},
		{"bad date", "someday", TypeDate, "", true},
		{"bool yes", "Yes", TypeBoolean, "", false},
		{"bool bad", "maybe", TypeBoolean, "", true},
		{"email", "ops@example.com", TypeEmail, "", false},
		{"email with name", "Ops <ops@example.com>", TypeEmail, "", true},
		{"url", "https://example.com/x", TypeURL, "", false},
		{"url relative", "/x/y", TypeURL, "", true},
		{"phone", "+1 (555) 123-4567", TypePhone, "", false},
		{"phone letters", "call me", TypePhone, "", true},
		{"dropdown ok", "Medium", TypeDropdown, "small,medium,large", false},
		{"dropdown bad", "huge", TypeDropdown, "small,medium,large", true},
		{"dropdown no options", "huge", TypeDropdown, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValue(tt.value, tt.typ, tt.options)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateValue(%q, %s) error = %v, wantErr %v", tt.value, tt.typ, err, tt.wantErr)
			}
		})
	}
}
