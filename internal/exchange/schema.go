package exchange

import "github.com/JonMunkholm/records/internal/record"

// Schema is the reconciled, ordered set of custom column names for one
// exchange operation. It is built per call and never shared.
type Schema struct {
	names []string
	types []record.AttributeType
	index map[string]int
}

// Reconcile computes the ordered union of custom attribute names across
// records. Records are visited in order and attributes in stored order;
// each name is kept at its first occurrence. The declared type of that
// first occurrence is remembered for header type hints.
func Reconcile(records []record.Record) *Schema {
	s := &Schema{index: make(map[string]int)}
	for i := range records {
		for _, attr := range records[i].Attributes {
			s.add(attr.Name, attr.Type.OrDefault())
		}
	}
	return s
}

func (s *Schema) add(name string, t record.AttributeType) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = len(s.names)
	s.names = append(s.names, name)
	s.types = append(s.types, t)
	return true
}

// Len returns the number of custom columns.
func (s *Schema) Len() int {
	return len(s.names)
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Index returns the position of name within the schema.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Type returns the first-seen declared type of the i-th column.
func (s *Schema) Type(i int) record.AttributeType {
	if i < 0 || i >= len(s.types) {
		return record.TypeText
	}
	return s.types[i]
}
