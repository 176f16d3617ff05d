package telegram

import (
	"encoding/json"
	"maps"
	"slices"
)

// Form is the shape of a section body.
type Form uint8

// Section forms. FormNone is only seen on the zero Section and while the
// grammar is still probing a body.
const (
	FormNone Form = iota
	FormArray
	FormObject
)

// String returns the lowercase form name.
func (f Form) String() string {
	switch f {
	case FormArray:
		return "array"
	case FormObject:
		return "object"
	default:
		return "none"
	}
}

// Section is the body of a named telegram section: an ordered list of
// values (array form) or a key -> value map (object form), never both.
type Section struct {
	form   Form
	items  []Value
	fields map[string]Value
}

// ArraySection returns an array-form section holding items.
func ArraySection(items ...Value) Section {
	return Section{form: FormArray, items: slices.Clone(items)}
}

// ObjectSection returns an object-form section holding fields.
func ObjectSection(fields map[string]Value) Section {
	return Section{form: FormObject, fields: maps.Clone(fields)}
}

// Form returns the section's body form.
func (s Section) Form() Form {
	return s.form
}

// Len returns the number of elements or pairs in the section.
func (s Section) Len() int {
	if s.form == FormObject {
		return len(s.fields)
	}
	return len(s.items)
}

// Items returns a copy of the elements of an array-form section, or nil.
func (s Section) Items() []Value {
	return slices.Clone(s.items)
}

// Item returns the i-th element of an array-form section.
func (s Section) Item(i int) (Value, bool) {
	if s.form != FormArray || i < 0 || i >= len(s.items) {
		return Value{}, false
	}
	return s.items[i], true
}

// Fields returns a copy of the pairs of an object-form section, or nil.
func (s Section) Fields() map[string]Value {
	return maps.Clone(s.fields)
}

// Get returns the value stored under key in an object-form section.
func (s Section) Get(key string) (Value, bool) {
	if s.form != FormObject {
		return Value{}, false
	}
	v, ok := s.fields[key]
	return v, ok
}

// MarshalJSON encodes an array section as a JSON array and an object
// section as a JSON object.
func (s Section) MarshalJSON() ([]byte, error) {
	switch s.form {
	case FormArray:
		return json.Marshal(s.items)
	case FormObject:
		return json.Marshal(s.fields)
	default:
		return []byte("null"), nil
	}
}

// Document is a parsed telegram: section name -> section body.
//
// Documents are read-only after construction and safe for concurrent use.
type Document struct {
	sections map[string]Section
}

// NewDocument builds a document from already decoded sections. Sections
// with FormNone are dropped.
func NewDocument(sections map[string]Section) *Document {
	d := &Document{sections: make(map[string]Section, len(sections))}
	for name, s := range sections {
		if s.form != FormNone {
			d.sections[name] = s
		}
	}
	return d
}

// Len returns the number of sections.
func (d *Document) Len() int {
	return len(d.sections)
}

// Names returns the section names in sorted order.
func (d *Document) Names() []string {
	return slices.Sorted(maps.Keys(d.sections))
}

// Section returns the named section.
func (d *Document) Section(name string) (Section, bool) {
	s, ok := d.sections[name]
	return s, ok
}

// Lookup returns the value under key in the named object-form section.
func (d *Document) Lookup(section, key string) (Value, bool) {
	s, ok := d.sections[section]
	if !ok {
		return Value{}, false
	}
	return s.Get(key)
}

// MarshalJSON encodes the document as a JSON object keyed by section name.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.sections)
}
