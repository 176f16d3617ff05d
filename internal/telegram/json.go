package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DocumentFromJSON decodes a document previously encoded with MarshalJSON,
// or produced by another parser of the same format.
//
// The input must be a JSON object whose members are arrays or objects of
// scalars. Strings go through Decode, so RFC 3339 date-times and numbers
// with unit suffixes regain their types; whole-number floats come back as
// integers. Empty sections are rejected with
// ErrEmptySection, any other shape with ErrInvalidDocument.
func DocumentFromJSON(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidDocument)
	}

	doc := &Document{sections: make(map[string]Section, len(raw))}
	for name, body := range raw {
		section, err := sectionFromJSON(body)
		if err != nil {
			return nil, &ParseError{Section: name, Err: err}
		}
		doc.sections[name] = section
	}
	return doc, nil
}

func sectionFromJSON(body json.RawMessage) (Section, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Section{}, ErrInvalidDocument
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return Section{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		if len(elems) == 0 {
			return Section{}, ErrEmptySection
		}
		items := make([]Value, 0, len(elems))
		for _, e := range elems {
			v, err := valueFromJSON(e)
			if err != nil {
				return Section{}, err
			}
			items = append(items, v)
		}
		return Section{form: FormArray, items: items}, nil

	case '{':
		var members map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &members); err != nil {
			return Section{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		if len(members) == 0 {
			return Section{}, ErrEmptySection
		}
		fields := make(map[string]Value, len(members))
		for k, m := range members {
			v, err := valueFromJSON(m)
			if err != nil {
				return Section{}, fmt.Errorf("key %q: %w", k, err)
			}
			fields[k] = v
		}
		return Section{form: FormObject, fields: fields}, nil

	default:
		return Section{}, fmt.Errorf("%w: section must be an array or object", ErrInvalidDocument)
	}
}

func valueFromJSON(raw json.RawMessage) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	switch x := v.(type) {
	case bool:
		return Value{kind: KindBool, raw: string(bytes.TrimSpace(raw)), b: x}, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Value{kind: KindInt, raw: x.String(), i: i}, nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		return Value{kind: KindFloat, raw: x.String(), f: f}, nil
	case string:
		return Decode(x), nil
	default:
		return Value{}, fmt.Errorf("%w: values must be scalars, got %s", ErrInvalidDocument, bytes.TrimSpace(raw))
	}
}
