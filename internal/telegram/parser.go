package telegram

import (
	"strings"
	"unicode"
)

// Parse converts a raw telegram into a Document.
//
// Sections are read until no further header can be found; anything left
// over is discarded without error, so input with no header at all yields an
// empty document. A header followed by no content fails the whole parse
// with ErrEmptySection, and a key=value value containing ':' fails it with
// ErrMalformedValue. No partial document is returned on error.
//
// A later section with the same name replaces an earlier one.
func Parse(input string) (*Document, error) {
	doc := &Document{sections: make(map[string]Section)}

	pos := 0
	for pos < len(input) {
		name, next, ok := readHeader(input, pos)
		if !ok {
			break
		}

		body, end, err := readBody(input, next)
		if err != nil {
			return nil, &ParseError{Section: name, Offset: end, Err: err}
		}
		if body.form == FormNone {
			return nil, &ParseError{Section: name, Offset: next, Err: ErrEmptySection}
		}

		doc.sections[name] = body
		pos = end
	}

	return doc, nil
}

// readHeader reads a section header "name:" starting at pos.
//
// A ';' before the ':' or the end of input means there is no header, as does
// an empty name. On failure pos is returned unchanged.
func readHeader(input string, pos int) (name string, next int, ok bool) {
	start := skipSpaces(input, pos)
	text, end, stop := scan(input, start, ":;")
	if stop != sectionDelim {
		return "", pos, false
	}
	name = strings.TrimSpace(text)
	if name == "" {
		return "", pos, false
	}
	return name, end + 1, true
}

// readBody probes the body following a header: array form first, then
// object form. It returns a FormNone section when neither produced content.
//
// On error the returned offset points at the offending byte.
func readBody(input string, pos int) (Section, int, error) {
	if items, end := readArray(input, pos); len(items) > 0 {
		return Section{form: FormArray, items: items}, end, nil
	}

	fields, end, err := readPairs(input, pos)
	if err != nil {
		return Section{}, end, err
	}
	if len(fields) > 0 {
		return Section{form: FormObject, fields: fields}, end, nil
	}

	return Section{}, pos, nil
}

// readArray reads ';'-terminated elements starting at pos.
//
// The probe stops at '=' (the body is key=value form) and, once an element
// has been read, at ':' (the next section's header). The final element may
// end at end of input instead of ';'; blank text there adds nothing. The
// returned offset is just past the last complete element.
func readArray(input string, pos int) ([]Value, int) {
	var items []Value

	end := skipSpaces(input, pos)
	stops := "=;"
	for end < len(input) {
		text, stopAt, stop := scan(input, end, stops)
		switch stop {
		case elementDelim:
			items = append(items, Decode(text))
			end = stopAt + 1
			stops = "=;:"
		case eof:
			if strings.TrimSpace(text) != "" {
				items = append(items, Decode(text))
				end = len(input)
			}
			return items, end
		default: // '=' or ':'
			return items, end
		}
	}

	return items, end
}

// readPairs reads key=value pairs starting at pos until one fails to read.
func readPairs(input string, pos int) (map[string]Value, int, error) {
	var fields map[string]Value

	end := pos
	for end < len(input) {
		key, value, next, err := readPair(input, end)
		if err != nil {
			return nil, next, err
		}
		if key == "" {
			break
		}
		if fields == nil {
			fields = make(map[string]Value)
		}
		fields[key] = value
		end = next
	}

	return fields, end, nil
}

// readPair reads a single "key=value" pair starting at pos.
//
// The key is the text before the first '=' and must not cross a ':'. The
// value ends at ';' or end of input. An empty key or value means no pair
// starts at pos; key is then "" and pos is returned. A ':' inside the value
// is ErrMalformedValue, with next pointing at the ':'.
func readPair(input string, pos int) (key string, value Value, next int, err error) {
	start := skipSpaces(input, pos)
	keyText, eq, stop := scan(input, start, "=:")
	if stop != pairDelim {
		return "", Value{}, pos, nil
	}
	key = strings.TrimLeftFunc(keyText, unicode.IsSpace)
	if key == "" {
		return "", Value{}, pos, nil
	}

	valStart := skipSpaces(input, eq+1)
	valText, end, stop := scan(input, valStart, ":;")
	if stop == sectionDelim {
		return "", Value{}, end, ErrMalformedValue
	}

	raw := strings.TrimSpace(valText)
	if raw == "" {
		return "", Value{}, pos, nil
	}

	next = end
	if stop == elementDelim {
		next = end + 1
	}
	return key, Decode(raw), next, nil
}
