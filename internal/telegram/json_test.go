package telegram

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDocumentMarshalJSON(t *testing.T) {
	doc, err := Parse("Foo: 1; 2.5; on; Bar: Baz=Qux; Datetime: 2016-10-4 16:47:50;")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"Bar":{"Baz":"Qux"},"Datetime":["2016-10-04T16:47:50Z"],"Foo":[1,2.5,true]}`
	if string(got) != want {
		t.Errorf("json.Marshal() = %s, want %s", got, want)
	}
}

func TestDocumentFromJSONRoundTrip(t *testing.T) {
	doc, err := Parse(sampleTelegram)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	back, err := DocumentFromJSON(data)
	if err != nil {
		t.Fatalf("DocumentFromJSON() error = %v", err)
	}
	if back.Len() != doc.Len() {
		t.Fatalf("Len() = %d, want %d", back.Len(), doc.Len())
	}

	for _, name := range doc.Names() {
		orig, _ := doc.Section(name)
		got, ok := back.Section(name)
		if !ok {
			t.Errorf("section %q missing after round trip", name)
			continue
		}
		if got.Form() != orig.Form() || got.Len() != orig.Len() {
			t.Errorf("section %q = %s/%d, want %s/%d", name, got.Form(), got.Len(), orig.Form(), orig.Len())
		}
	}

	if v, _ := back.Lookup("Device", "ID"); !v.Equal(IntValue(42)) {
		t.Errorf("Device.ID = %s %q, want integer 42", v.Kind(), v.Raw())
	}
	if v, _ := back.Lookup("Alarms", "CoilReversed"); !v.Equal(BoolValue(false)) {
		t.Errorf("Alarms.CoilReversed = %s %q, want false", v.Kind(), v.Raw())
	}
	dt, _ := back.Section("Datetime")
	if v, _ := dt.Item(0); v.Kind() != KindDateTime {
		t.Errorf("Datetime[0] kind = %s, want datetime", v.Kind())
	}
}

func TestDocumentFromJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "not json", input: "Device: ID=1;", wantErr: ErrInvalidDocument},
		{name: "top-level array", input: `[1,2]`, wantErr: ErrInvalidDocument},
		{name: "null", input: `null`, wantErr: ErrInvalidDocument},
		{name: "scalar section", input: `{"Foo": 1}`, wantErr: ErrInvalidDocument},
		{name: "nested object", input: `{"Foo": {"Bar": {"x": 1}}}`, wantErr: ErrInvalidDocument},
		{name: "nested array", input: `{"Foo": [[1]]}`, wantErr: ErrInvalidDocument},
		{name: "null value", input: `{"Foo": [null]}`, wantErr: ErrInvalidDocument},
		{name: "empty array", input: `{"Foo": []}`, wantErr: ErrEmptySection},
		{name: "empty object", input: `{"Foo": {}}`, wantErr: ErrEmptySection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DocumentFromJSON([]byte(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DocumentFromJSON(%s) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if doc != nil {
				t.Error("DocumentFromJSON() returned a document on error")
			}
		})
	}
}

func TestDocumentFromJSONValues(t *testing.T) {
	doc, err := DocumentFromJSON([]byte(`{"Power": {"Active": 1753, "Phase": -0.04, "Unit": "12.5w", "On": true, "Name": "meter"}}`))
	if err != nil {
		t.Fatalf("DocumentFromJSON() error = %v", err)
	}

	tests := []struct {
		key  string
		want Value
	}{
		{"Active", IntValue(1753)},
		{"Phase", FloatValue(-0.04)},
		{"Unit", FloatValue(12.5)},
		{"On", BoolValue(true)},
		{"Name", StringValue("meter")},
	}
	for _, tt := range tests {
		got, ok := doc.Lookup("Power", tt.key)
		if !ok {
			t.Errorf("Power.%s missing", tt.key)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Power.%s = %s %q, want %s %q", tt.key, got.Kind(), got.Raw(), tt.want.Kind(), tt.want.Raw())
		}
	}
}

func TestNewDocumentDropsEmptySections(t *testing.T) {
	doc := NewDocument(map[string]Section{
		"Foo":  ArraySection(IntValue(1)),
		"Bar":  ObjectSection(map[string]Value{"A": StringValue("b")}),
		"None": {},
	})
	if doc.Len() != 2 {
		t.Errorf("Len() = %d, want 2", doc.Len())
	}
	if _, ok := doc.Section("None"); ok {
		t.Error("FormNone section should be dropped")
	}
}
