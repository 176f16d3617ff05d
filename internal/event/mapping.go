package event

import (
	"fmt"
	"time"

	"github.com/hstefan/energy-sensors/internal/telegram"
)

// Section and key names read by FromDocument.
const (
	SectionDevice   = "Device"
	SectionDatetime = "Datetime"
	SectionAlarms   = "Alarms"
	SectionPower    = "Power"
	SectionLine     = "Line"
	SectionPeaks    = "Peaks"
	SectionFFTRe    = "FFT Re"
	SectionFFTImg   = "FFT Img"
	SectionHz       = "hz"
	SectionWiFi     = "WiFi Strength"
	SectionDummy    = "Dummy"
)

// FromDocument maps a parsed telegram onto a Record. ID and LoggedAt are
// left zero for the repository to fill in.
//
// FFT Re and FFT Img are zipped pairwise; extra bins on the longer side
// are dropped.
//
// Returns a *FieldError wrapping ErrMissingField or ErrWrongType for the
// first path that cannot be read.
func FromDocument(doc *telegram.Document) (Record, error) {
	m := mapper{doc: doc}

	rec := Record{
		DeviceID:       m.integer(SectionDevice, "ID"),
		DeviceFirmware: m.integer(SectionDevice, "Fw"),
		ReportedAt:     m.timeAt(SectionDatetime, 0),
		CoilReversed:   m.boolean(SectionAlarms, "CoilReversed"),

		PowerActiveW:     m.number(SectionPower, "Active"),
		PowerReactiveVAR: m.number(SectionPower, "Reactive"),
		PowerApparentVA:  m.number(SectionPower, "Apparent"),

		LineCurrentA: m.number(SectionLine, "Current"),
		LineVoltageV: m.number(SectionLine, "Voltage"),
		LinePhaseRad: m.number(SectionLine, "Phase"),

		LineFrequencyHz: m.numberAt(SectionHz, 0),
		CurrentPeaks:    m.numbers(SectionPeaks),
		WiFiStrengthDBM: m.numberAt(SectionWiFi, 0),
		DummyData:       m.integerAt(SectionDummy, 0),
	}

	re := m.numbers(SectionFFTRe)
	im := m.numbers(SectionFFTImg)
	n := min(len(re), len(im))
	rec.FFTHarmonics = make(Harmonics, n)
	for i := range n {
		rec.FFTHarmonics[i] = complex(re[i], im[i])
	}

	if m.err != nil {
		return Record{}, m.err
	}
	return rec, nil
}

// mapper reads typed values from a document and keeps the first error.
// Once an error is recorded every read returns a zero value.
type mapper struct {
	doc *telegram.Document
	err error
}

func (m *mapper) fail(path, want string, cause error) {
	if m.err == nil {
		m.err = &FieldError{Path: path, Want: want, Err: cause}
	}
}

func (m *mapper) field(section, key, want string) (telegram.Value, bool) {
	if m.err != nil {
		return telegram.Value{}, false
	}
	v, ok := m.doc.Lookup(section, key)
	if !ok {
		m.fail(section+"."+key, want, ErrMissingField)
	}
	return v, ok
}

func (m *mapper) item(section string, i int, want string) (telegram.Value, bool) {
	if m.err != nil {
		return telegram.Value{}, false
	}
	path := fmt.Sprintf("%s[%d]", section, i)
	s, ok := m.doc.Section(section)
	if !ok {
		m.fail(path, want, ErrMissingField)
		return telegram.Value{}, false
	}
	v, ok := s.Item(i)
	if !ok {
		m.fail(path, want, ErrMissingField)
	}
	return v, ok
}

func (m *mapper) integer(section, key string) int64 {
	v, ok := m.field(section, key, "integer")
	if !ok {
		return 0
	}
	n, ok := v.AsInt()
	if !ok {
		m.fail(section+"."+key, "integer", ErrWrongType)
	}
	return n
}

func (m *mapper) integerAt(section string, i int) int64 {
	v, ok := m.item(section, i, "integer")
	if !ok {
		return 0
	}
	n, ok := v.AsInt()
	if !ok {
		m.fail(fmt.Sprintf("%s[%d]", section, i), "integer", ErrWrongType)
	}
	return n
}

func (m *mapper) boolean(section, key string) bool {
	v, ok := m.field(section, key, "boolean")
	if !ok {
		return false
	}
	b, ok := v.AsBool()
	if !ok {
		m.fail(section+"."+key, "boolean", ErrWrongType)
	}
	return b
}

func (m *mapper) number(section, key string) float64 {
	v, ok := m.field(section, key, "number")
	if !ok {
		return 0
	}
	f, ok := v.AsNumber()
	if !ok {
		m.fail(section+"."+key, "number", ErrWrongType)
	}
	return f
}

func (m *mapper) numberAt(section string, i int) float64 {
	v, ok := m.item(section, i, "number")
	if !ok {
		return 0
	}
	f, ok := v.AsNumber()
	if !ok {
		m.fail(fmt.Sprintf("%s[%d]", section, i), "number", ErrWrongType)
	}
	return f
}

func (m *mapper) timeAt(section string, i int) time.Time {
	v, ok := m.item(section, i, "datetime")
	if !ok {
		return time.Time{}
	}
	t, ok := v.AsTime()
	if !ok {
		m.fail(fmt.Sprintf("%s[%d]", section, i), "datetime", ErrWrongType)
	}
	return t.UTC()
}

// numbers reads every element of an array section.
func (m *mapper) numbers(section string) []float64 {
	if m.err != nil {
		return nil
	}
	s, ok := m.doc.Section(section)
	if !ok || s.Form() != telegram.FormArray {
		m.fail(section+"[0]", "number", ErrMissingField)
		return nil
	}
	items := s.Items()
	out := make([]float64, len(items))
	for i, v := range items {
		f, ok := v.AsNumber()
		if !ok {
			m.fail(fmt.Sprintf("%s[%d]", section, i), "number", ErrWrongType)
			return nil
		}
		out[i] = f
	}
	return out
}
