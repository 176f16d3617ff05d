package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one stored sensor event.
type Record struct {
	ID             int64     `json:"id"`
	LoggedAt       time.Time `json:"logged_at"`
	DeviceID       int64     `json:"device_id"`
	DeviceFirmware int64     `json:"device_fw"`
	ReportedAt     time.Time `json:"reported_at"`
	CoilReversed   bool      `json:"coil_reversed"`

	PowerActiveW     float64 `json:"power_active_w"`
	PowerReactiveVAR float64 `json:"power_reactive_var"`
	PowerApparentVA  float64 `json:"power_apparent_va"`

	LineCurrentA    float64 `json:"line_current_a"`
	LineVoltageV    float64 `json:"line_voltage_v"`
	LinePhaseRad    float64 `json:"line_phase_rad"`
	LineFrequencyHz float64 `json:"line_frequency_hz"`

	CurrentPeaks    Peaks     `json:"current_peaks"`
	FFTHarmonics    Harmonics `json:"fft_harmonics"`
	WiFiStrengthDBM float64   `json:"wifi_strength_dbm"`
	DummyData       int64     `json:"dummy_data"`
}

// Peaks holds the current peak samples of one event.
type Peaks []float64

// String renders the peaks as "10.5459;10.5;10.553".
func (p Peaks) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ";")
}

// ParsePeaks decodes the text form produced by Peaks.String.
func ParsePeaks(s string) (Peaks, error) {
	if s == "" {
		return Peaks{}, nil
	}
	parts := strings.Split(s, ";")
	p := make(Peaks, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: peak %d %q", ErrBadEncoding, i, part)
		}
		p[i] = v
	}
	return p, nil
}

// Harmonics holds FFT bins as complex numbers (real, imaginary).
type Harmonics []complex128

// String renders the bins as "1083,2131;778.12,184.69".
func (h Harmonics) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = formatFloat(real(c)) + "," + formatFloat(imag(c))
	}
	return strings.Join(parts, ";")
}

// MarshalJSON encodes the bins as [[re, im], ...].
func (h Harmonics) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(h))
	for i, c := range h {
		pairs[i] = [2]float64{real(c), imag(c)}
	}
	return json.Marshal(pairs)
}

// ParseHarmonics decodes the text form produced by Harmonics.String.
func ParseHarmonics(s string) (Harmonics, error) {
	if s == "" {
		return Harmonics{}, nil
	}
	parts := strings.Split(s, ";")
	h := make(Harmonics, len(parts))
	for i, part := range parts {
		re, im, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("%w: harmonic %d %q", ErrBadEncoding, i, part)
		}
		r, err := strconv.ParseFloat(re, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: harmonic %d %q", ErrBadEncoding, i, part)
		}
		m, err := strconv.ParseFloat(im, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: harmonic %d %q", ErrBadEncoding, i, part)
		}
		h[i] = complex(r, m)
	}
	return h, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
