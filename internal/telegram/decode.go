package telegram

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// unitNumber matches a number with an optional, directly attached unit
// suffix. Group 1 is the numeric part.
var unitNumber = regexp.MustCompile(`(?i)^([+-]?\d+(?:[.,]\d+)?)(?:var|va|v|w|rad)?$`)

// floatSyntax restricts what is handed to strconv.ParseFloat so that words
// like "inf" or "NaN" and hex floats stay strings.
var floatSyntax = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?$`)

// dateTimeLayouts are tried in order by decodeDateTime. Single-digit layout
// elements accept both padded and unpadded input. Slash, dot and dash forms
// with the year last are day-first. Month names match in any case.
var dateTimeLayouts = append([]string{
	time.RFC3339Nano,
	"2006-1-2T15:04:05",
	"2006-1-2T15:04",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
}, withClock(
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
)...)

// clockLayouts are times of day without a date. They decode on the
// current UTC date.
var clockLayouts = []string{"15:04:05", "15:04"}

// now is replaced in tests.
var now = time.Now

// withClock expands each date layout with seconds, minutes and no time.
func withClock(dates ...string) []string {
	out := make([]string, 0, 3*len(dates))
	for _, d := range dates {
		out = append(out, d+" 15:04:05", d+" 15:04", d)
	}
	return out
}

// Decode converts raw value text into the most specific Value.
//
// The attempts run in priority order and the first success wins:
//  1. "on" / "off" (any case) as Boolean
//  2. base-10 integer, unit suffix stripped
//  3. float, unit suffix stripped, ',' read as decimal point
//  4. date-time in one of the accepted layouts
//  5. the trimmed text as String
//
// Decode never fails.
func Decode(raw string) Value {
	s := strings.TrimSpace(raw)

	if b, ok := decodeBool(s); ok {
		return Value{kind: KindBool, raw: s, b: b}
	}
	if i, ok := decodeInt(s); ok {
		return Value{kind: KindInt, raw: s, i: i}
	}
	if f, ok := decodeFloat(s); ok {
		return Value{kind: KindFloat, raw: s, f: f}
	}
	if t, ok := decodeDateTime(s); ok {
		return Value{kind: KindDateTime, raw: s, t: t}
	}
	return Value{kind: KindString, raw: s}
}

func decodeBool(s string) (bool, bool) {
	switch {
	case strings.EqualFold(s, "on"):
		return true, true
	case strings.EqualFold(s, "off"):
		return false, true
	default:
		return false, false
	}
}

// stripUnit returns the numeric part of s when s is a number with an
// optional unit suffix, and s unchanged otherwise.
func stripUnit(s string) string {
	if m := unitNumber.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func decodeInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(stripUnit(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func decodeFloat(s string) (float64, bool) {
	num := strings.ReplaceAll(stripUnit(s), ",", ".")
	if !floatSyntax.MatchString(num) {
		return 0, false
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func decodeDateTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := now().UTC().Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
