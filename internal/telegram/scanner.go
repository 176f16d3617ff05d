package telegram

import "strings"

// Delimiters of the telegram format. All are single ASCII bytes, so the
// scanner works on byte offsets and never splits a multi-byte rune.
const (
	sectionDelim = ':'
	elementDelim = ';'
	pairDelim    = '='
)

// eof is the stop byte reported by scan when the input runs out.
const eof byte = 0

// skipSpaces advances pos past literal space characters. Tabs and newlines
// are not skipped.
func skipSpaces(input string, pos int) int {
	for pos < len(input) && input[pos] == ' ' {
		pos++
	}
	return pos
}

// scan reads forward from pos until the first byte contained in stops.
//
// Returns the text between pos and the stop, the offset of the stop byte
// (len(input) when none was found) and the stop byte itself, or eof when the
// input ran out first.
func scan(input string, pos int, stops string) (text string, end int, stop byte) {
	if pos >= len(input) {
		return "", len(input), eof
	}
	i := strings.IndexAny(input[pos:], stops)
	if i < 0 {
		return input[pos:], len(input), eof
	}
	end = pos + i
	return input[pos:end], end, input[end]
}
