package telegram

import "testing"

func TestSkipSpaces(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   int
		want  int
	}{
		{name: "no spaces", input: "abc", pos: 0, want: 0},
		{name: "leading spaces", input: "   abc", pos: 0, want: 3},
		{name: "from middle", input: "a  b", pos: 1, want: 3},
		{name: "tabs are not skipped", input: "\tabc", pos: 0, want: 0},
		{name: "all spaces", input: "   ", pos: 0, want: 3},
		{name: "at end", input: "ab", pos: 2, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := skipSpaces(tt.input, tt.pos); got != tt.want {
				t.Errorf("skipSpaces(%q, %d) = %d, want %d", tt.input, tt.pos, got, tt.want)
			}
		})
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pos      int
		stops    string
		wantText string
		wantEnd  int
		wantStop byte
	}{
		{name: "first stop", input: "Foo: 1;", pos: 0, stops: ":;", wantText: "Foo", wantEnd: 3, wantStop: ':'},
		{name: "earliest of several", input: "a;b:c", pos: 0, stops: ":;", wantText: "a", wantEnd: 1, wantStop: ';'},
		{name: "from offset", input: "a;b:c", pos: 2, stops: ":;", wantText: "b", wantEnd: 3, wantStop: ':'},
		{name: "end of input", input: "abc", pos: 0, stops: ":;", wantText: "abc", wantEnd: 3, wantStop: eof},
		{name: "past end", input: "abc", pos: 5, stops: ":;", wantText: "", wantEnd: 3, wantStop: eof},
		{name: "stop at pos", input: ";x", pos: 0, stops: ";", wantText: "", wantEnd: 0, wantStop: ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, end, stop := scan(tt.input, tt.pos, tt.stops)
			if text != tt.wantText || end != tt.wantEnd || stop != tt.wantStop {
				t.Errorf("scan(%q, %d, %q) = (%q, %d, %q), want (%q, %d, %q)",
					tt.input, tt.pos, tt.stops, text, end, stop, tt.wantText, tt.wantEnd, tt.wantStop)
			}
		})
	}
}

func TestReadHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pos      int
		wantName string
		wantNext int
		wantOK   bool
	}{
		{name: "simple", input: "Foo: 1;", wantName: "Foo", wantNext: 4, wantOK: true},
		{name: "leading spaces trimmed", input: "  Foo :1", wantName: "Foo", wantNext: 7, wantOK: true},
		{name: "name with spaces", input: "WiFi Strength: -62", wantName: "WiFi Strength", wantNext: 14, wantOK: true},
		{name: "semicolon first", input: "A; B: 1", wantOK: false},
		{name: "no colon", input: "Dead=Beef", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "empty name", input: " : 1;", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, next, ok := readHeader(tt.input, tt.pos)
			if ok != tt.wantOK {
				t.Fatalf("readHeader(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				if next != tt.pos {
					t.Errorf("readHeader(%q) moved position to %d on failure", tt.input, next)
				}
				return
			}
			if name != tt.wantName || next != tt.wantNext {
				t.Errorf("readHeader(%q) = (%q, %d), want (%q, %d)", tt.input, name, next, tt.wantName, tt.wantNext)
			}
		})
	}
}

func TestReadArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     []string
		wantNext int
	}{
		{name: "three elements", input: " 1; 2; 3;", want: []string{"1", "2", "3"}, wantNext: 9},
		{name: "final element without semicolon", input: " A; B", want: []string{"A", "B"}, wantNext: 5},
		{name: "stops at next header", input: " A; B; Bar: X;", want: []string{"A", "B"}, wantNext: 6},
		{name: "colon allowed in first element", input: " 2016-10-4 16:47:50; Next: 1", want: []string{"2016-10-4 16:47:50"}, wantNext: 20},
		{name: "equals means object form", input: " Bar=Baz;", want: nil, wantNext: 1},
		{name: "equals after elements", input: " A; B=C;", want: []string{"A"}, wantNext: 3},
		{name: "trailing spaces are not an element", input: " A;  ", want: []string{"A"}, wantNext: 3},
		{name: "empty", input: "", want: nil, wantNext: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, next := readArray(tt.input, 0)
			if len(items) != len(tt.want) {
				t.Fatalf("readArray(%q) returned %d items, want %d", tt.input, len(items), len(tt.want))
			}
			for i, w := range tt.want {
				if items[i].Raw() != w {
					t.Errorf("item[%d] = %q, want %q", i, items[i].Raw(), w)
				}
			}
			if next != tt.wantNext {
				t.Errorf("readArray(%q) next = %d, want %d", tt.input, next, tt.wantNext)
			}
		})
	}
}

func TestReadPair(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKey   string
		wantValue string
		wantNext  int
		wantErr   error
	}{
		{name: "simple", input: " Bar=Baz;", wantKey: "Bar", wantValue: "Baz", wantNext: 9},
		{name: "spaces after equals", input: "ID= 42;", wantKey: "ID", wantValue: "42", wantNext: 7},
		{name: "end of input", input: "Fw=3", wantKey: "Fw", wantValue: "3", wantNext: 4},
		{name: "colon before equals", input: " Baz: Attr=B;", wantKey: "", wantNext: 0},
		{name: "no equals", input: "B;C;", wantKey: "", wantNext: 0},
		{name: "empty value", input: "A=;", wantKey: "", wantNext: 0},
		{name: "empty key", input: "=1;", wantKey: "", wantNext: 0},
		{name: "colon in value", input: "Time=16:47;", wantNext: 7, wantErr: ErrMalformedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, next, err := readPair(tt.input, 0)
			if err != tt.wantErr {
				t.Fatalf("readPair(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if key != tt.wantKey {
				t.Errorf("readPair(%q) key = %q, want %q", tt.input, key, tt.wantKey)
			}
			if key != "" && value.Raw() != tt.wantValue {
				t.Errorf("readPair(%q) value = %q, want %q", tt.input, value.Raw(), tt.wantValue)
			}
			if next != tt.wantNext {
				t.Errorf("readPair(%q) next = %d, want %d", tt.input, next, tt.wantNext)
			}
		})
	}
}
