// Package telegram parses the energy sensor event telegram format.
//
// A telegram is a single line of text made of named sections. Each section
// is introduced by "name:" and carries either a list of values or a set of
// key=value pairs, both terminated by semicolons:
//
//	Device: ID=42; Fw=3; Datetime: 2016-10-4 16:47:50; Peaks: 10.5459; 10.5; 10.553;
//
// parses into three sections: "Device" (object form), "Datetime" and "Peaks"
// (array form).
//
// # Grammar
//
// The parser is a single forward pass over the input. For every section
// header it first probes for an array body and, when that yields no
// elements, reads key=value pairs instead. A section is committed in exactly
// one of the two forms. Text before the first header or after the last
// complete section (an orphan "Dead=Beef", a bare "A; B;") is discarded.
//
// # Scalar decoding
//
// Every value is decoded into the most specific type that fits, in order:
// "on"/"off" booleans, integers, floats, date-times and finally the raw
// string. Numbers may carry a directly attached unit suffix (v, var, va, w,
// rad) which is dropped; a comma is accepted as decimal separator:
//
//	Decode("120var")  // Integer 120
//	Decode("-0,04rad") // Float -0.04
//	Decode("OFF")     // Boolean false
//
// # Errors
//
// Parse fails as a whole, never returning a partial document:
//   - ErrEmptySection: a header was found but no elements or pairs follow it
//   - ErrMalformedValue: a key=value value runs into a ':' delimiter
//
// Both are reported as *ParseError carrying the section name and offset.
//
// # Concurrency
//
// Parse and Decode are pure functions over immutable input and are safe for
// concurrent use. Documents are read-only once returned.
package telegram
