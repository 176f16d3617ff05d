// Package event maps parsed telegrams onto flat event records and
// persists them in SQLite.
//
// A telegram Document is free-form; FromDocument reads the fixed set of
// paths an energy sensor reports (Device.ID, Power.Active, Peaks[*] and so
// on) and fails with a *FieldError naming the first missing or mistyped
// path. Records are stored by SQLiteRepository in the events table.
package event
