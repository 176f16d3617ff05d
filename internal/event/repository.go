package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository persists event records.
type Repository interface {
	// Store inserts rec and sets its ID (and LoggedAt when zero).
	Store(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id int64) (*Record, error)
	// List returns a page of events, newest first.
	List(ctx context.Context, limit, offset int) ([]Record, error)
	Count(ctx context.Context) (int64, error)
	// All returns every event in insertion order.
	All(ctx context.Context) ([]Record, error)
}

// SQLiteRepository implements Repository on the events table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an opened and migrated
// database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `SELECT id, logged_at, device_id, device_fw, reported_at, coil_reversed,
	power_active_w, power_reactive_var, power_apparent_va,
	line_current_a, line_voltage_v, line_phase_rad, line_frequency_hz,
	current_peaks, fft_harmonics, wifi_strength_dbm, dummy_data
	FROM events`

// Store inserts a new event.
func (r *SQLiteRepository) Store(ctx context.Context, rec *Record) error {
	if rec.LoggedAt.IsZero() {
		rec.LoggedAt = time.Now().UTC()
	}

	const query = `INSERT INTO events (logged_at, device_id, device_fw, reported_at, coil_reversed,
		power_active_w, power_reactive_var, power_apparent_va,
		line_current_a, line_voltage_v, line_phase_rad, line_frequency_hz,
		current_peaks, fft_harmonics, wifi_strength_dbm, dummy_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		formatTime(rec.LoggedAt), rec.DeviceID, rec.DeviceFirmware, formatTime(rec.ReportedAt),
		boolToInt(rec.CoilReversed),
		rec.PowerActiveW, rec.PowerReactiveVAR, rec.PowerApparentVA,
		rec.LineCurrentA, rec.LineVoltageV, rec.LinePhaseRad, rec.LineFrequencyHz,
		rec.CurrentPeaks.String(), rec.FFTHarmonics.String(), rec.WiFiStrengthDBM, rec.DummyData)
	if err != nil {
		return fmt.Errorf("inserting event for device %d: %w", rec.DeviceID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading event id: %w", err)
	}
	rec.ID = id
	return nil
}

// Get returns a single event by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Record, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning event %d: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit events starting at offset, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit, offset int) ([]Record, error) {
	return r.query(ctx, selectColumns+` ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
}

// Count returns the number of stored events.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

// All returns every stored event ordered by ID.
func (r *SQLiteRepository) All(ctx context.Context) ([]Record, error) {
	return r.query(ctx, selectColumns+` ORDER BY id`)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec                  Record
		loggedAt, reportedAt string
		coilReversed         int64
		peaks, harmonics     string
	)
	err := s.Scan(&rec.ID, &loggedAt, &rec.DeviceID, &rec.DeviceFirmware, &reportedAt, &coilReversed,
		&rec.PowerActiveW, &rec.PowerReactiveVAR, &rec.PowerApparentVA,
		&rec.LineCurrentA, &rec.LineVoltageV, &rec.LinePhaseRad, &rec.LineFrequencyHz,
		&peaks, &harmonics, &rec.WiFiStrengthDBM, &rec.DummyData)
	if err != nil {
		return nil, err
	}

	rec.CoilReversed = coilReversed != 0
	if rec.LoggedAt, err = parseTime(loggedAt); err != nil {
		return nil, err
	}
	if rec.ReportedAt, err = parseTime(reportedAt); err != nil {
		return nil, err
	}
	if rec.CurrentPeaks, err = ParsePeaks(peaks); err != nil {
		return nil, err
	}
	if rec.FFTHarmonics, err = ParseHarmonics(harmonics); err != nil {
		return nil, err
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrBadEncoding, s)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
