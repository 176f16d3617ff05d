package clustering

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Run describes one clustering computation.
type Run struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	EventCount   int       `json:"event_count"`
	ClusterCount int       `json:"cluster_count"`
	OrphanCount  int       `json:"orphan_count"`
	Bandwidth    float64   `json:"bandwidth"`
}

// Assignment maps one event to its cluster label (or Orphan).
type Assignment struct {
	EventID int64
	Label   int
}

// Summary is the latest run and its clusters.
type Summary struct {
	Run      Run       `json:"run"`
	Clusters []Cluster `json:"clusters"`
}

// Repository persists clustering results.
type Repository interface {
	// Replace discards the previous clusters and assignments and stores
	// the new ones atomically. The run row is kept as history.
	Replace(ctx context.Context, run Run, clusters []Cluster, assignments []Assignment) error
	Summary(ctx context.Context) (*Summary, error)
	ClusterOf(ctx context.Context, eventID int64) (int, error)
}

// SQLiteRepository implements Repository on the cluster_runs, clusters
// and event_clusters tables.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an opened and migrated
// database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Replace purges old results and writes the new run in one transaction.
func (r *SQLiteRepository) Replace(ctx context.Context, run Run, clusters []Cluster, assignments []Assignment) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM event_clusters`); err != nil {
		return fmt.Errorf("purging assignments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM clusters`); err != nil {
		return fmt.Errorf("purging clusters: %w", err)
	}

	const insertRun = `INSERT INTO cluster_runs
		(id, started_at, finished_at, event_count, cluster_count, orphan_count, bandwidth)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err = tx.ExecContext(ctx, insertRun,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.EventCount, run.ClusterCount, run.OrphanCount, run.Bandwidth); err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	if err = insertClusters(ctx, tx, run.ID, clusters); err != nil {
		return err
	}
	if err = insertAssignments(ctx, tx, assignments); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	return nil
}

func insertClusters(ctx context.Context, tx *sql.Tx, runID string, clusters []Cluster) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO clusters
		(label, run_id, size, avg_power_active_w, avg_power_reactive_var, avg_power_apparent_va,
		avg_line_current_a, avg_line_voltage_v, center)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing cluster insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range clusters {
		center, err := json.Marshal(c.Center)
		if err != nil {
			return fmt.Errorf("encoding center of cluster %d: %w", c.Label, err)
		}
		if c.Center == nil {
			center = []byte("[]")
		}
		if _, err := stmt.ExecContext(ctx, c.Label, runID, c.Size,
			c.AvgPowerActiveW, c.AvgPowerReactiveVAR, c.AvgPowerApparentVA,
			c.AvgLineCurrentA, c.AvgLineVoltageV, string(center)); err != nil {
			return fmt.Errorf("inserting cluster %d: %w", c.Label, err)
		}
	}
	return nil
}

func insertAssignments(ctx context.Context, tx *sql.Tx, assignments []Assignment) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO event_clusters (event_id, label) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing assignment insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		if _, err := stmt.ExecContext(ctx, a.EventID, a.Label); err != nil {
			return fmt.Errorf("assigning event %d: %w", a.EventID, err)
		}
	}
	return nil
}

// Summary returns the most recently stored run with its clusters ordered
// by label, so an orphan group comes first.
func (r *SQLiteRepository) Summary(ctx context.Context) (*Summary, error) {
	const runQuery = `SELECT id, started_at, finished_at, event_count, cluster_count, orphan_count, bandwidth
		FROM cluster_runs ORDER BY rowid DESC LIMIT 1`

	var (
		s                     Summary
		startedAt, finishedAt string
	)
	err := r.db.QueryRowContext(ctx, runQuery).Scan(&s.Run.ID, &startedAt, &finishedAt,
		&s.Run.EventCount, &s.Run.ClusterCount, &s.Run.OrphanCount, &s.Run.Bandwidth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, fmt.Errorf("scanning latest run: %w", err)
	}
	s.Run.StartedAt = parseTime(startedAt)
	s.Run.FinishedAt = parseTime(finishedAt)

	const clusterQuery = `SELECT label, size, avg_power_active_w, avg_power_reactive_var,
		avg_power_apparent_va, avg_line_current_a, avg_line_voltage_v, center
		FROM clusters WHERE run_id = ? ORDER BY label`
	rows, err := r.db.QueryContext(ctx, clusterQuery, s.Run.ID)
	if err != nil {
		return nil, fmt.Errorf("querying clusters: %w", err)
	}
	defer rows.Close()

	s.Clusters = []Cluster{}
	for rows.Next() {
		var (
			c      Cluster
			center string
		)
		if err := rows.Scan(&c.Label, &c.Size, &c.AvgPowerActiveW, &c.AvgPowerReactiveVAR,
			&c.AvgPowerApparentVA, &c.AvgLineCurrentA, &c.AvgLineVoltageV, &center); err != nil {
			return nil, fmt.Errorf("scanning cluster row: %w", err)
		}
		if err := json.Unmarshal([]byte(center), &c.Center); err != nil {
			return nil, fmt.Errorf("decoding center of cluster %d: %w", c.Label, err)
		}
		s.Clusters = append(s.Clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clusters: %w", err)
	}
	return &s, nil
}

// ClusterOf returns the label assigned to an event by the latest run.
func (r *SQLiteRepository) ClusterOf(ctx context.Context, eventID int64) (int, error) {
	var label int
	err := r.db.QueryRowContext(ctx, `SELECT label FROM event_clusters WHERE event_id = ?`, eventID).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotClustered
	}
	if err != nil {
		return 0, fmt.Errorf("looking up cluster of event %d: %w", eventID, err)
	}
	return label, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime returns the zero time for malformed values; rows are only
// written by formatTime.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
