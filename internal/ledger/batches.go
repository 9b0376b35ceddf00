package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// Batch is a scheduled batch definition: which adsorbates to run and when.
type Batch struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Adsorbates []string   `json:"adsorbates"`
	Status     string     `json:"status"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

func (l *Ledger) SaveBatch(b *Batch) error {
	adsorbates, err := json.Marshal(b.Adsorbates)
	if err != nil {
		return fmt.Errorf("marshal adsorbates: %w", err)
	}

	_, err = l.db.Exec(`
		INSERT INTO batches (id, name, schedule, adsorbates, status, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			schedule = excluded.schedule, adsorbates = excluded.adsorbates,
			status = excluded.status, next_run_at = excluded.next_run_at`,
		b.ID, b.Name, b.Schedule, string(adsorbates), b.Status, b.NextRunAt)
	if err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

// DueBatches returns active batches whose next run time has passed.
func (l *Ledger) DueBatches(now time.Time) ([]Batch, error) {
	rows, err := l.db.Query(`
		SELECT id, name, schedule, adsorbates, status, next_run_at, last_run_at, last_status, last_error
		FROM batches
		WHERE status = 'active' AND next_run_at IS NOT NULL AND next_run_at <= ?
		ORDER BY next_run_at`, now)
	if err != nil {
		return nil, fmt.Errorf("due batches: %w", err)
	}
	defer rows.Close()
	return collectBatches(rows)
}

func (l *Ledger) ListBatches() ([]Batch, error) {
	rows, err := l.db.Query(`
		SELECT id, name, schedule, adsorbates, status, next_run_at, last_run_at, last_status, last_error
		FROM batches ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	return collectBatches(rows)
}

// UpdateBatchRun records one execution of a scheduled batch and its next due
// time; a nil nextRun marks a one-off batch completed.
func (l *Ledger) UpdateBatchRun(id, lastStatus, lastError string, nextRun *time.Time) error {
	status := "active"
	if nextRun == nil {
		status = "completed"
	}
	_, err := l.db.Exec(`
		UPDATE batches SET last_run_at = CURRENT_TIMESTAMP, last_status = ?, last_error = ?,
			next_run_at = ?, status = ?
		WHERE id = ?`,
		lastStatus, lastError, nextRun, status, id)
	if err != nil {
		return fmt.Errorf("update batch run: %w", err)
	}
	return nil
}

func collectBatches(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Batch, error) {
	var batches []Batch
	for rows.Next() {
		var b Batch
		var adsorbates string
		var lastStatus, lastError *string
		if err := rows.Scan(&b.ID, &b.Name, &b.Schedule, &adsorbates, &b.Status, &b.NextRunAt, &b.LastRunAt, &lastStatus, &lastError); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if err := json.Unmarshal([]byte(adsorbates), &b.Adsorbates); err != nil {
			return nil, fmt.Errorf("parse adsorbates for %s: %w", b.Name, err)
		}
		if lastStatus != nil {
			b.LastStatus = *lastStatus
		}
		if lastError != nil {
			b.LastError = *lastError
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
