package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

type Run struct {
	ID          string     `json:"id"`
	BaseDir     string     `json:"base_dir"`
	Workers     int        `json:"workers"`
	Status      string     `json:"status"`
	Total       int        `json:"total"`
	OK          int        `json:"ok"`
	Failed      int        `json:"failed"`
	Report      string     `json:"report,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

const runColumns = `id, base_dir, workers, status, total, ok, failed, report, started_at, completed_at`

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	r := &Run{}
	var report *string
	err := scanner.Scan(&r.ID, &r.BaseDir, &r.Workers, &r.Status, &r.Total, &r.OK, &r.Failed, &report, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	if report != nil {
		r.Report = *report
	}
	return r, nil
}

// CreateRun records a new running batch.
func (l *Ledger) CreateRun(r *Run) error {
	_, err := l.db.Exec(`
		INSERT INTO runs (id, base_dir, workers, status, total)
		VALUES (?, ?, ?, 'running', ?)`,
		r.ID, r.BaseDir, r.Workers, r.Total)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// CompleteRun finalizes a run with its counts and rendered report.
func (l *Ledger) CompleteRun(id, status string, ok, failed int, report string) error {
	_, err := l.db.Exec(`
		UPDATE runs SET status = ?, ok = ?, failed = ?, report = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		status, ok, failed, report, id)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

func (l *Ledger) GetRun(id string) (*Run, error) {
	row := l.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recently started run, or nil if none exist.
func (l *Ledger) LatestRun() (*Run, error) {
	row := l.db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

func (l *Ledger) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}
