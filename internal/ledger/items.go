package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/pipeline"
)

type RunItem struct {
	RunID       string          `json:"run_id"`
	Item        string          `json:"item"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
	BestSite    string          `json:"best_site,omitempty"`
	Barriers    json.RawMessage `json:"barriers,omitempty"`
	Stages      json.RawMessage `json:"stages,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}

// RecordOutcome stores one pipeline outcome under its run. Duplicate item
// names within a run overwrite, matching the batch result map.
func (l *Ledger) RecordOutcome(runID string, o pipeline.Outcome) error {
	status := "ok"
	errMsg := ""
	bestSite := ""
	var barriers []byte

	if o.Result == nil {
		status = "failed"
		if o.Err != nil {
			errMsg = o.Err.Error()
		}
	} else {
		bestSite = o.Result.BestSite.ID
		barriers, _ = json.Marshal(map[string]any{
			"translation": o.Result.Translation,
			"rotation":    o.Result.Rotation,
		})
	}

	stages, _ := json.Marshal(o.Stages)

	_, err := l.db.Exec(`
		INSERT INTO run_items (run_id, item, status, error, best_site, barriers, stages)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, item) DO UPDATE SET
			status = excluded.status, error = excluded.error,
			best_site = excluded.best_site, barriers = excluded.barriers,
			stages = excluded.stages, completed_at = CURRENT_TIMESTAMP`,
		runID, o.Item, status, errMsg, bestSite, string(barriers), string(stages))
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

func (l *Ledger) GetRunItems(runID string) ([]RunItem, error) {
	rows, err := l.db.Query(`
		SELECT run_id, item, status, error, best_site, barriers, stages, completed_at
		FROM run_items WHERE run_id = ? ORDER BY item`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run items: %w", err)
	}
	defer rows.Close()

	var items []RunItem
	for rows.Next() {
		var it RunItem
		var errMsg, bestSite, barriers, stages *string
		if err := rows.Scan(&it.RunID, &it.Item, &it.Status, &errMsg, &bestSite, &barriers, &stages, &it.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		if errMsg != nil {
			it.Error = *errMsg
		}
		if bestSite != nil {
			it.BestSite = *bestSite
		}
		if barriers != nil {
			it.Barriers = json.RawMessage(*barriers)
		}
		if stages != nil {
			it.Stages = json.RawMessage(*stages)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
