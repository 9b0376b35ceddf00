// Package sched runs scheduled batches: schedule definitions are JSON
// documents stored with each batch in the ledger, and a poll loop dispatches
// whatever has come due.
package sched

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// Schedule describes when a batch runs.
type Schedule struct {
	Kind       string `json:"kind"`        // "cron", "interval", "once"
	CronExpr   string `json:"cron_expr"`   // Cron expression (if kind=cron)
	IntervalMs int64  `json:"interval_ms"` // Interval in ms (if kind=interval)
	AtMs       int64  `json:"at_ms"`       // Unix ms timestamp (if kind=once)
}

func Parse(raw string) (*Schedule, error) {
	var s Schedule
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	switch s.Kind {
	case "cron":
		if !gronx.New().IsValid(s.CronExpr) {
			return nil, fmt.Errorf("invalid cron expression %q", s.CronExpr)
		}
	case "interval":
		if s.IntervalMs <= 0 {
			return nil, fmt.Errorf("interval must be positive, got %d", s.IntervalMs)
		}
	case "once":
		if s.AtMs <= 0 {
			return nil, fmt.Errorf("once schedule needs at_ms")
		}
	default:
		return nil, fmt.Errorf("unknown schedule kind %q", s.Kind)
	}
	return &s, nil
}

// NextRun computes when a schedule fires next, or nil when it never will
// (a one-off whose time has passed, or an unparseable definition).
func NextRun(scheduleJSON string) *time.Time {
	s, err := Parse(scheduleJSON)
	if err != nil {
		return nil
	}

	var next time.Time
	now := time.Now()

	switch s.Kind {
	case "cron":
		nextTime, err := gronx.NextTick(s.CronExpr, false)
		if err != nil {
			return nil
		}
		next = nextTime
	case "interval":
		next = now.Add(time.Duration(s.IntervalMs) * time.Millisecond)
	case "once":
		t := time.UnixMilli(s.AtMs)
		if !t.After(now) {
			return nil
		}
		next = t
	}

	return &next
}
