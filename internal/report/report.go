// Package report summarizes a finished batch: per-item status, failure
// reasons, and the wall-time distribution of each pipeline stage.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/pipeline"
)

type Summary struct {
	Total  int
	OK     int
	Failed int

	// Failures maps item name to the fault that sank it.
	Failures map[string]string
	// Barriers maps item name to its two barrier heights in eV.
	Barriers map[string][2]float64

	stageHists map[string]*hdrhistogram.Histogram
	stageOrder []string
}

// Build folds dispatch outcomes into a summary. Stage durations are recorded
// in milliseconds; anything past an hour saturates the histogram rather than
// erroring.
func Build(outcomes []pipeline.Outcome) *Summary {
	s := &Summary{
		Failures:   make(map[string]string),
		Barriers:   make(map[string][2]float64),
		stageHists: make(map[string]*hdrhistogram.Histogram),
	}

	for _, o := range outcomes {
		s.Total++
		if o.Result == nil {
			s.Failed++
			if o.Err != nil {
				s.Failures[o.Item] = o.Err.Error()
			} else {
				s.Failures[o.Item] = "unknown failure"
			}
		} else {
			s.OK++
			s.Barriers[o.Item] = [2]float64{o.Result.Translation.BarrierEV, o.Result.Rotation.BarrierEV}
		}

		for _, st := range o.Stages {
			h, ok := s.stageHists[st.Stage]
			if !ok {
				h = hdrhistogram.New(1, time.Hour.Milliseconds(), 3)
				s.stageHists[st.Stage] = h
				s.stageOrder = append(s.stageOrder, st.Stage)
			}
			ms := st.Duration.Milliseconds()
			if ms < 1 {
				ms = 1
			}
			if ms > time.Hour.Milliseconds() {
				ms = time.Hour.Milliseconds()
			}
			_ = h.RecordValue(ms)
		}
	}

	return s
}

// StageStats returns the recorded count, p50, p90, and max for a stage in
// milliseconds; ok is false when the stage never ran.
func (s *Summary) StageStats(stage string) (count int64, p50, p90, max int64, ok bool) {
	h, found := s.stageHists[stage]
	if !found {
		return 0, 0, 0, 0, false
	}
	return h.TotalCount(), h.ValueAtQuantile(50), h.ValueAtQuantile(90), h.Max(), true
}

// Render produces the human-readable batch report.
func (s *Summary) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Batch summary: %d total, %d ok, %d failed\n", s.Total, s.OK, s.Failed)

	if len(s.Barriers) > 0 {
		sb.WriteString("\nBarriers (eV):\n")
		items := make([]string, 0, len(s.Barriers))
		for item := range s.Barriers {
			items = append(items, item)
		}
		sort.Strings(items)
		for _, item := range items {
			b := s.Barriers[item]
			fmt.Fprintf(&sb, "  %-8s translation=%.3f rotation=%.3f\n", item, b[0], b[1])
		}
	}

	if len(s.Failures) > 0 {
		sb.WriteString("\nFailed items:\n")
		items := make([]string, 0, len(s.Failures))
		for item := range s.Failures {
			items = append(items, item)
		}
		sort.Strings(items)
		for _, item := range items {
			fmt.Fprintf(&sb, "  %-8s %s\n", item, s.Failures[item])
		}
	}

	if len(s.stageOrder) > 0 {
		sb.WriteString("\nStage wall time (ms, p50/p90/max):\n")
		for _, stage := range s.stageOrder {
			h := s.stageHists[stage]
			fmt.Fprintf(&sb, "  %-22s %6d / %6d / %6d\n",
				stage, h.ValueAtQuantile(50), h.ValueAtQuantile(90), h.Max())
		}
	}

	return sb.String()
}
