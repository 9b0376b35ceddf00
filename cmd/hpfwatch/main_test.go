package main

import (
	"strings"
	"testing"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/bus"
)

func TestFormatEvent(t *testing.T) {
	e := bus.Event{
		Type:      bus.EventItemStage,
		RunID:     "0123456789abcdef",
		Item:      "CO",
		Stage:     "screening",
		Timestamp: "2026-08-29T10:00:00Z",
	}

	line := formatEvent(e)
	for _, want := range []string{"item_stage", "run=01234567", "item=CO", "stage=screening"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestFormatEventFailure(t *testing.T) {
	e := bus.Event{
		Type:  bus.EventItemFailed,
		RunID: "r1",
		Item:  "NH3",
		Data:  map[string]any{"error": "screening diverged"},
	}

	line := formatEvent(e)
	if !strings.Contains(line, "error=screening diverged") {
		t.Errorf("line %q missing error detail", line)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("ab"); got != "ab" {
		t.Errorf("short input: got %q", got)
	}
	if got := shortID("0123456789"); got != "01234567" {
		t.Errorf("long input: got %q", got)
	}
}
