package bus

import (
	"fmt"
	"time"
)

// Event types emitted over a run's topic.
const (
	EventRunStarted    = "run_started"
	EventItemStarted   = "item_started"
	EventItemStage     = "item_stage"
	EventItemCompleted = "item_completed"
	EventItemFailed    = "item_failed"
	EventRunCompleted  = "run_completed"
)

// Event is one progress notification for a batch run.
type Event struct {
	Type      string         `json:"type"`
	RunID     string         `json:"run_id"`
	Item      string         `json:"item,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

func TopicRunEvents(runID string) string {
	return fmt.Sprintf("runs.%s.events", runID)
}

// TopicRunsAll matches every run's event stream.
const TopicRunsAll = "runs.>"

// Publisher emits events for one run. A nil Publisher drops everything, so
// callers never need to guard for the bus being disabled.
type Publisher struct {
	client *Client
	runID  string
}

func NewPublisher(client *Client, runID string) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{client: client, runID: runID}
}

func (p *Publisher) Emit(eventType, item, stage string, data map[string]any) {
	if p == nil {
		return
	}
	event := Event{
		Type:      eventType,
		RunID:     p.runID,
		Item:      item,
		Stage:     stage,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	_ = p.client.PublishJSON(TopicRunEvents(p.runID), event)
}
