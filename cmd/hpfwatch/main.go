// hpfwatch tails the run event stream of a running hpfneb service.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/bus"
)

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func formatEvent(e bus.Event) string {
	line := fmt.Sprintf("%s  %-14s  run=%s", e.Timestamp, e.Type, shortID(e.RunID))
	if e.Item != "" {
		line += "  item=" + e.Item
	}
	if e.Stage != "" {
		line += "  stage=" + e.Stage
	}
	switch e.Type {
	case bus.EventRunCompleted:
		if status, ok := e.Data["status"].(string); ok {
			line += "  status=" + status
		}
	case bus.EventItemFailed:
		if msg, ok := e.Data["error"].(string); ok {
			line += "  error=" + msg
		}
	}
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func main() {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	// Tail one run with an argument, or everything without.
	topic := bus.TopicRunsAll
	if len(os.Args) > 1 {
		topic = bus.TopicRunEvents(os.Args[1])
	}

	client, err := bus.NewClientFromURL(natsURL)
	if err != nil {
		fatal("connect to %s: %v", natsURL, err)
	}
	defer client.Close()

	sub, err := client.Subscribe(topic, func(msg *nats.Msg) {
		var event bus.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			fmt.Fprintf(os.Stderr, "skipping malformed event: %v\n", err)
			return
		}
		fmt.Println(formatEvent(event))
	})
	if err != nil {
		fatal("subscribe %s: %v", topic, err)
	}
	defer sub.Unsubscribe()

	fmt.Fprintf(os.Stderr, "watching %s on %s\n", topic, natsURL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
