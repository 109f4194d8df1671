package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"lantern/internal/watch"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// jsonEventSink renders each feed event as one JSON object per line, for
// piping into jq or log shippers.
type jsonEventSink struct {
	enc        *json.Encoder
	deployment string
}

func newJSONEventSink(w io.Writer, deployment string) *jsonEventSink {
	return &jsonEventSink{enc: json.NewEncoder(w), deployment: deployment}
}

func (s *jsonEventSink) Emit(events []watch.Event) error {
	for _, ev := range events {
		entry := struct {
			Deployment string `json:"deployment"`
			Group      string `json:"group"`
			Time       string `json:"time"`
			Message    string `json:"message"`
		}{
			Deployment: s.deployment,
			Group:      ev.Group,
			Time:       ev.Time().UTC().Format(time.RFC3339Nano),
			Message:    ev.Message,
		}
		if err := s.enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}
