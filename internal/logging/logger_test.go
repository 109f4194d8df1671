package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"lantern/internal/logging"
)

func TestNewConsoleIncludesSubjectHeader(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info("round complete",
		logging.String(logging.FieldComponent, "scheduler"),
		logging.String(logging.FieldDeploymentID, "d-123"),
		logging.String(logging.FieldGroup, "app/web"),
		logging.Int("events", 3),
	)

	out := buf.String()
	if !strings.Contains(out, "[scheduler]") {
		t.Fatalf("missing component header: %q", out)
	}
	if !strings.Contains(out, "d-123/app/web") {
		t.Fatalf("missing subject header: %q", out)
	}
	if !strings.Contains(out, "events=3") {
		t.Fatalf("missing attr: %q", out)
	}
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatalf("info should be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn should be emitted: %q", out)
	}
}

func TestNewJSONEmitsLowercaseLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Warn("tail degraded", logging.String(logging.FieldGroup, "app/web"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json record: %v", err)
	}
	if record["level"] != "warn" {
		t.Fatalf("level = %v, want warn", record["level"])
	}
	if record["msg"] != "tail degraded" {
		t.Fatalf("msg = %v", record["msg"])
	}
	if record[logging.FieldGroup] != "app/web" {
		t.Fatalf("group = %v", record[logging.FieldGroup])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("dropped")
	if logger.Enabled(nil, 0) {
		t.Fatal("nop logger should report disabled")
	}
}
