package watch_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"lantern/internal/watch"
)

func TestLineSinkFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := watch.NewLineSink(&buf, "d-1", false)

	err := sink.Emit([]watch.Event{
		{Group: "app/web", Timestamp: 1700000000000, Sequence: 1, Message: "starting service"},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	got := buf.String()
	want := "d-1 (app/web): [2023-11-14 22:13:20] starting service\n"
	if got != want {
		t.Fatalf("line = %q, want %q", got, want)
	}
}

func TestLineSinkEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	sink := watch.NewLineSink(&buf, "d-1", false)
	if err := sink.Emit(nil); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("empty batch wrote %q", buf.String())
	}
}

func TestLineSinkFlush(t *testing.T) {
	var buf bytes.Buffer
	sink := watch.NewLineSink(&buf, "d-1", false)

	err := sink.Emit([]watch.Event{
		{Group: "app/web", Timestamp: 1700000000000, Sequence: 1, Message: "done"},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := sink.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !strings.Contains(buf.String(), "done") {
		t.Fatalf("flushed output = %q", buf.String())
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	var buf bytes.Buffer
	failing := sinkFunc(func([]watch.Event) error { return errors.New("closed") })
	sink := watch.MultiSink{watch.NewLineSink(&buf, "d-1", false), failing, watch.NewLineSink(&buf, "d-1", false)}

	err := sink.Emit([]watch.Event{{Group: "g", Timestamp: 1, Message: "x"}})
	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Fatalf("expected propagated sink error, got %v", err)
	}
	if got := strings.Count(buf.String(), "x"); got != 1 {
		t.Fatalf("fan-out should stop at the failing sink, wrote %d lines", got)
	}
}

type sinkFunc func([]watch.Event) error

func (f sinkFunc) Emit(events []watch.Event) error { return f(events) }
