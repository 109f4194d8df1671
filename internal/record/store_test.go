package record_test

import (
	"context"
	"path/filepath"
	"testing"

	"lantern/internal/logging"
	"lantern/internal/record"
	"lantern/internal/watch"
)

func TestStoreEmitAndSummary(t *testing.T) {
	dir := t.TempDir()
	store, err := record.Open(dir, "d-1", "run-1", logging.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	err = store.Emit([]watch.Event{
		{Group: "app/web", Timestamp: 1000, Sequence: 1, Message: "one"},
		{Group: "app/web", Timestamp: 3000, Sequence: 2, Message: "two"},
		{Group: "app/agent", Timestamp: 2000, Sequence: 1, Message: "three"},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	summaries, err := store.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries %#v", summaries)
	}
	if summaries[0].Group != "app/agent" || summaries[0].Count != 1 {
		t.Fatalf("first summary %+v", summaries[0])
	}
	web := summaries[1]
	if web.Group != "app/web" || web.Count != 2 {
		t.Fatalf("web summary %+v", web)
	}
	if web.First.UnixMilli() != 1000 || web.Last.UnixMilli() != 3000 {
		t.Fatalf("web time range %+v", web)
	}
}

func TestStoreReadBackByPath(t *testing.T) {
	dir := t.TempDir()
	store, err := record.Open(dir, "d-1", "run-1", logging.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Emit([]watch.Event{{Group: "g", Timestamp: 1, Sequence: 1, Message: "m"}}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	path := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reader, err := record.OpenForReading(path)
	if err != nil {
		t.Fatalf("open for reading: %v", err)
	}
	t.Cleanup(func() { _ = reader.Close() })

	summaries, err := reader.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Count != 1 {
		t.Fatalf("summaries %#v", summaries)
	}
}

func TestStoreSecondWriterRejected(t *testing.T) {
	dir := t.TempDir()
	store, err := record.Open(dir, "d-1", "run-1", logging.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := record.Open(dir, "d-1", "run-1", logging.NewNop()); err == nil {
		t.Fatal("expected second writer on the same run to be rejected")
	}
}

func TestStoreSanitizesDeploymentID(t *testing.T) {
	dir := t.TempDir()
	store, err := record.Open(dir, "d:1/odd id", "run-1", logging.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	base := filepath.Base(store.Path())
	if base != "d_1_odd_id-run-1.db" {
		t.Fatalf("archive name = %q", base)
	}
}
