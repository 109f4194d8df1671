package watch

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
)

// Sink receives each round's merged events in order. Emission is
// append-only; a sink must not reorder or withhold events.
type Sink interface {
	Emit(events []Event) error
}

// LineSink renders events as single lines in the form
// "<deployment> (<group>): [<time>] <message>". When color is enabled the
// deployment/group/time prefix is dimmed so the payload stands out.
type LineSink struct {
	mu         sync.Mutex
	w          *bufio.Writer
	deployment string
	color      bool
}

// NewLineSink writes the feed to w. Color should be enabled only when w
// is a terminal.
func NewLineSink(w io.Writer, deployment string, color bool) *LineSink {
	return &LineSink{
		w:          bufio.NewWriter(w),
		deployment: deployment,
		color:      color,
	}
}

// Emit implements Sink. The batch is flushed as one write so a poll
// round appears atomically on the terminal.
func (s *LineSink) Emit(events []Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		prefix := fmt.Sprintf("%s (%s): [%s]", s.deployment, ev.Group, ev.Time().UTC().Format(time.DateTime))
		if s.color {
			prefix = text.FgHiBlack.Sprint(prefix)
		}
		if _, err := fmt.Fprintf(s.w, "%s %s\n", prefix, ev.Message); err != nil {
			return err
		}
	}
	return s.w.Flush()
}

// Flush forces any buffered output through to the underlying writer.
// Emit flushes after every batch, so this only matters when the watch
// ends between emissions.
func (s *LineSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// MultiSink fans one emission out to several sinks in order.
type MultiSink []Sink

// Emit implements Sink. The first failing sink stops the fan-out.
func (m MultiSink) Emit(events []Event) error {
	for _, sink := range m {
		if err := sink.Emit(events); err != nil {
			return err
		}
	}
	return nil
}
