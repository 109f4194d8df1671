package record

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
	_ "modernc.org/sqlite"

	"lantern/internal/logging"
	"lantern/internal/watch"
)

// Store appends watched events to a per-run SQLite archive.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	group_name TEXT NOT NULL,
	ts INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	message TEXT NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_group_ts ON events(group_name, ts);
`

// Minimum free space before recording is refused; an archive filling the
// disk must not take the watch down with it.
const minFreeBytes = 64 << 20

// Open creates the archive file for one watch run. The file is named
// after the deployment and run ID so repeated watches never collide, and
// an flock guards it against a second writer.
func Open(dir, deploymentID, runID string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record directory: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	checkFreeSpace(dir, logger)

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.db", sanitizeName(deploymentID), runID))
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire record lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("record file %s is locked by another process", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open record db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("apply record schema: %w", err)
	}

	return &Store{db: db, path: path, lock: lock}, nil
}

// OpenForReading opens an existing archive for summary queries.
func OpenForReading(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("record file: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open record db: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the archive file location.
func (s *Store) Path() string { return s.path }

// Close closes the database and releases the writer lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Emit implements watch.Sink: each merged round is appended in one
// transaction, preserving emission order.
func (s *Store) Emit(events []watch.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO events (group_name, ts, seq, message, recorded_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	recordedAt := time.Now().UTC().Format(time.RFC3339Nano)
	for _, ev := range events {
		if _, err := stmt.Exec(ev.Group, ev.Timestamp, ev.Sequence, ev.Message, recordedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert record event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record tx: %w", err)
	}
	return nil
}

// GroupSummary aggregates one group's recorded events.
type GroupSummary struct {
	Group string
	Count int64
	First time.Time
	Last  time.Time
}

// Summary returns per-group counts and time ranges, ordered by group name.
func (s *Store) Summary(ctx context.Context) ([]GroupSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT group_name, COUNT(*), MIN(ts), MAX(ts) FROM events GROUP BY group_name ORDER BY group_name")
	if err != nil {
		return nil, fmt.Errorf("query record summary: %w", err)
	}
	defer rows.Close()

	var summaries []GroupSummary
	for rows.Next() {
		var summary GroupSummary
		var first, last int64
		if err := rows.Scan(&summary.Group, &summary.Count, &first, &last); err != nil {
			return nil, fmt.Errorf("scan record summary: %w", err)
		}
		summary.First = time.UnixMilli(first)
		summary.Last = time.UnixMilli(last)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func checkFreeSpace(dir string, logger *slog.Logger) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		logger.Warn("record directory is low on disk space",
			logging.String("dir", dir),
			logging.Int64("free_bytes", int64(free)),
			logging.String(logging.FieldErrorHint, "the archive may fail mid-watch; free up space or disable recording"),
		)
	}
}

func sanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
