// Package store persists mentions with an exactly-once dedup invariant
// and serves the windowed aggregate queries the trending engine depends
// on. The concrete backend is PostgresStore (jackc/pgx/v5); MemoryStore
// is a process-local implementation of the same contract used in tests
// and for --dry-run style local runs without a database.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

// RecordStatus is the explicit, non-exceptional outcome of Record.
type RecordStatus int

const (
	Inserted RecordStatus = iota
	Duplicate
	Failed
)

func (s RecordStatus) String() string {
	switch s {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sentinel errors distinguishing the taxonomy in SPEC_FULL.md §7.
var (
	// ErrTransient marks a connectivity blip — the caller drops the
	// operation (ingress) or retries next tick (trending).
	ErrTransient = errors.New("store: transient storage error")
	// ErrSchemaMismatch is fatal at connect/startup time.
	ErrSchemaMismatch = errors.New("store: schema mismatch")
)

// Store is the Mention Repository contract from spec.md §4.3.
type Store interface {
	// IsHealthy is a fast liveness probe.
	IsHealthy(ctx context.Context) bool

	// Record attempts to persist one MentionRecord. Duplicate is not an
	// error — it is a first-class, distinguishable outcome.
	Record(ctx context.Context, m models.Match) (RecordStatus, error)

	// Trending returns contracts with mentions >= minMentions AND
	// distinct conversations >= minUnique in the half-open window
	// [since, now). chain filters when non-empty.
	Trending(ctx context.Context, since time.Time, minMentions, minUnique int, chain string) ([]models.Aggregate, error)

	// Count returns total mentions for one contract in [since, until).
	Count(ctx context.Context, contract string, since, until time.Time) (int, error)

	// Purge deletes all mentions with observed_at < before and returns
	// the count deleted.
	Purge(ctx context.Context, before time.Time) (int, error)

	// AppendAlertHistory records one emitted alert for audit purposes.
	AppendAlertHistory(ctx context.Context, entry models.AlertHistoryEntry) error

	// Close releases any held resources. Idempotent.
	Close()
}
