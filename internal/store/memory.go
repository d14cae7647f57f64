package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

type mentionKey struct {
	contract       string
	conversationID int64
	messageID      int64
}

// MemoryStore is a process-local implementation of Store with the same
// dedup and windowing semantics as PostgresStore. It backs unit tests for
// the trending engine and orchestrator, and can stand in for a database
// in a local --dry-run without PostgreSQL configured.
type MemoryStore struct {
	mu       sync.Mutex
	seen     map[mentionKey]bool
	mentions []models.MentionRecord
	history  []models.AlertHistoryEntry
	nextID   int64
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen: make(map[mentionKey]bool),
	}
}

func (s *MemoryStore) IsHealthy(ctx context.Context) bool { return true }

func (s *MemoryStore) Close() {}

func (s *MemoryStore) Record(ctx context.Context, m models.Match) (RecordStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := mentionKey{contract: m.Contract, conversationID: m.ConversationID, messageID: m.MessageID}
	if s.seen[key] {
		return Duplicate, nil
	}
	s.seen[key] = true
	s.nextID++
	s.mentions = append(s.mentions, models.MentionRecord{
		ID:             s.nextID,
		Contract:       m.Contract,
		Chain:          m.Chain,
		ConversationID: m.ConversationID,
		MessageID:      m.MessageID,
		ObservedAt:     m.ObservedAt.UTC(),
	})
	return Inserted, nil
}

func (s *MemoryStore) Trending(ctx context.Context, since time.Time, minMentions, minUnique int, chain string) ([]models.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	type bucket struct {
		chain      string
		convSeen   map[int64]bool
		count      int
		firstSeen  time.Time
		lastSeen   time.Time
	}
	buckets := make(map[string]*bucket)

	for _, rec := range s.mentions {
		if rec.ObservedAt.Before(since) || !rec.ObservedAt.Before(now) {
			continue
		}
		if chain != "" && rec.Chain != chain {
			continue
		}
		b, ok := buckets[rec.Contract]
		if !ok {
			b = &bucket{chain: rec.Chain, convSeen: make(map[int64]bool)}
			buckets[rec.Contract] = b
		}
		b.convSeen[rec.ConversationID] = true
		b.count++
		if b.firstSeen.IsZero() || rec.ObservedAt.Before(b.firstSeen) {
			b.firstSeen = rec.ObservedAt
		}
		if rec.ObservedAt.After(b.lastSeen) {
			b.lastSeen = rec.ObservedAt
		}
	}

	var out []models.Aggregate
	for contract, b := range buckets {
		if b.count < minMentions || len(b.convSeen) < minUnique {
			continue
		}
		out = append(out, models.Aggregate{
			Contract:                    contract,
			Chain:                       b.chain,
			MentionsInWindow:            b.count,
			UniqueConversationsInWindow: len(b.convSeen),
			FirstSeenInWindow:           b.firstSeen,
			LastSeenInWindow:            b.lastSeen,
		})
	}
	// Deterministic order for tests; the real contract leaves ordering
	// unspecified.
	sort.Slice(out, func(i, j int) bool { return out[i].Contract < out[j].Contract })
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, contract string, since, until time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.mentions {
		if rec.Contract != contract {
			continue
		}
		if rec.ObservedAt.Before(since) || !rec.ObservedAt.Before(until) {
			continue
		}
		n++
	}
	return n, nil
}

func (s *MemoryStore) Purge(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.mentions[:0]
	deleted := 0
	for _, rec := range s.mentions {
		if rec.ObservedAt.Before(before) {
			delete(s.seen, mentionKey{contract: rec.Contract, conversationID: rec.ConversationID, messageID: rec.MessageID})
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.mentions = kept
	return deleted, nil
}

func (s *MemoryStore) AppendAlertHistory(ctx context.Context, entry models.AlertHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	s.history = append(s.history, entry)
	return nil
}

// History returns a copy of the recorded alert history, for tests.
func (s *MemoryStore) History() []models.AlertHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AlertHistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}
