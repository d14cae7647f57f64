package store

import (
	"context"
	"testing"
	"time"

	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

func TestRecord_DedupInvariant(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	m := models.Match{Contract: "X", Chain: "evm", ConversationID: 1, MessageID: 1, ObservedAt: time.Now()}

	status, err := s.Record(ctx, m)
	if err != nil || status != Inserted {
		t.Fatalf("first record: got (%v, %v), want (Inserted, nil)", status, err)
	}

	status, err = s.Record(ctx, m)
	if err != nil || status != Duplicate {
		t.Fatalf("second record: got (%v, %v), want (Duplicate, nil)", status, err)
	}

	n, err := s.Count(ctx, "X", time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected exactly-once count of 1, got %d", n)
	}
}

func TestCount_IndependentOfInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now().Add(-time.Minute)
	matches := []models.Match{
		{Contract: "X", ConversationID: 1, MessageID: 2, ObservedAt: base},
		{Contract: "X", ConversationID: 1, MessageID: 1, ObservedAt: base},
		{Contract: "X", ConversationID: 2, MessageID: 1, ObservedAt: base},
		{Contract: "X", ConversationID: 1, MessageID: 1, ObservedAt: base}, // duplicate of #2
	}
	for _, m := range matches {
		if _, err := s.Record(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Count(ctx, "X", base.Add(-time.Second), base.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 distinct triples, got %d", n)
	}
}

func TestPurge_RemovesOlderThanCutoff(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Minute)

	s.Record(ctx, models.Match{Contract: "OLD", ConversationID: 1, MessageID: 1, ObservedAt: old})
	s.Record(ctx, models.Match{Contract: "NEW", ConversationID: 1, MessageID: 1, ObservedAt: recent})

	cutoff := time.Now().Add(-24 * time.Hour)
	deleted, err := s.Purge(ctx, cutoff)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	n, _ := s.Count(ctx, "OLD", time.Time{}, time.Now())
	if n != 0 {
		t.Errorf("expected OLD record purged, still counted %d", n)
	}
	n, _ = s.Count(ctx, "NEW", time.Time{}, time.Now())
	if n != 1 {
		t.Errorf("expected NEW record retained, counted %d", n)
	}
}

func TestTrending_RoundTripAfterRecord(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	observedAt := time.Now()
	m := models.Match{Contract: "ROUND", Chain: "evm", ConversationID: 1, MessageID: 1, ObservedAt: observedAt}
	if _, err := s.Record(ctx, m); err != nil {
		t.Fatal(err)
	}

	aggs, err := s.Trending(ctx, observedAt.Add(-time.Second), 1, 1, "")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, a := range aggs {
		if a.Contract == "ROUND" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ROUND in trending aggregates, got %v", aggs)
	}
}

func TestTrending_GatesByMentionsAndUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now().Add(-time.Minute)
	s.Record(ctx, models.Match{Contract: "LOWVOL", Chain: "evm", ConversationID: 1, MessageID: 1, ObservedAt: base})

	aggs, err := s.Trending(ctx, base.Add(-time.Second), 3, 2, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range aggs {
		if a.Contract == "LOWVOL" {
			t.Errorf("LOWVOL should not pass min_mentions=3/min_unique=2 gate with one mention")
		}
	}
}

func TestTrending_FiltersByChain(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now().Add(-time.Minute)
	s.Record(ctx, models.Match{Contract: "C1", Chain: "evm", ConversationID: 1, MessageID: 1, ObservedAt: base})
	s.Record(ctx, models.Match{Contract: "C2", Chain: "solana", ConversationID: 1, MessageID: 1, ObservedAt: base})

	aggs, err := s.Trending(ctx, base.Add(-time.Second), 1, 1, "solana")
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range aggs {
		if a.Chain != "solana" {
			t.Errorf("expected only solana aggregates, got %s", a.Chain)
		}
	}
}
