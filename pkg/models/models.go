// Package models holds the entities shared across the detection and
// trending pipeline: Match, MentionRecord, Aggregate, TrendingToken,
// CooldownEntry and AlertHistoryEntry.
package models

import "time"

// Match is a candidate contract identifier produced by a chain detector
// for a single message. It is immutable and never persisted directly —
// the repository turns it into a MentionRecord.
type Match struct {
	Contract       string
	Chain          string
	ConversationID int64
	MessageID      int64
	ObservedAt     time.Time
}

// MentionRecord is the persisted form of a Match. Identity is the triple
// (Contract, ConversationID, MessageID); the store enforces uniqueness.
type MentionRecord struct {
	ID             int64
	Contract       string
	Chain          string
	ConversationID int64
	MessageID      int64
	ObservedAt     time.Time
}

// Aggregate is a transient, per-query rollup of mentions for one contract
// within a time window.
type Aggregate struct {
	Contract                  string
	Chain                     string
	MentionsInWindow           int
	UniqueConversationsInWindow int
	FirstSeenInWindow          time.Time
	LastSeenInWindow           time.Time
}

// TrendingToken is the ephemeral, ranked output of one trending cycle.
type TrendingToken struct {
	Contract            string
	Chain                string
	Mentions             int
	UniqueConversations  int
	Velocity             float64
	Score                float64
}

// CooldownEntry records when a contract becomes eligible for another
// alert. It lives only in process memory.
type CooldownEntry struct {
	Contract  string
	ExpiresAt time.Time
}

// AlertHistoryEntry is an append-only audit record of an emitted alert.
type AlertHistoryEntry struct {
	ID                  int64
	Contract             string
	Chain                string
	Score                float64
	Mentions             int
	UniqueConversations  int
	Velocity             float64
	AlertedAt            time.Time
}

// IngressEvent is one chat message delivered by the transport.
type IngressEvent struct {
	Text           string
	ConversationID int64
	MessageID      int64
	IsForwarded    bool
}
