// Package detect extracts candidate token contract identifiers from chat
// message bodies. Each chain gets its own Detector; extraction is pure,
// deterministic, and never fails — a malformed token is simply dropped.
package detect

import (
	"time"

	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

// Detector extracts zero or more Match records from one message. Extract
// MUST be pure: no I/O, no shared state, deterministic for a given input.
// Within a single message, duplicate contract strings MUST be collapsed
// to one Match.
type Detector interface {
	// ChainName is the lowercase chain identifier this detector produces
	// matches for, e.g. "solana" or "evm".
	ChainName() string

	// Extract scans text for candidate contracts belonging to this chain.
	Extract(text string, conversationID, messageID int64) []models.Match
}

// Registry fans one ingress message through every registered detector and
// concatenates the results, preserving detector order. It does not
// deduplicate across detectors — chain-tag disjointness makes that
// unnecessary (see the chain-tag-consistency invariant).
type Registry struct {
	detectors []Detector
}

// NewRegistry builds a registry from an ordered list of detectors. The
// registry is immutable after construction.
func NewRegistry(detectors ...Detector) *Registry {
	cp := make([]Detector, len(detectors))
	copy(cp, detectors)
	return &Registry{detectors: cp}
}

// Extract runs every registered detector against one message and returns
// the concatenated match list. observedAt is stamped uniformly onto every
// match (detection time, UTC — not the message's own timestamp).
func (r *Registry) Extract(text string, conversationID, messageID int64, observedAt time.Time) []models.Match {
	observedAt = observedAt.UTC()
	var out []models.Match
	for _, d := range r.detectors {
		matches := d.Extract(text, conversationID, messageID)
		for i := range matches {
			matches[i].ObservedAt = observedAt
		}
		out = append(out, matches...)
	}
	return out
}

// Detectors returns the registered detectors in registration order.
func (r *Registry) Detectors() []Detector {
	cp := make([]Detector, len(r.detectors))
	copy(cp, r.detectors)
	return cp
}
