package detect

import (
	"regexp"

	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

// base58Run matches runs of Base58 alphabet characters of length 32-44 —
// the shape of a Solana base58-encoded public key.
var base58Run = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)

// solanaFalsePositives is a seed list of common capitalized English words
// rejected by exact match. Only Base58 runs of 32-44 characters are ever
// checked against it. Not authoritative — operators are expected to
// extend it.
var solanaFalsePositives = map[string]bool{
	"Congratulations": true,
	"Announcement":    true,
	"Opportunity":     true,
	"Information":     true,
	"Subscription":    true,
	"Verification":    true,
	"Investigation":   true,
	"Recommendation":  true,
	"Transformation":  true,
	"Administration":  true,
	"Understanding":   true,
	"Relationship":    true,
	"Entertainment":   true,
	"Responsibility":  true,
}

// solanaSystemAddresses are well-known non-token program/mint IDs that
// should never be reported as trending contracts.
var solanaSystemAddresses = map[string]bool{
	"11111111111111111111111111111111":            true, // system program
	"So11111111111111111111111111111111111111112": true, // wrapped native SOL mint
	"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA":  true, // SPL token program
}

// SolanaDetector extracts candidate Solana token contract addresses.
type SolanaDetector struct{}

// NewSolanaDetector constructs a Solana chain detector.
func NewSolanaDetector() *SolanaDetector {
	return &SolanaDetector{}
}

func (d *SolanaDetector) ChainName() string { return "solana" }

func (d *SolanaDetector) Extract(text string, conversationID, messageID int64) []models.Match {
	seen := make(map[string]bool)
	var out []models.Match

	for _, candidate := range base58Run.FindAllString(text, -1) {
		if seen[candidate] {
			continue
		}
		if !d.accept(candidate) {
			continue
		}
		seen[candidate] = true
		out = append(out, models.Match{
			Contract:       candidate,
			Chain:          d.ChainName(),
			ConversationID: conversationID,
			MessageID:      messageID,
		})
	}
	return out
}

// accept applies the rejection rules in the order the spec prescribes:
// false-positive word list, known system addresses, then the mixed-case
// heuristic. No case normalization — Solana addresses are case-sensitive.
func (d *SolanaDetector) accept(candidate string) bool {
	if solanaFalsePositives[candidate] {
		return false
	}
	if solanaSystemAddresses[candidate] {
		return false
	}
	return hasUpperAndLower(candidate)
}

func hasUpperAndLower(s string) bool {
	var hasUpper, hasLower bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		}
		if hasUpper && hasLower {
			return true
		}
	}
	return false
}
