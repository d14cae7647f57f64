package detect

import (
	"regexp"
	"strings"

	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

// evmAddress matches "0x" followed by exactly 40 hex digits, case
// insensitive.
var evmAddress = regexp.MustCompile(`(?i)0x[0-9a-f]{40}`)

var evmAllZero = "0x" + strings.Repeat("0", 40)
var evmAllF = "0x" + strings.Repeat("f", 40)

// evmBurnAddresses is a small blacklist of conventional burn addresses
// beyond the all-zero and all-f forms, e.g. the widely used "dead" address.
var evmBurnAddresses = map[string]bool{
	"0x000000000000000000000000000000000000dead": true,
	"0x00000000000000000000000000000000000dead0": true,
}

// EVMDetector extracts candidate EVM contract addresses.
type EVMDetector struct{}

// NewEVMDetector constructs an EVM chain detector.
func NewEVMDetector() *EVMDetector {
	return &EVMDetector{}
}

func (d *EVMDetector) ChainName() string { return "evm" }

func (d *EVMDetector) Extract(text string, conversationID, messageID int64) []models.Match {
	seen := make(map[string]bool)
	var out []models.Match

	for _, raw := range evmAddress.FindAllString(text, -1) {
		// Normalization happens before dedup within the message.
		normalized := strings.ToLower(raw)
		if seen[normalized] {
			continue
		}
		if !d.accept(normalized) {
			continue
		}
		seen[normalized] = true
		out = append(out, models.Match{
			Contract:       normalized,
			Chain:          d.ChainName(),
			ConversationID: conversationID,
			MessageID:      messageID,
		})
	}
	return out
}

func (d *EVMDetector) accept(normalized string) bool {
	if normalized == evmAllZero || normalized == evmAllF {
		return false
	}
	return !evmBurnAddresses[normalized]
}
