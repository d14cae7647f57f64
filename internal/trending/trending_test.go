package trending

import (
	"context"
	"testing"
	"time"

	"github.com/nhattruong0204/alpha-radar/internal/oracle"
	"github.com/nhattruong0204/alpha-radar/internal/store"
	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

// timeoutOracle always reports unavailable, simulating Scenario F's
// liquidity-lookup timeout. The candidate must survive (fail open).
type timeoutOracle struct{}

func (timeoutOracle) Lookup(ctx context.Context, chain, contract string) (float64, bool) {
	return 0, false
}

// thresholdOracle reports a fixed liquidity value for every lookup.
type thresholdOracle struct{ liquidityUSD float64 }

func (o thresholdOracle) Lookup(ctx context.Context, chain, contract string) (float64, bool) {
	return o.liquidityUSD, true
}

func newEngine(t *testing.T, s store.Store, o oracle.Oracle, cfg Config) *Engine {
	t.Helper()
	return New(cfg, s, o)
}

func TestScan_ScenarioA_EVMBasicTrend(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	now := time.Now()
	contract := "0xabcdefabcdef0123456789012345678901234567ab"
	mentions := []models.Match{
		{Contract: contract, Chain: "evm", ConversationID: 10, MessageID: 1, ObservedAt: now.Add(-50 * time.Second)},
		{Contract: contract, Chain: "evm", ConversationID: 10, MessageID: 2, ObservedAt: now.Add(-40 * time.Second)},
		{Contract: contract, Chain: "evm", ConversationID: 20, MessageID: 3, ObservedAt: now.Add(-30 * time.Second)},
	}
	for _, m := range mentions {
		if _, err := s.Record(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	e := newEngine(t, s, timeoutOracle{}, Config{
		Window:      5 * time.Minute,
		MinMentions: 3,
		MinUnique:   2,
	})

	tokens, err := e.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 1 {
		t.Fatalf("expected exactly 1 trending token, got %d: %+v", len(tokens), tokens)
	}

	tok := tokens[0]
	if tok.Contract != contract || tok.Chain != "evm" {
		t.Errorf("unexpected contract/chain: %+v", tok)
	}
	if tok.Mentions != 3 {
		t.Errorf("expected mentions=3, got %d", tok.Mentions)
	}
	if tok.UniqueConversations != 2 {
		t.Errorf("expected unique_conversations=2, got %d", tok.UniqueConversations)
	}
	if tok.Velocity != 3.0 {
		t.Errorf("expected velocity=3.0, got %v", tok.Velocity)
	}
	if tok.Score != 27.0 {
		t.Errorf("expected score=27.0 (2*3+3*2+5*3), got %v", tok.Score)
	}
}

func TestScan_ScenarioE_ZeroPreviousWindow(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	now := time.Now()
	contract := "Y"
	for i, conv := range []int64{1, 1, 2, 2} {
		s.Record(ctx, models.Match{
			Contract:       contract,
			Chain:          "solana",
			ConversationID: conv,
			MessageID:      int64(i + 1),
			ObservedAt:     now.Add(-time.Duration(i) * time.Second),
		})
	}

	e := newEngine(t, s, timeoutOracle{}, Config{
		Window:      5 * time.Minute,
		MinMentions: 3,
		MinUnique:   2,
	})

	tokens, err := e.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	tok := tokens[0]
	if tok.Velocity != 4.0 {
		t.Errorf("expected velocity=4.0 when previous window empty, got %v", tok.Velocity)
	}
	if tok.Score != 34.0 {
		t.Errorf("expected score=34.0 (2*4+3*2+5*4), got %v", tok.Score)
	}
}

func TestScan_ScenarioF_FailOpenOracle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	now := time.Now()
	contract := "Z"
	for i, conv := range []int64{1, 1, 2} {
		s.Record(ctx, models.Match{
			Contract:       contract,
			Chain:          "evm",
			ConversationID: conv,
			MessageID:      int64(i + 1),
			ObservedAt:     now.Add(-time.Duration(i) * time.Second),
		})
	}

	// timeoutOracle simulates the oracle always timing out.
	e := newEngine(t, s, timeoutOracle{}, Config{
		Window:           5 * time.Minute,
		MinMentions:      3,
		MinUnique:        2,
		LiquidityEnabled: true,
		MinLiquidityUSD:  1000,
	})

	tokens, err := e.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 1 || tokens[0].Contract != contract {
		t.Fatalf("expected Z to survive a fail-open oracle timeout, got %+v", tokens)
	}
}

func TestScan_LiquidityFilter_DropsBelowThreshold(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	now := time.Now()
	contract := "LOWLIQ"
	for i, conv := range []int64{1, 1, 2} {
		s.Record(ctx, models.Match{
			Contract:       contract,
			Chain:          "evm",
			ConversationID: conv,
			MessageID:      int64(i + 1),
			ObservedAt:     now.Add(-time.Duration(i) * time.Second),
		})
	}

	e := newEngine(t, s, thresholdOracle{liquidityUSD: 10}, Config{
		Window:           5 * time.Minute,
		MinMentions:      3,
		MinUnique:        2,
		LiquidityEnabled: true,
		MinLiquidityUSD:  1000,
	})

	tokens, err := e.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 0 {
		t.Errorf("expected low-liquidity candidate to be dropped, got %+v", tokens)
	}
}

func TestComputeVelocity_Invariant(t *testing.T) {
	if v := computeVelocity(5, 5); v != 0 {
		t.Errorf("expected velocity=0 when current==previous>0, got %v", v)
	}
	if v := computeVelocity(7, 0); v != 7 {
		t.Errorf("expected velocity==current when previous==0, got %v", v)
	}
	if v := computeVelocity(3, 6); v != -0.5 {
		t.Errorf("expected negative velocity -0.5, got %v", v)
	}
}

func TestScan_ChainGroupingAndTieBreak(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	now := time.Now()

	// Two contracts on the same chain with identical score components
	// except contract name — tie-break must be ascending contract.
	for _, c := range []string{"bbb", "aaa"} {
		for i, conv := range []int64{1, 1, 2} {
			s.Record(ctx, models.Match{
				Contract:       c,
				Chain:          "evm",
				ConversationID: conv,
				MessageID:      int64(i + 1),
				ObservedAt:     now.Add(-time.Duration(i) * time.Second),
			})
		}
	}

	e := newEngine(t, s, timeoutOracle{}, Config{Window: 5 * time.Minute, MinMentions: 3, MinUnique: 2})
	tokens, err := e.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tied tokens, got %d", len(tokens))
	}
	if tokens[0].Contract != "aaa" || tokens[1].Contract != "bbb" {
		t.Errorf("expected tie-break by ascending contract, got %s then %s", tokens[0].Contract, tokens[1].Contract)
	}
}
