// Package trending computes per-chain trending candidates from windowed
// mention aggregates, scores them by volume/breadth/velocity, and applies
// an optional fail-open liquidity filter.
package trending

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nhattruong0204/alpha-radar/internal/oracle"
	"github.com/nhattruong0204/alpha-radar/internal/store"
	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

// Scoring coefficients are fixed by spec.md §4.4/§9 so alert behavior is
// reproducible across deployments. Do not make these configurable.
const (
	weightMentions    = 2.0
	weightUnique      = 3.0
	weightVelocity    = 5.0
)

// Config holds the tunables from spec.md §6 (TRENDING_* keys).
type Config struct {
	Window           time.Duration
	MinMentions      int
	MinUnique        int
	LiquidityEnabled bool
	MinLiquidityUSD  float64
}

// Engine implements the Trending Engine contract: Scan() is invoked
// periodically by the orchestrator.
type Engine struct {
	cfg    Config
	store  store.Store
	oracle oracle.Oracle
	now    func() time.Time
}

// New builds a trending engine. oracle may be oracle.NoopOracle{} when
// the liquidity filter is disabled.
func New(cfg Config, s store.Store, o oracle.Oracle) *Engine {
	return &Engine{cfg: cfg, store: s, oracle: o, now: time.Now}
}

// Scan runs one trending cycle per spec.md §4.4's algorithm and returns
// the concatenation of per-chain score-sorted TrendingToken lists.
func (e *Engine) Scan(ctx context.Context) ([]models.TrendingToken, error) {
	now := e.now().UTC()
	since := now.Add(-e.cfg.Window)
	priorSince := now.Add(-2 * e.cfg.Window)

	aggregates, err := e.store.Trending(ctx, since, e.cfg.MinMentions, e.cfg.MinUnique, "")
	if err != nil {
		return nil, fmt.Errorf("trending scan: %w", err)
	}

	byChain := make(map[string][]models.TrendingToken)
	for _, a := range aggregates {
		previous, err := e.store.Count(ctx, a.Contract, priorSince, since)
		if err != nil {
			return nil, fmt.Errorf("trending scan: counting prior window for %s: %w", a.Contract, err)
		}

		current := a.MentionsInWindow
		velocity := computeVelocity(current, previous)
		score := weightMentions*float64(current) + weightUnique*float64(a.UniqueConversationsInWindow) + weightVelocity*velocity

		if e.cfg.LiquidityEnabled {
			liquidity, ok := e.oracle.Lookup(ctx, a.Chain, a.Contract)
			// Fail open: unavailable keeps the candidate. Only a
			// successful, too-low reading drops it.
			if ok && liquidity < e.cfg.MinLiquidityUSD {
				continue
			}
		}

		byChain[a.Chain] = append(byChain[a.Chain], models.TrendingToken{
			Contract:            a.Contract,
			Chain:               a.Chain,
			Mentions:            current,
			UniqueConversations: a.UniqueConversationsInWindow,
			Velocity:            velocity,
			Score:               score,
		})
	}

	var out []models.TrendingToken
	chains := make([]string, 0, len(byChain))
	for chain := range byChain {
		chains = append(chains, chain)
	}
	sort.Strings(chains) // deterministic emission order between groups

	for _, chain := range chains {
		tokens := byChain[chain]
		sort.Slice(tokens, func(i, j int) bool {
			if tokens[i].Score != tokens[j].Score {
				return tokens[i].Score > tokens[j].Score
			}
			if tokens[i].Mentions != tokens[j].Mentions {
				return tokens[i].Mentions > tokens[j].Mentions
			}
			if tokens[i].UniqueConversations != tokens[j].UniqueConversations {
				return tokens[i].UniqueConversations > tokens[j].UniqueConversations
			}
			return tokens[i].Contract < tokens[j].Contract
		})
		out = append(out, tokens...)
	}
	return out, nil
}

// computeVelocity implements spec.md §4.4 step 3c: relative growth vs.
// the prior window, equal to current when the prior window was empty.
func computeVelocity(current, previous int) float64 {
	if previous == 0 {
		return float64(current)
	}
	return float64(current-previous) / float64(previous)
}
