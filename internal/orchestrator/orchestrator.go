// Package orchestrator wires ingress, detection, persistence, trending,
// cooldown, and notification into one running process. It owns the
// root cancellation context and every background loop's lifecycle,
// generalizing the teacher's manual poller-goroutine wiring to a
// golang.org/x/sync/errgroup so any loop's failure brings the whole
// process down cleanly.
package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhattruong0204/alpha-radar/internal/cooldown"
	"github.com/nhattruong0204/alpha-radar/internal/dashboard"
	"github.com/nhattruong0204/alpha-radar/internal/detect"
	"github.com/nhattruong0204/alpha-radar/internal/metrics"
	"github.com/nhattruong0204/alpha-radar/internal/notifier"
	"github.com/nhattruong0204/alpha-radar/internal/store"
	"github.com/nhattruong0204/alpha-radar/internal/trending"
	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

// Transport is the minimal surface the orchestrator needs from an
// ingress source. The live implementation is internal/transport/telegram.Client.
type Transport interface {
	Events() <-chan models.IngressEvent
	Connected() bool
	Run(ctx context.Context) error
}

// FilterConfig gates which ingress events even reach the detector
// registry, per spec.md §4.1.
type FilterConfig struct {
	MinMessageLength int
	IgnoreForwarded  bool
}

// Config bundles the orchestrator's tunables.
type Config struct {
	Filter          FilterConfig
	TrendingWindow  time.Duration
	MinMentions     int
	MinUniqueChats  int
	CheckInterval   time.Duration
	RetentionPeriod time.Duration
}

// Orchestrator is the long-running process root.
type Orchestrator struct {
	cfg       Config
	transport Transport
	registry  *detect.Registry
	repo      store.Store
	engine    *trending.Engine
	gate      *cooldown.Gate
	notify    notifier.Notifier
	metrics   *metrics.Registry
	dash      *dashboard.Hub
	log       *zap.Logger
	now       func() time.Time
}

// New builds an Orchestrator. dash may be nil when the dashboard
// surface is disabled.
func New(
	cfg Config,
	transport Transport,
	registry *detect.Registry,
	repo store.Store,
	engine *trending.Engine,
	gate *cooldown.Gate,
	notify notifier.Notifier,
	metricsReg *metrics.Registry,
	dash *dashboard.Hub,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		transport: transport,
		registry:  registry,
		repo:      repo,
		engine:    engine,
		gate:      gate,
		notify:    notify,
		metrics:   metricsReg,
		dash:      dash,
		log:       log,
		now:       time.Now,
	}
}

// Run starts the transport, ingestion, trending, and retention loops
// and blocks until ctx is cancelled or any loop returns a fatal error.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.transport.Run(ctx)
	})
	g.Go(func() error {
		o.runIngress(ctx)
		return nil
	})
	g.Go(func() error {
		o.runTrendingLoop(ctx)
		return nil
	})
	g.Go(func() error {
		o.runRetentionLoop(ctx)
		return nil
	})

	return g.Wait()
}

// runIngress drains the transport's event channel, fans each message
// through the detector registry, and persists every match.
func (o *Orchestrator) runIngress(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-o.transport.Events():
			if !ok {
				return
			}
			o.handleEvent(ctx, evt)
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, evt models.IngressEvent) {
	o.metrics.MessagesProcessed.Inc()

	if len(evt.Text) < o.cfg.Filter.MinMessageLength {
		return
	}
	if o.cfg.Filter.IgnoreForwarded && evt.IsForwarded {
		return
	}

	matches := o.registry.Extract(evt.Text, evt.ConversationID, evt.MessageID, o.now())
	for _, m := range matches {
		status, err := o.repo.Record(ctx, m)
		if err != nil {
			o.log.Error("record match failed", zap.Error(err), zap.String("contract", m.Contract))
			continue
		}
		switch status {
		case store.Inserted:
			o.metrics.MatchesInserted.Inc()
		case store.Duplicate:
			o.metrics.MatchesDuplicate.Inc()
		}
	}
}

// runTrendingLoop ticks on the configured interval, scans for trending
// tokens, and emits alerts for every candidate the cooldown gate admits.
func (o *Orchestrator) runTrendingLoop(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.runCycle(ctx)
		}
	}
}

func (o *Orchestrator) runCycle(ctx context.Context) {
	defer o.gate.Prune()

	tokens, err := o.engine.Scan(ctx)
	if err != nil {
		o.log.Error("trending scan failed", zap.Error(err))
		return
	}
	o.metrics.TrendingCandidates.Set(float64(len(tokens)))
	o.metrics.CooldownMapSize.Set(float64(o.gate.Len()))

	scannedAt := o.now()
	if o.dash != nil {
		o.dash.BroadcastCycle(scannedAt, tokens)
	}

	for _, t := range tokens {
		if !o.gate.Admit(t.Contract) {
			continue
		}
		if err := o.notify.Send(ctx, t); err != nil {
			o.log.Error("alert send failed", zap.Error(err), zap.String("contract", t.Contract))
			continue
		}
		o.metrics.AlertsEmitted.Inc()
		if o.dash != nil {
			o.dash.BroadcastAlert(o.now(), t)
		}
		if err := o.repo.AppendAlertHistory(ctx, models.AlertHistoryEntry{
			Contract:            t.Contract,
			Chain:               t.Chain,
			Score:               t.Score,
			Mentions:            t.Mentions,
			UniqueConversations: t.UniqueConversations,
			Velocity:            t.Velocity,
			AlertedAt:           o.now(),
		}); err != nil {
			o.log.Error("append alert history failed", zap.Error(err), zap.String("contract", t.Contract))
		}
	}
}

// runRetentionLoop purges mention rows older than the retention window
// once an hour.
func (o *Orchestrator) runRetentionLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := o.now().Add(-o.cfg.RetentionPeriod)
			n, err := o.repo.Purge(ctx, cutoff)
			if err != nil {
				o.log.Error("retention purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				o.log.Info("retention purge complete", zap.Int("rows_removed", n))
			}
		}
	}
}

// Status implements httpapi.StatusProvider: healthy iff the transport
// is connected and the repository responds.
func (o *Orchestrator) Status(ctx context.Context) (bool, string) {
	if !o.transport.Connected() {
		return false, "transport not connected"
	}
	if !o.repo.IsHealthy(ctx) {
		return false, "repository unreachable"
	}
	return true, ""
}
