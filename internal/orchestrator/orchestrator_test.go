package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nhattruong0204/alpha-radar/internal/cooldown"
	"github.com/nhattruong0204/alpha-radar/internal/detect"
	"github.com/nhattruong0204/alpha-radar/internal/metrics"
	"github.com/nhattruong0204/alpha-radar/internal/oracle"
	"github.com/nhattruong0204/alpha-radar/internal/store"
	"github.com/nhattruong0204/alpha-radar/internal/trending"
	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

type fakeTransport struct {
	events    chan models.IngressEvent
	connected bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan models.IngressEvent, 16), connected: true}
}

func (f *fakeTransport) Events() <-chan models.IngressEvent { return f.events }
func (f *fakeTransport) Connected() bool                    { return f.connected }
func (f *fakeTransport) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.TrendingToken
}

func (n *fakeNotifier) Send(ctx context.Context, t models.TrendingToken) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, t)
	return nil
}

func (n *fakeNotifier) sentContracts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, t := range n.sent {
		out[i] = t.Contract
	}
	return out
}

func TestHandleEvent_FiltersShortAndForwardedMessages(t *testing.T) {
	repo := store.NewMemoryStore()
	reg := detect.NewRegistry(&detect.EVMDetector{})
	o := &Orchestrator{
		cfg: Config{Filter: FilterConfig{MinMessageLength: 10, IgnoreForwarded: true}},
		registry: reg,
		repo:     repo,
		metrics:  metrics.New(),
		log:      zap.NewNop(),
		now:      time.Now,
	}

	o.handleEvent(context.Background(), models.IngressEvent{Text: "short", ConversationID: 1, MessageID: 1})
	o.handleEvent(context.Background(), models.IngressEvent{
		Text: "check 0x1234567890123456789012345678901234567890 now", ConversationID: 1, MessageID: 2, IsForwarded: true,
	})

	count, err := repo.Count(context.Background(), "0x1234567890123456789012345678901234567890", time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected 0 persisted mentions from filtered messages, got %d", count)
	}
}

func TestHandleEvent_PersistsAcceptedMatch(t *testing.T) {
	repo := store.NewMemoryStore()
	reg := detect.NewRegistry(&detect.EVMDetector{})
	o := &Orchestrator{
		cfg:      Config{Filter: FilterConfig{MinMessageLength: 5}},
		registry: reg,
		repo:     repo,
		metrics:  metrics.New(),
		log:      zap.NewNop(),
		now:      time.Now,
	}

	o.handleEvent(context.Background(), models.IngressEvent{
		Text: "check 0x1234567890123456789012345678901234567890 now", ConversationID: 1, MessageID: 2,
	})

	count, err := repo.Count(context.Background(), "0x1234567890123456789012345678901234567890", time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 persisted mention, got %d", count)
	}
}

func TestRunCycle_AdmitsThenSuppressesViaCooldown(t *testing.T) {
	fixed := time.Now().UTC()
	repo := store.NewMemoryStore()
	contract := "0x1234567890123456789012345678901234567890"

	for i := 0; i < 4; i++ {
		repo.Record(context.Background(), models.Match{
			Contract: contract, Chain: "evm", ConversationID: int64(i % 2), MessageID: int64(i), ObservedAt: fixed,
		})
	}

	engine := trending.New(trending.Config{Window: 5 * time.Minute, MinMentions: 3, MinUnique: 2}, repo, oracle.NoopOracle{})
	gate := cooldown.New(15 * time.Minute)
	notif := &fakeNotifier{}

	o := &Orchestrator{
		cfg:     Config{CheckInterval: time.Second},
		repo:    repo,
		engine:  engine,
		gate:    gate,
		notify:  notif,
		metrics: metrics.New(),
		log:     zap.NewNop(),
		now:     func() time.Time { return fixed },
	}

	o.runCycle(context.Background())
	o.runCycle(context.Background())

	sent := notif.sentContracts()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one alert across two cycles due to cooldown, got %d: %v", len(sent), sent)
	}
	if sent[0] != contract {
		t.Errorf("expected alert for %s, got %s", contract, sent[0])
	}

	history := repo.History()
	if len(history) != 1 {
		t.Errorf("expected one alert history entry, got %d", len(history))
	}
}

func TestStatus_DegradedWhenTransportDisconnected(t *testing.T) {
	transport := newFakeTransport()
	transport.connected = false
	repo := store.NewMemoryStore()

	o := &Orchestrator{transport: transport, repo: repo}
	healthy, reason := o.Status(context.Background())
	if healthy {
		t.Fatal("expected unhealthy status when transport disconnected")
	}
	if reason == "" {
		t.Error("expected a non-empty reason")
	}
}
