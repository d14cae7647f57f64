package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nhattruong0204/alpha-radar/internal/config"
	"github.com/nhattruong0204/alpha-radar/internal/cooldown"
	"github.com/nhattruong0204/alpha-radar/internal/dashboard"
	"github.com/nhattruong0204/alpha-radar/internal/detect"
	"github.com/nhattruong0204/alpha-radar/internal/httpapi"
	"github.com/nhattruong0204/alpha-radar/internal/logging"
	"github.com/nhattruong0204/alpha-radar/internal/metrics"
	"github.com/nhattruong0204/alpha-radar/internal/notifier"
	"github.com/nhattruong0204/alpha-radar/internal/oracle"
	"github.com/nhattruong0204/alpha-radar/internal/orchestrator"
	"github.com/nhattruong0204/alpha-radar/internal/store"
	telegramtransport "github.com/nhattruong0204/alpha-radar/internal/transport/telegram"
	"github.com/nhattruong0204/alpha-radar/internal/trending"
)

func main() {
	os.Exit(run())
}

func run() int {
	debug := flag.Bool("debug", false, "force debug log level regardless of LOG_LEVEL")
	dryRun := flag.Bool("dry-run", false, "run with an in-memory store and a no-op notifier, no Telegram send")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo, err := buildStore(ctx, cfg, *dryRun, log)
	if err != nil {
		log.Error("store initialization failed", zap.Error(err))
		return 1
	}
	defer repo.Close()

	registry := detect.NewRegistry(detect.NewEVMDetector(), detect.NewSolanaDetector())
	gate := cooldown.New(cfg.Trending.Cooldown())

	var liquidityOracle oracle.Oracle = oracle.NoopOracle{}
	if cfg.Oracle.Enabled {
		liquidityOracle = oracle.NewDexScreenerClient()
	}
	engine := trending.New(trending.Config{
		Window:           cfg.Trending.Window(),
		MinMentions:      cfg.Trending.MinMentions,
		MinUnique:        cfg.Trending.MinUniqueChats,
		LiquidityEnabled: cfg.Oracle.Enabled,
		MinLiquidityUSD:  cfg.Oracle.MinLiquidity,
	}, repo, liquidityOracle)

	metricsReg := metrics.New()

	var dash *dashboard.Hub
	if cfg.Dashboard.Enabled {
		dash = dashboard.NewHub()
		go dash.Run()
	}

	transport := telegramtransport.New(telegramtransport.Config{
		APIID:       cfg.Telegram.APIID,
		APIHash:     cfg.Telegram.APIHash,
		Phone:       cfg.Telegram.Phone,
		SessionPath: cfg.Telegram.SessionName + ".session.json",
	}, telegramtransport.TerminalCodeAsker{}, log)
	defer transport.Close()

	var notify notifier.Notifier = notifier.NoopNotifier{}
	if !*dryRun {
		notify = notifier.NewTelegramNotifier(transport.RawClient())
	}

	orch := orchestrator.New(
		orchestrator.Config{
			Filter: orchestrator.FilterConfig{
				MinMessageLength: cfg.Filter.MinMessageLength,
				IgnoreForwarded:  cfg.Filter.IgnoreForwarded,
			},
			TrendingWindow:  cfg.Trending.Window(),
			MinMentions:     cfg.Trending.MinMentions,
			MinUniqueChats:  cfg.Trending.MinUniqueChats,
			CheckInterval:   cfg.Trending.CheckInterval(),
			RetentionPeriod: retentionPeriod(),
		},
		transport, registry, repo, engine, gate, notify, metricsReg, dash, log,
	)

	servers := startHTTPServers(cfg, orch, metricsReg, dash, log)
	defer stopHTTPServers(servers, log)

	log.Info("alpha-radar starting", zap.Bool("dry_run", *dryRun))
	if err := orch.Run(ctx); err != nil {
		log.Error("orchestrator exited with error", zap.Error(err))
		return 2
	}
	log.Info("alpha-radar shut down cleanly")
	return 0
}

func buildStore(ctx context.Context, cfg *config.Config, dryRun bool, log *zap.Logger) (store.Store, error) {
	if dryRun {
		log.Info("dry-run mode: using in-memory store")
		return store.NewMemoryStore(), nil
	}

	pg, err := store.Connect(ctx, store.PoolConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		MinConns: cfg.DB.PoolMin,
		MaxConns: cfg.DB.PoolMax,
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pg.InitSchema(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return pg, nil
}

// retentionPeriod is fixed at the spec's default of 24h; spec.md §6
// exposes no RETENTION_* environment key, so this is not a tunable.
func retentionPeriod() time.Duration {
	return 24 * time.Hour
}

func startHTTPServers(cfg *config.Config, orch *orchestrator.Orchestrator, metricsReg *metrics.Registry, dash *dashboard.Hub, log *zap.Logger) []*http.Server {
	var servers []*http.Server

	if cfg.Health.Enabled {
		srv := httpapi.NewHealthServer(fmt.Sprintf(":%d", cfg.Health.Port), orch)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("health server stopped", zap.Error(err))
			}
		}()
		servers = append(servers, srv)
	}

	if cfg.Metrics.Enabled {
		srv := httpapi.NewMetricsServer(fmt.Sprintf(":%d", cfg.Metrics.Port), metricsReg.Gatherer())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		servers = append(servers, srv)
	}

	if cfg.Dashboard.Enabled && dash != nil {
		srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Dashboard.Port), Handler: dash.Router()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("dashboard server stopped", zap.Error(err))
			}
		}()
		servers = append(servers, srv)
	}

	return servers
}

func stopHTTPServers(servers []*http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("http server shutdown error", zap.Error(err))
		}
	}
}
