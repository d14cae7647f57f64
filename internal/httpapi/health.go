// Package httpapi exposes the liveness/metrics HTTP surface described in
// spec.md §4.7 and §6: GET /health on one port, GET /metrics (Prometheus
// text format) on a separate port when enabled. Built on gin-gonic/gin,
// the teacher's HTTP framework of choice.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusProvider reports whether the process is healthy and, when not, a
// human-readable reason. Implemented by the orchestrator, which knows the
// transport connection state and can probe the repository.
type StatusProvider interface {
	Status(ctx context.Context) (healthy bool, reason string)
}

// NewHealthServer builds the health HTTP server for GET /health. Bound to
// addr (e.g. ":8080"); callers run it with (*http.Server).ListenAndServe
// in its own goroutine and shut it down via (*http.Server).Shutdown on
// cancellation.
func NewHealthServer(addr string, provider StatusProvider) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		healthy, reason := provider.Status(c.Request.Context())
		if healthy {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "details": reason})
	})

	return &http.Server{Addr: addr, Handler: r}
}

// NewMetricsServer builds the Prometheus text-format metrics server for
// GET /metrics, on its own port per spec.md §6.
func NewMetricsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux}
}
