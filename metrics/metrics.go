// Package metrics exposes Prometheus instrumentation for the secure client
// factory and the STS stub server, plus a small standalone metrics server.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ClientsIssued counts secured clients handed out by factories,
	// partitioned by how the security context was obtained.
	ClientsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secureclient",
		Name:      "clients_issued_total",
		Help:      "Number of secured clients issued, by mode (subject or system).",
	}, []string{"mode"})

	// TokenExchanges counts trust broker round trips by outcome.
	TokenExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secureclient",
		Name:      "token_exchanges_total",
		Help:      "Number of security token exchanges, by result (ok or error).",
	}, []string{"result"})

	// TokensIssued counts assertions minted by the STS stub server.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stsserver",
		Name:      "tokens_issued_total",
		Help:      "Number of security tokens issued by the STS stub.",
	})
)

// MetricsServer serves the Prometheus scrape endpoint on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server listening on addr.
func New(addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
