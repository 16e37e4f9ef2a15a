// Package metrics exposes Prometheus counters for the scorer and simulator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bars_evaluated_total", Help: "Bars fed through the signal scorer"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signals produced by direction"},
		[]string{"direction"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Simulated trades closed by exit reason"},
		[]string{"reason"},
	)
	BacktestRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "backtest_runs_total", Help: "Completed backtest runs"},
	)
)

func init() {
	prometheus.MustRegister(BarsEvaluated, SignalsTotal, TradesTotal, BacktestRunsTotal)
}

// Serve starts a background HTTP server exposing /metrics on addr.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
