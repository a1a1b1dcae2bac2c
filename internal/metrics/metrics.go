// Package metrics exposes the orchestrator's run counters as Prometheus
// gauges/counters, served on an optional HTTP listener (SPEC_FULL.md
// domain stack; off by default).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the counters/gauges the dispatch loop updates on every
// inbound and outbound datagram.
type Metrics struct {
	MessagesSent      prometheus.Counter
	MessagesReceived  prometheus.Counter
	TotalHandovers    prometheus.Counter
	FragmentsReceived prometheus.Counter
	WorkersRegistered prometheus.Gauge
}

func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "lstile_messages_sent_total",
			Help: "Total datagrams sent by the orchestrator.",
		}),
		MessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "lstile_messages_received_total",
			Help: "Total datagrams received by the orchestrator.",
		}),
		TotalHandovers: factory.NewCounter(prometheus.CounterOpts{
			Name: "lstile_handovers_total",
			Help: "Total routable turtle handovers forwarded between workers.",
		}),
		FragmentsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "lstile_fragments_received_total",
			Help: "Total UPLOAD fragments processed across all workers.",
		}),
		WorkersRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lstile_workers_registered",
			Help: "Number of workers currently registered (0-4).",
		}),
	}
}

// Serve runs an HTTP listener exposing reg's metrics at /metrics until ctx
// is canceled, then shuts it down gracefully. It returns nil on a clean
// shutdown.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}
