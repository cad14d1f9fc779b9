// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sondehub/sondehub-go/metrics"
)

// serveMetrics exposes the client metrics on addr. With an empty addr no
// server is started and the returned metrics are nil.
func serveMetrics(
	addr string,
	log *slog.Logger,
) (*metrics.Metrics, func(), error) {
	if addr == "" {
		return nil, func() {}, nil
	}

	m := metrics.New(metrics.DefaultNamespace)
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return nil, nil, err
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	log.Info("serving metrics", "addr", lis.Addr().String())

	return m, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
