package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/railgun-community/broadcaster-directory/pkg/api"
	"github.com/railgun-community/broadcaster-directory/pkg/directory"
	"github.com/railgun-community/broadcaster-directory/pkg/health"
	"github.com/railgun-community/broadcaster-directory/pkg/metrics"
)

func registerRoutes(dir *directory.Directory, checker *health.Checker, wsAPI *api.WS, logger *zap.Logger) {
	public := api.NewPublic(dir, logger)

	http.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !checker.Healthy() {
			http.Error(w, "waku node unreachable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	// Directory queries
	http.HandleFunc("/broadcasters", public.Broadcasters)
	http.HandleFunc("/broadcasters/best", public.Best)
	http.HandleFunc("/broadcasters/fees", public.TokenFees)

	// Live fee-update stream
	http.HandleFunc("/ws/fees", wsAPI.ServeWS)

	// Metrics
	http.Handle("/metrics", metrics.Handler())
}
