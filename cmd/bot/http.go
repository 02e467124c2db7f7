package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"solana-trade-bot/internal/observability"
)

// serveHTTP runs the health and metrics server until ctx ends.
func serveHTTP(ctx context.Context, addr string, a *app, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.handleHealth)
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	RPCEndpoint string `json:"rpc_endpoint"`
	Storage     string `json:"storage"`
	Redis       string `json:"redis,omitempty"`
}

// handleHealth reports liveness. Redis, when configured, is pinged.
func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		RPCEndpoint: a.rpc.Endpoint(),
		Storage:     a.backend,
	}
	code := http.StatusOK
	if a.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.redis.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Redis = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			resp.Redis = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
