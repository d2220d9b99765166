package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/ShoMaruoka/color-size-tool/internal/api"
	"github.com/ShoMaruoka/color-size-tool/internal/config"
	"github.com/ShoMaruoka/color-size-tool/internal/logger"
	"github.com/ShoMaruoka/color-size-tool/internal/ratelimit"
	"github.com/ShoMaruoka/color-size-tool/internal/session"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
)

// RateLimiterHandle wraps the keyed limiter so its sweeper stops on shutdown.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-IP request limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	// Errors receives the ListenAndServe failure, if any.
	Errors <-chan error
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)

	handler := api.NewServer(
		do.MustInvoke[*table.Table](i),
		do.MustInvoke[*session.Session](i),
		api.Options{
			CORSOrigins: cfg.Server.CORSOrigins,
			Limiter:     limiter.KeyedRateLimiter,
		},
		log.Component("api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			errCh <- err
		}
		close(errCh)
	}()

	return &HTTPServerHandle{Server: srv, Errors: errCh}, nil
}
