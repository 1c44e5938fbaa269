package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/infra/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Run serves handler on the plain HTTP port and, when TLS files are
// configured, on the HTTPS port too. It blocks until ctx is cancelled or a
// listener fails, then shuts every listener down gracefully.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	httpLis, err := net.Listen("tcp", cfg.HTTPAddress())
	if err != nil {
		return err
	}
	var httpsLis net.Listener
	if cfg.HTTPSEnabled() {
		if httpsLis, err = net.Listen("tcp", cfg.HTTPSAddress()); err != nil {
			httpLis.Close()
			return err
		}
	}
	return Serve(ctx, httpLis, httpsLis, cfg, handler, logger)
}

// Serve is Run on listeners the caller already opened. httpsLis may be nil.
func Serve(
	ctx context.Context,
	httpLis, httpsLis net.Listener,
	cfg *config.Config,
	handler http.Handler,
	logger *zap.Logger,
) error {
	g, ctx := errgroup.WithContext(ctx)
	var servers []*http.Server

	plain := newServer(handler)
	servers = append(servers, plain)
	g.Go(func() error {
		logger.Info("HTTP server listening",
			zap.String("addr", httpLis.Addr().String()),
			zap.String("env", cfg.EnvName),
		)
		return ignoreClosed(plain.Serve(httpLis))
	})

	if httpsLis != nil {
		secure := newServer(handler)
		servers = append(servers, secure)
		g.Go(func() error {
			logger.Info("HTTPS server listening",
				zap.String("addr", httpsLis.Addr().String()),
				zap.String("env", cfg.EnvName),
			)
			return ignoreClosed(secure.ServeTLS(httpsLis, cfg.HTTPSCertFile, cfg.HTTPSKeyFile))
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("ctx cancelled, stopping HTTP servers…")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
				s.Close()
			}
		}
		logger.Info("HTTP servers stopped")
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
