package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"ratelock/internal/config"

	"github.com/sirupsen/logrus"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Start serves handler on cfg.Port until ctx is canceled, then drains
// in-flight requests for at most the shutdown timeout.
func Start(ctx context.Context, cfg config.HTTPServer, handler http.Handler) error {
	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return err
	}
	logrus.WithField("addr", listener.Addr().String()).Info("✅ HTTP server listening")

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: orDefault(cfg.ReadHeaderTimeout(), defaultReadHeaderTimeout),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), orDefault(cfg.ShutdownTimeout(), defaultShutdownTimeout))
	defer cancel()
	logrus.Info("Shutting down HTTP server")
	return server.Shutdown(shutdownCtx)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
