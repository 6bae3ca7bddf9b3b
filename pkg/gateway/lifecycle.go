package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully. Writes in flight are given ShutdownTimeout to
// finish their confirmation wait.
func (g *Gateway) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return g.serve(ctx, ln)
}

func (g *Gateway) serve(ctx context.Context, ln net.Listener) error {
	g.server = &http.Server{
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.ComponentInfo(logging.ComponentGateway, "Gateway listening", zap.String("addr", ln.Addr().String()))
		errCh <- g.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := g.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	g.logger.ComponentInfo(logging.ComponentGateway, "Shutting down gateway", zap.Duration("timeout", timeout))
	if err := g.server.Shutdown(shutdownCtx); err != nil {
		g.logger.ComponentWarn(logging.ComponentGateway, "Graceful shutdown incomplete", zap.Error(err))
		return err
	}
	return nil
}

// Close stops background work. It does not close the collaborators passed
// in Dependencies; their owner does.
func (g *Gateway) Close() {
	select {
	case <-g.stop:
	default:
		close(g.stop)
	}
}
