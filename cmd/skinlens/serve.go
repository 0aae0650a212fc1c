package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/skinlens/internal/adapters/http/api"
	"github.com/okian/skinlens/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	// writeSlack is added on top of the poll timeout so an upload can
	// finish polling and still write its response.
	writeSlack = 30 * time.Second
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the companion HTTP API over the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.cfg.Addr
			}
			return c.serve(cmd.Context(), addr, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to the addr setting")
	return cmd
}

// serve blocks until ctx is cancelled, then shuts the server down. ready,
// when set, receives the bound address once the listener is open.
func (c *cli) serve(ctx context.Context, addr string, ready chan<- string) error {
	requestTimeout := c.cfg.PollTimeout + writeSlack
	handler := api.NewServer(c.svc,
		api.WithCORSOrigins(c.cfg.CORSOrigins),
		api.WithRequestTimeout(requestTimeout),
	).Router()

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      requestTimeout + writeSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	c.log.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.log.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	c.log.Info(ctx, "server stopped")
	return nil
}
