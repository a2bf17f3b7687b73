// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/benbjohnson/hashfs"
	"golang.org/x/sync/errgroup"

	"go.astrophena.name/xrayserve/internal/httplogger"
	"go.astrophena.name/xrayserve/internal/logger"
)

// DefaultShutdownTimeout is how long [ListenAndServe] waits for active
// connections to finish before closing them.
const DefaultShutdownTimeout = 30 * time.Second

// ListenAndServeConfig is used to configure the HTTP server started by
// [ListenAndServe].
//
// All fields of ListenAndServeConfig can't be modified after [ListenAndServe]
// is called.
type ListenAndServeConfig struct {
	// Addr is a network address to listen on (in the form of "host:port").
	// Ignored if Listener is set.
	Addr string
	// Listener is an already bound listener to serve on. ListenAndServe takes
	// ownership of it and closes it when done.
	Listener net.Listener
	// TLSConfig, if not nil, makes the server speak HTTPS: the listener is
	// wrapped in a server-side TLS layer before accepting connections.
	TLSConfig *tls.Config
	// Mux is a http.ServeMux to serve.
	Mux *http.ServeMux
	// Logf specifies a logger to use. If nil, log.Printf is used.
	Logf logger.Logf
	// ShutdownTimeout limits graceful shutdown. After it expires, remaining
	// connections are closed forcibly. Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
	// Ready, if not nil, is called with the listening address once the server
	// accepts connections.
	Ready func(net.Addr)
}

var (
	errNoAddr = errors.New("c.Addr is empty")
	errNilMux = errors.New("c.Mux is nil")
)

// ListenAndServe starts the HTTP server based on the provided
// [ListenAndServeConfig] and blocks until ctx is canceled or the server fails.
//
// When ctx is canceled, the server stops accepting new connections, closes
// idle ones and waits for active ones up to c.ShutdownTimeout, after which
// they are closed. A shutdown triggered by ctx returns nil.
func ListenAndServe(ctx context.Context, c *ListenAndServeConfig) error {
	if c.Logf == nil {
		c.Logf = log.Printf
	}
	if c.Mux == nil {
		return errNilMux
	}
	if c.Listener == nil && c.Addr == "" {
		return errNoAddr
	}
	timeout := c.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	l := c.Listener
	if l == nil {
		var err error
		l, err = net.Listen("tcp", c.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
	}
	defer l.Close()

	scheme := "http"
	if c.TLSConfig != nil {
		scheme = "https"
	}
	c.Logf("Listening on %s://%s...", scheme, l.Addr())

	initInternalRoutes(c)

	s := &http.Server{
		Handler:           httplogger.Handler(c.Mux, c.Logf),
		ErrorLog:          logger.StdLogger(c.Logf),
		TLSConfig:         c.TLSConfig,
		ReadHeaderTimeout: 10 * time.Second,
		// Handlers see a context that carries values of ctx, but isn't
		// canceled with it, so in-flight requests can finish during shutdown.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if c.TLSConfig != nil {
			// Certificates come from TLSConfig.
			err = s.ServeTLS(l, "", "")
		} else {
			err = s.Serve(l)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() == nil {
			// Serve failed on its own, make sure everything is released.
			return s.Close()
		}

		c.Logf("Gracefully shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			c.Logf("Graceful shutdown failed (%v), closing remaining connections.", err)
			s.Close()
		}
		return nil
	})

	if c.Ready != nil {
		c.Ready(l.Addr())
	}

	return g.Wait()
}

func initInternalRoutes(c *ListenAndServeConfig) {
	c.Mux.Handle(InternalPrefix+"static/", http.StripPrefix(InternalPrefix[:len(InternalPrefix)-1], hashfs.FileServer(StaticFS)))
	Health(c.Mux)
}
