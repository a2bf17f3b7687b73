// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package devserver starts a local static file server for testing a web
// front-end on desktop and mobile browsers, and tells the developer how to
// reach it.
package devserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/landlock-lsm/go-landlock/landlock"

	"go.astrophena.name/xrayserve/internal/certgen"
	"go.astrophena.name/xrayserve/internal/cli"
	"go.astrophena.name/xrayserve/internal/cli/restrict"
	"go.astrophena.name/xrayserve/internal/fileserver"
	"go.astrophena.name/xrayserve/internal/idle"
	"go.astrophena.name/xrayserve/internal/logger"
	"go.astrophena.name/xrayserve/internal/netutil"
	"go.astrophena.name/xrayserve/internal/systemd"
	"go.astrophena.name/xrayserve/internal/web"
)

// Defaults of the two server variants.
const (
	DefaultTitle     = "X-ray Earth"
	DefaultHTTPPort  = 8000
	DefaultHTTPScan  = 100
	DefaultHTTPSPort = 8443
)

// Config configures [Run].
type Config struct {
	// Title names the served application in the banner.
	Title string
	// Dir is the directory to serve. Defaults to the working directory.
	Dir string
	// Host is the address to bind. Empty means all interfaces.
	Host string
	// Port is the first port to try.
	Port int
	// PortScan is the number of consecutive ports to try, starting at Port.
	// 1 (or less) means only Port is tried.
	PortScan int
	// ProbeAddr is the address used to discover the address of this machine
	// on the local network. Nothing is sent to it. Defaults to
	// netutil.DefaultProbeAddr.
	ProbeAddr string
	// FallbackHost is shown instead of the local network address when it
	// can't be discovered. Defaults to netutil.Loopback.
	FallbackHost string
	// Certs, if not nil, makes the server speak HTTPS with a throwaway
	// self-signed certificate created by this provider.
	Certs certgen.Provider
	// CertHosts are extra names put in the certificate. The discovered local
	// network address is always added.
	CertHosts []string
	// CertDir is where the certificate directory is created. Empty means
	// os.TempDir().
	CertDir string
	// ShutdownTimeout limits how long active requests may take to finish on
	// interrupt. Zero means web.DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
	// IdleTimeout, if positive, stops the server once no files were requested
	// for that long.
	IdleTimeout time.Duration
	// NoCache disables browser caching of served files.
	NoCache bool
	// Sandbox restricts filesystem access of the process to Dir (and the
	// certificate directory) once the server is set up. Linux only.
	Sandbox bool
	// Logf logs requests and lifecycle events. Defaults to the Logf of the
	// cli.Env in the context.
	Logf logger.Logf
	// Stdout receives the banner. Defaults to the Stdout of the cli.Env in the
	// context.
	Stdout io.Writer

	// ready is called once the server accepts connections.
	ready func(addr net.Addr, pair *certgen.Pair)
}

// HTTPConfig returns the defaults of the plain HTTP server: the first free
// port in [8000, 8099].
func HTTPConfig() *Config {
	return &Config{
		Title:    DefaultTitle,
		Dir:      ".",
		Port:     DefaultHTTPPort,
		PortScan: DefaultHTTPScan,
		NoCache:  true,
	}
}

// HTTPSConfig returns the defaults of the HTTPS server: port 8443 and a
// certificate from whatever generator is available.
func HTTPSConfig() *Config {
	return &Config{
		Title:    DefaultTitle,
		Dir:      ".",
		Port:     DefaultHTTPSPort,
		PortScan: 1,
		Certs:    certgen.Auto(),
		NoCache:  true,
	}
}

func (c *Config) setDefaults(ctx context.Context) {
	env := cli.GetEnv(ctx)
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.ProbeAddr == "" {
		c.ProbeAddr = netutil.DefaultProbeAddr
	}
	if c.FallbackHost == "" {
		c.FallbackHost = netutil.Loopback
	}
	if c.Logf == nil {
		c.Logf = env.Logf
	}
	if c.Stdout == nil {
		c.Stdout = env.Stdout
	}
}

func (c *Config) scheme() string {
	if c.Certs != nil {
		return "https"
	}
	return "http"
}

// Run serves c.Dir until ctx is canceled.
//
// It discovers the local network address, creates the certificate if
// c.Certs is set, binds the first free port, prints the banner and serves.
// When ctx is canceled, the server is shut down first and the certificate is
// deleted after. A shutdown caused by ctx returns nil.
func Run(ctx context.Context, c *Config) error {
	c.setDefaults(ctx)

	dir, err := filepath.Abs(c.Dir)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(dir); err != nil {
		return err
	} else if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	localHost := netutil.LocalHost(ctx, c.ProbeAddr, c.FallbackHost)

	var pair *certgen.Pair
	if c.Certs != nil {
		fmt.Fprintln(c.Stdout, "Creating self-signed certificate...")
		hosts := slices.Clone(c.CertHosts)
		if localHost != c.FallbackHost {
			hosts = append(hosts, localHost)
		}
		pair, err = certgen.Generate(ctx, c.Certs, certgen.Options{
			Hosts:   hosts,
			TempDir: c.CertDir,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := pair.Remove(); err != nil {
				c.Logf("Failed to remove certificate: %v", err)
			}
		}()
	}

	ln, err := netutil.ListenFirstFree(ctx, c.Host, c.Port, c.PortScan)
	if err != nil {
		return err
	}

	var tlsConfig *tls.Config
	if pair != nil {
		cert, err := pair.Load()
		if err != nil {
			ln.Close()
			return err
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	if c.Sandbox {
		// System MIME tables are read lazily, so read them while allowed.
		mime.TypeByExtension(".html")
		rules := []landlock.Rule{landlock.RODirs(dir)}
		if pair != nil {
			rules = append(rules, landlock.RWDirs(filepath.Dir(pair.Dir)))
		}
		restrict.Do(ctx, rules...)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	tracker := idle.NewTracker(c.IdleTimeout, func() {
		c.Logf("No requests for %v, stopping.", c.IdleTimeout)
		cancel()
	})
	tracker.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/", tracker.Handler(fileserver.New(os.DirFS(dir), fileserver.NoCache(c.NoCache))))
	registerHealthChecks(web.Health(mux), dir, pair)

	port := netutil.Port(ln)
	printBanner(c.Stdout, &banner{
		title:     c.Title,
		scheme:    c.scheme(),
		localHost: localHost,
		port:      port,
		pair:      pair,
	})

	if err := web.ListenAndServe(ctx, &web.ListenAndServeConfig{
		Listener:        ln,
		TLSConfig:       tlsConfig,
		Mux:             mux,
		Logf:            c.Logf,
		ShutdownTimeout: c.ShutdownTimeout,
		Ready: func(addr net.Addr) {
			systemd.Notify(ctx, systemd.Ready)
			if c.ready != nil {
				c.ready(addr, pair)
			}
		},
	}); err != nil {
		return err
	}
	systemd.Notify(ctx, systemd.Stopping)

	fmt.Fprintln(c.Stdout, "\nServer stopped.")
	return nil
}

func registerHealthChecks(h *web.HealthHandler, dir string, pair *certgen.Pair) {
	h.RegisterFunc("dir", func() (string, bool) {
		if _, err := os.Stat(dir); err != nil {
			return err.Error(), false
		}
		return dir, true
	})
	if pair == nil {
		return
	}
	h.RegisterFunc("certificate", func() (string, bool) {
		if time.Now().After(pair.NotAfter) {
			return "expired at " + pair.NotAfter.Format(time.RFC3339), false
		}
		return "valid until " + pair.NotAfter.Format(time.RFC3339), true
	})
}
