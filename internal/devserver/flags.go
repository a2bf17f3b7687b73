// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package devserver

import (
	"flag"

	"go.astrophena.name/xrayserve/internal/cli/envflag"
	"go.astrophena.name/xrayserve/internal/netutil"
	"go.astrophena.name/xrayserve/internal/web"
)

// EnvPrefix prefixes the environment variables that override flags.
const EnvPrefix = "XRAYSERVE_"

// Flags registers the flags shared by both server variants on fs, using the
// current values of c as defaults.
func (c *Config) Flags(fs *flag.FlagSet) {
	envflag.Var(fs, &c.Dir, "dir", EnvPrefix+"DIR", c.Dir, "Serve files from `path`.")
	envflag.Var(fs, &c.Host, "host", EnvPrefix+"HOST", c.Host, "Bind to `address`. Empty means all interfaces.")
	envflag.Var(fs, &c.Port, "port", EnvPrefix+"PORT", c.Port, "Listen on `port`.")
	envflag.Var(fs, &c.ProbeAddr, "probe", EnvPrefix+"PROBE", orDefault(c.ProbeAddr, netutil.DefaultProbeAddr), "Discover the local network address by routing towards `host:port`. Nothing is sent.")
	envflag.Var(fs, &c.NoCache, "no-cache", EnvPrefix+"NO_CACHE", c.NoCache, "Disable browser caching of served files.")
	envflag.Var(fs, &c.Sandbox, "sandbox", EnvPrefix+"SANDBOX", c.Sandbox, "Restrict filesystem access to the served directory (Linux only).")
	envflag.Var(fs, &c.IdleTimeout, "idle-timeout", EnvPrefix+"IDLE_TIMEOUT", c.IdleTimeout, "Stop after `duration` without requests. Zero means never.")
	envflag.Var(fs, &c.ShutdownTimeout, "shutdown-timeout", EnvPrefix+"SHUTDOWN_TIMEOUT", orDefault(c.ShutdownTimeout, web.DefaultShutdownTimeout), "Wait up to `duration` for active requests on interrupt.")
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
