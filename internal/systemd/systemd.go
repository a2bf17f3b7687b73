// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd lets servers report their state to systemd, for when they
// run as a (user) service.
package systemd

import (
	"context"
	"net"

	"go.astrophena.name/xrayserve/internal/cli"
)

// State defines a sd-notify protocol state.
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
type State string

const (
	// Ready tells the service manager that service startup is finished.
	Ready State = "READY=1"
	// Stopping tells the service manager that the service is beginning its
	// shutdown.
	Stopping State = "STOPPING=1"
)

// Notify sends state to systemd using the sd_notify protocol. The socket is
// taken from the NOTIFY_SOCKET variable of the [cli.Env] carried by ctx;
// without it Notify does nothing. Errors are logged with [cli.Env.Logf].
func Notify(ctx context.Context, state State) {
	env := cli.GetEnv(ctx)
	if env.Getenv == nil {
		return
	}
	addr := &net.UnixAddr{
		Net:  "unixgram",
		Name: env.Getenv("NOTIFY_SOCKET"),
	}
	if addr.Name == "" {
		// Not running under systemd.
		return
	}

	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		env.Logf("systemd: failed when notifying: %v", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(state)); err != nil {
		env.Logf("systemd: failed when notifying: %v", err)
	}
}
