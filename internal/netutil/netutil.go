// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package netutil discovers the machine's outward-facing address and finds
// free ports to listen on.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// DefaultProbeAddr is the address [OutboundIP] routes towards by default. No
// packets are sent to it.
const DefaultProbeAddr = "8.8.8.8:80"

// Loopback is the host name returned by [LocalHost] when the outward-facing
// address can't be determined.
const Loopback = "localhost"

// OutboundIP returns the local IPv4 address the operating system would use to
// reach probe ("host:port").
//
// It "connects" a UDP socket, which only makes the kernel pick a route and a
// local endpoint, and closes it without sending anything.
func OutboundIP(ctx context.Context, probe string) (net.IP, error) {
	if probe == "" {
		probe = DefaultProbeAddr
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", probe)
	if err != nil {
		return nil, fmt.Errorf("resolving outbound address via %s: %w", probe, err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unexpected local address type %T", conn.LocalAddr())
	}
	ip := addr.IP.To4()
	if ip == nil || ip.IsUnspecified() {
		return nil, fmt.Errorf("no usable IPv4 local address for %s (got %v)", probe, addr.IP)
	}
	return ip, nil
}

// LocalHost returns the outward-facing IPv4 address of this machine as a
// string, or fallback if it can't be determined. An empty fallback means
// [Loopback].
//
// The result is meant for display only, so every error degrades to fallback.
func LocalHost(ctx context.Context, probe, fallback string) string {
	if fallback == "" {
		fallback = Loopback
	}
	ip, err := OutboundIP(ctx, probe)
	if err != nil {
		return fallback
	}
	return ip.String()
}

// ErrNoFreePort is returned by [ListenFirstFree] when every port in the range
// is already in use.
var ErrNoFreePort = errors.New("could not find an available port")

// ListenFirstFree binds a TCP listener on host (empty means all interfaces) at
// the first port of [start, start+width) that is not already in use, and
// returns it.
//
// Ports are tried one by one. "Address already in use" moves on to the next
// port; any other error is returned right away. A width below 1 is treated as
// 1, which makes start the only candidate.
//
// Nothing prevents another process from racing for the same range.
func ListenFirstFree(ctx context.Context, host string, start, width int) (net.Listener, error) {
	if width < 1 {
		width = 1
	}
	var lc net.ListenConfig
	for port := start; port < start+width; port++ {
		ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, nil
		}
		if isAddrInUse(err) {
			continue
		}
		return nil, err
	}
	if width == 1 {
		return nil, fmt.Errorf("%w: port %d is in use", ErrNoFreePort, start)
	}
	return nil, fmt.Errorf("%w in range %d-%d", ErrNoFreePort, start, start+width-1)
}

// Port returns the TCP port ln listens on, or 0 if it isn't a TCP listener.
func Port(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
