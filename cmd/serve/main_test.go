// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"flag"
	"testing"

	"go.astrophena.name/xrayserve/internal/cli"
	"go.astrophena.name/xrayserve/internal/cli/clitest"
	"go.astrophena.name/xrayserve/internal/testutil"
)

func TestEngineMain(t *testing.T) {
	t.Parallel()

	clitest.Run(t, func(t *testing.T) *engine {
		e := newEngine()
		e.noServerStart = true
		return e
	}, map[string]clitest.Case[*engine]{
		"prints usage with help flag": {
			Args:         []string{"-h"},
			WantErr:      flag.ErrHelp,
			WantInStderr: "first free port between 8000 and 8099",
		},
		"version": {
			Args:    []string{"-version"},
			WantErr: cli.ErrExitVersion,
		},
		"runs with no arguments": {
			Args: []string{},
			CheckFunc: func(t *testing.T, e *engine) {
				testutil.AssertEqual(t, e.c.Dir, ".")
				testutil.AssertEqual(t, e.c.Port, 8000)
				testutil.AssertEqual(t, e.c.PortScan, 100)
				testutil.AssertEqual(t, e.c.NoCache, true)
				if e.c.Certs != nil {
					t.Error("serve must not use TLS")
				}
			},
		},
		"flags": {
			Args: []string{"-port", "9000", "-scan", "5", "-dir", "site"},
			CheckFunc: func(t *testing.T, e *engine) {
				testutil.AssertEqual(t, e.c.Port, 9000)
				testutil.AssertEqual(t, e.c.PortScan, 5)
				testutil.AssertEqual(t, e.c.Dir, "site")
			},
		},
		"environment": {
			Env: map[string]string{
				"XRAYSERVE_PORT": "8080",
				"XRAYSERVE_SCAN": "1",
			},
			CheckFunc: func(t *testing.T, e *engine) {
				testutil.AssertEqual(t, e.c.Port, 8080)
				testutil.AssertEqual(t, e.c.PortScan, 1)
			},
		},
		"invalid environment": {
			Env:     map[string]string{"XRAYSERVE_SCAN": "many"},
			WantErr: cli.ErrInvalidArgs,
		},
		"unexpected arguments": {
			Args:    []string{"public"},
			WantErr: cli.ErrInvalidArgs,
		},
		"port out of range": {
			Args:    []string{"-port", "70000"},
			WantErr: cli.ErrInvalidArgs,
		},
	})
}
