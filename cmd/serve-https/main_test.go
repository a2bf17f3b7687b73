// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"flag"
	"testing"

	"go.astrophena.name/xrayserve/internal/certgen"
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
			WantInStderr: "throwaway self-signed certificate",
		},
		"version": {
			Args:    []string{"-version"},
			WantErr: cli.ErrExitVersion,
		},
		"runs with no arguments": {
			Args: []string{},
			CheckFunc: func(t *testing.T, e *engine) {
				testutil.AssertEqual(t, e.c.Port, 8443)
				testutil.AssertEqual(t, e.c.PortScan, 1)
				if e.c.Certs == nil {
					t.Error("serve-https must use TLS")
				}
			},
		},
		"builtin generator": {
			Args: []string{"-certgen", "builtin"},
			CheckFunc: func(t *testing.T, e *engine) {
				if _, ok := e.c.Certs.(certgen.Builtin); !ok {
					t.Errorf("want builtin generator, got %T", e.c.Certs)
				}
			},
		},
		"openssl from environment": {
			Env: map[string]string{"XRAYSERVE_CERTGEN": "openssl"},
			CheckFunc: func(t *testing.T, e *engine) {
				if _, ok := e.c.Certs.(certgen.OpenSSL); !ok {
					t.Errorf("want openssl generator, got %T", e.c.Certs)
				}
			},
		},
		"unknown generator": {
			Args:    []string{"-certgen", "mkcert"},
			WantErr: cli.ErrInvalidArgs,
		},
		"port flag": {
			Args: []string{"-port", "9443"},
			CheckFunc: func(t *testing.T, e *engine) {
				testutil.AssertEqual(t, e.c.Port, 9443)
			},
		},
		"unexpected arguments": {
			Args:    []string{"public"},
			WantErr: cli.ErrInvalidArgs,
		},
	})
}
