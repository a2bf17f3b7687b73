// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"

	"go.astrophena.name/xrayserve/internal/certgen"
	"go.astrophena.name/xrayserve/internal/cli"
	"go.astrophena.name/xrayserve/internal/cli/envflag"
	"go.astrophena.name/xrayserve/internal/devserver"
)

func main() { cli.Main(newEngine()) }

type engine struct {
	c       *devserver.Config
	certgen string

	// used in tests
	noServerStart bool
}

func newEngine() *engine { return &engine{c: devserver.HTTPSConfig()} }

func (e *engine) Flags(fs *flag.FlagSet) {
	e.c.Flags(fs)
	envflag.Var(fs, &e.certgen, "certgen", devserver.EnvPrefix+"CERTGEN", "auto", "Create the certificate with `tool`: auto, openssl or builtin.")
}

func (e *engine) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)
	if len(env.Args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrInvalidArgs, env.Args)
	}
	if e.c.Port < 0 || e.c.Port > 65535 {
		return fmt.Errorf("%w: port %d is out of range", cli.ErrInvalidArgs, e.c.Port)
	}
	certs, err := certgen.ByName(e.certgen)
	if err != nil {
		return fmt.Errorf("%w: %v", cli.ErrInvalidArgs, err)
	}

	e.c.Certs = certs
	e.c.Logf = env.Logf
	e.c.Stdout = env.Stdout

	if e.noServerStart {
		return nil
	}
	return devserver.Run(ctx, e.c)
}
