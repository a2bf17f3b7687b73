// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Serve serves the X-ray Earth front-end from the current directory over plain
HTTP, for testing on this computer and on phones in the same network.

It listens on the first free port between 8000 and 8099 and prints the
addresses to open. Stop it with Ctrl+C.

Some browser features, like device orientation on mobile, only work over
HTTPS. Use serve-https to test them.

# Usage

	$ serve [flags...]
*/
package main

import (
	_ "embed"

	"go.astrophena.name/xrayserve/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
