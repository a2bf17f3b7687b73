// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Serve-https serves the X-ray Earth front-end from the current directory over
HTTPS on port 8443.

Mobile browsers only expose device orientation to pages loaded over HTTPS, so
serve-https creates a throwaway self-signed certificate on start and deletes
it on exit. Browsers will warn about the certificate; accept the warning to
continue.

The certificate is made with openssl when it's installed, or in-process
otherwise. Use -certgen to choose.

# Usage

	$ serve-https [flags...]
*/
package main

import (
	_ "embed"

	"go.astrophena.name/xrayserve/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
