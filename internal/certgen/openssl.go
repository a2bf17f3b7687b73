// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package certgen

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// OpenSSL is a [Provider] that runs "openssl req -new -x509 -nodes". It
// ignores [Request.Hosts].
type OpenSSL struct {
	// Path to the openssl binary. Empty means "openssl" looked up in PATH.
	Path string
}

// Write implements the [Provider] interface.
func (o OpenSSL) Write(ctx context.Context, r *Request) error {
	path := o.Path
	if path == "" {
		path = "openssl"
	}

	cmd := exec.CommandContext(ctx, path,
		"req", "-new", "-x509",
		"-keyout", r.KeyFile,
		"-out", r.CertFile,
		"-days", strconv.Itoa(days(r.Validity)),
		"-nodes",
		"-subj", subjectString(r.Subject),
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if out = bytes.TrimSpace(out); len(out) > 0 {
			return fmt.Errorf("%s failed: %w\n%s", path, err, out)
		}
		return fmt.Errorf("%s failed: %w", path, err)
	}
	return nil
}
