// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build linux && !android

package restrict

import (
	"context"

	"github.com/landlock-lsm/go-landlock/landlock"

	"go.astrophena.name/xrayserve/internal/cli"
)

// Do restricts filesystem access of all goroutines of this program to
// [landlock.Rule]s. Network access is left alone: listeners are expected to be
// bound already.
//
// Restriction is best-effort. It reports whether the restriction was applied
// and logs the reason when it wasn't.
func Do(ctx context.Context, rules ...landlock.Rule) bool {
	if err := landlock.V5.BestEffort().RestrictPaths(rules...); err != nil {
		cli.GetEnv(ctx).Logf("Sandboxing failed: %v", err)
		return false
	}
	return true
}
