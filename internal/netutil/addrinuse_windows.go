// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package netutil

import (
	"errors"
	"syscall"
)

// WSAEADDRINUSE
const errWSAAddrInUse syscall.Errno = 10048

func isAddrInUse(err error) bool {
	return errors.Is(err, errWSAAddrInUse) || errors.Is(err, syscall.EADDRINUSE)
}
