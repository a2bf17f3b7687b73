// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger defines a type for writing to logs.
package logger

import "log"

// Logf is the basic logger type: a printf-like func. Like [log.Printf], the
// format need not end in a newline. Logf functions must be safe for concurrent
// use.
type Logf func(format string, args ...any)

// Write implements the [io.Writer] interface.
func (f Logf) Write(p []byte) (n int, err error) {
	f("%s", p)
	return len(p), nil
}

// Discard is a Logf that throws all logs away.
func Discard(format string, args ...any) {}

// StdLogger returns a [log.Logger] that writes to f. Useful for APIs that want
// a *log.Logger, like [http.Server.ErrorLog].
func StdLogger(f Logf) *log.Logger {
	if f == nil {
		f = Discard
	}
	return log.New(f, "", 0)
}
