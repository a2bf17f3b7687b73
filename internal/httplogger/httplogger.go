// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package httplogger provides a http.Handler middleware that logs HTTP
// requests and responses.
//
// Every request is logged once it completes, with the client address, method,
// path, protocol, response status, number of bytes written and the time it
// took, in the spirit of the common log format:
//
//	192.168.1.23 "GET /index.html HTTP/1.1" 200 1024 (0.002s)
package httplogger

import (
	"log"
	"net"
	"net/http"
	"time"
)

// Logf is a simple printf-like logging function.
type Logf func(format string, args ...any)

// Handler returns an http.Handler that calls h and logs every request with
// logf. If logf is nil, log.Printf is used.
func Handler[L ~func(string, ...any)](h http.Handler, logf L) http.Handler {
	lf := Logf(logf)
	if lf == nil {
		lf = log.Printf
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w}
		h.ServeHTTP(rw, r)

		status := rw.status
		if status == 0 {
			status = http.StatusOK
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		lf("%s %q %d %d (%.3fs)", host, r.Method+" "+r.URL.RequestURI()+" "+r.Proto, status, rw.written, time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *responseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
