// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package httplogger

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		h        http.HandlerFunc
		path     string
		wantLine string
	}{
		"implicit 200": {
			h: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("hello"))
			},
			path:     "/index.html",
			wantLine: `192.0.2.1 "GET /index.html HTTP/1.1" 200 5 `,
		},
		"explicit status": {
			h: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			path:     "/missing?x=1",
			wantLine: `192.0.2.1 "GET /missing?x=1 HTTP/1.1" 404 `,
		},
		"nothing written": {
			h:        func(w http.ResponseWriter, r *http.Request) {},
			path:     "/",
			wantLine: `192.0.2.1 "GET / HTTP/1.1" 200 0 `,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var lines []string
			logf := func(format string, args ...any) {
				lines = append(lines, fmt.Sprintf(format, args...))
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, tc.path, nil)
			Handler(tc.h, logf).ServeHTTP(w, r)

			if len(lines) != 1 {
				t.Fatalf("want exactly one log line, got %q", lines)
			}
			if !strings.HasPrefix(lines[0], tc.wantLine) {
				t.Fatalf("want log line starting with %q, got %q", tc.wantLine, lines[0])
			}
		})
	}
}
