// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/xrayserve/internal/cli"
	"go.astrophena.name/xrayserve/internal/testutil"
)

func TestRespondError(t *testing.T) {
	cases := map[string]struct {
		err         error
		wantStatus  int
		wantInBody  []string
		wantLogged  bool
		wantNoInBdy string
	}{
		"not found": {
			err:        ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantInBody: []string{"404 Not Found"},
		},
		"wrapped with message": {
			err:        fmt.Errorf("no such file %q: %w", "earth.glb", ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantInBody: []string{"404 Not Found", "earth.glb"},
		},
		"plain error": {
			err:         errors.New("disk on fire"),
			wantStatus:  http.StatusInternalServerError,
			wantInBody:  []string{"500 Internal Server Error"},
			wantLogged:  true,
			wantNoInBdy: "disk on fire",
		},
		"forbidden": {
			err:        ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantInBody: []string{"403 Forbidden"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var stderr bytes.Buffer
			env := &cli.Env{Stderr: &stderr}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(cli.WithEnv(r.Context(), env))
			RespondError(w, r, tc.err)

			testutil.AssertEqual(t, w.Code, tc.wantStatus)
			testutil.AssertEqual(t, w.Header().Get("X-Content-Type-Options"), "nosniff")
			body := w.Body.String()
			for _, s := range tc.wantInBody {
				if !strings.Contains(body, s) {
					t.Errorf("want %q in body, got:\n%s", s, body)
				}
			}
			if tc.wantNoInBdy != "" && strings.Contains(body, tc.wantNoInBdy) {
				t.Errorf("internal error details leaked into body:\n%s", body)
			}
			if !strings.Contains(body, StaticURL("static/css/main.css")) {
				t.Errorf("error page must link the stylesheet, got:\n%s", body)
			}
			if logged := stderr.Len() > 0; logged != tc.wantLogged {
				t.Errorf("logged = %v, want %v (%q)", logged, tc.wantLogged, stderr.String())
			}
		})
	}
}

func TestStatusErr(t *testing.T) {
	testutil.AssertEqual(t, ErrNotFound.Error(), "not found")
	testutil.AssertEqual(t, ErrMethodNotAllowed.Error(), "method not allowed")
}

func TestStaticURL(t *testing.T) {
	u := StaticURL("static/css/main.css")
	if !strings.HasPrefix(u, InternalPrefix+"static/css/main-") || !strings.HasSuffix(u, ".css") {
		t.Fatalf("unexpected static URL %q", u)
	}
}

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	h := Health(mux)
	if h2 := Health(mux); h2 != h {
		t.Fatal("Health must return the already registered handler")
	}

	check := func(wantStatus int, wantOK bool) HealthResponse {
		t.Helper()
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, InternalPrefix+"health", nil))
		testutil.AssertEqual(t, w.Code, wantStatus)
		var hr HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &hr); err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, hr.OK, wantOK)
		return hr
	}

	check(http.StatusOK, true)

	healthy := true
	h.RegisterFunc("certificate", func() (string, bool) {
		if healthy {
			return "valid", true
		}
		return "expired", false
	})
	hr := check(http.StatusOK, true)
	testutil.AssertEqual(t, hr.Checks["certificate"], CheckResponse{Status: "valid", OK: true})

	healthy = false
	hr = check(http.StatusInternalServerError, false)
	testutil.AssertEqual(t, hr.Checks["certificate"], CheckResponse{Status: "expired", OK: false})

	defer func() {
		if recover() == nil {
			t.Fatal("registering a duplicate check must panic")
		}
	}()
	h.RegisterFunc("certificate", func() (string, bool) { return "", true })
}
