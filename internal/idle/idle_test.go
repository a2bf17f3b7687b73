// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package idle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTracker(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := NewTracker(50*time.Millisecond, cancel)
	if tracker == nil {
		t.Fatal("NewTracker() = nil, want non-nil")
	}
	tracker.lastActivity.Store(time.Now().Add(-1 * time.Hour).UnixNano())

	go tracker.runActivityMonitor(ctx, 10*time.Millisecond)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled")
	}
}

func TestTrackerActivityKeepsAlive(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := NewTracker(200*time.Millisecond, cancel)
	h := tracker.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tracker.Run(ctx)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if ctx.Err() != nil {
			t.Fatal("context was canceled despite activity")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTrackerHandler(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(time.Hour, func() {})
	tracker.lastActivity.Store(time.Now().Add(-1 * time.Hour).UnixNano())

	handler := tracker.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if time.Since(time.Unix(0, tracker.lastActivity.Load())) > time.Second {
		t.Error("lastActivity was not updated")
	}
}

func TestDisabledTracker(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(0, func() { t.Error("disabled tracker must never cancel") })
	if tracker != nil {
		t.Fatal("NewTracker(0) must return nil")
	}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	tracker.Handler(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("nil tracker must pass requests through")
	}
	tracker.Run(context.Background())
}

func TestTrackerLongRequest(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := NewTracker(50*time.Millisecond, cancel)
	started := make(chan struct{})
	release := make(chan struct{})
	h := tracker.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/earth.glb", nil))
	}()
	<-started
	go tracker.runActivityMonitor(ctx, 10*time.Millisecond)

	// A download longer than the timeout keeps the server alive.
	time.Sleep(300 * time.Millisecond)
	if ctx.Err() != nil {
		t.Fatal("context was canceled while a request was in flight")
	}
	close(release)
	<-done

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled after the request finished")
	}
}
