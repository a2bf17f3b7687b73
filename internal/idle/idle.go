// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package idle provides a helper for stopping servers after a period of
// inactivity.
package idle

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// Tracker is an idle tracker.
type Tracker struct {
	lastActivity atomic.Int64
	active       atomic.Int64
	timeout      time.Duration
	cancel       context.CancelFunc
}

// NewTracker returns a new idle tracker that calls cancel once no request was
// in flight for timeout. It returns nil if timeout is not positive.
//
// A nil *Tracker is valid and does nothing.
func NewTracker(timeout time.Duration, cancel context.CancelFunc) *Tracker {
	if timeout <= 0 {
		return nil
	}
	t := &Tracker{
		timeout: timeout,
		cancel:  cancel,
	}
	t.touch()
	return t
}

func (t *Tracker) touch() { t.lastActivity.Store(time.Now().UnixNano()) }

// Handler returns next wrapped with a middleware that tracks requests in
// flight. The server is never idle while a request is being served.
func (t *Tracker) Handler(next http.Handler) http.Handler {
	if t == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.active.Add(1)
		t.touch()
		defer func() {
			t.touch()
			t.active.Add(-1)
		}()
		next.ServeHTTP(w, r)
	})
}

// Run starts the activity monitor in a new goroutine. It stops when ctx is
// canceled.
func (t *Tracker) Run(ctx context.Context) {
	if t == nil {
		return
	}
	go t.runActivityMonitor(ctx, min(t.timeout/4, 30*time.Second))
}

func (t *Tracker) runActivityMonitor(ctx context.Context, tickDuration time.Duration) {
	ticker := time.NewTicker(max(tickDuration, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if t.active.Load() > 0 {
				continue
			}
			if time.Since(time.Unix(0, t.lastActivity.Load())) > t.timeout {
				t.cancel()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
