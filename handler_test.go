package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/btcsuite/btclog"
)

// counterSnoopWriter records the counter value at the moment each log line
// is written.
type counterSnoopWriter struct {
	counter *RequestCounter
	seen    []uint64
	buf     bytes.Buffer
}

func (w *counterSnoopWriter) Write(p []byte) (int, error) {
	w.seen = append(w.seen, w.counter.Value())
	return w.buf.Write(p)
}

func TestCountHandler(t *testing.T) {
	h := newCountHandler(NewRequestCounter())

	for i := 1; i <= 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want %d", i, rec.Code,
				http.StatusOK)
		}
		want := fmt.Sprintf("Num of requests: %d", i)
		if got := rec.Body.String(); got != want {
			t.Fatalf("request %d: body %q, want %q", i, got, want)
		}
		ct := rec.Header().Get("Content-Type")
		if ct != "text/plain; charset=utf-8" {
			t.Errorf("request %d: Content-Type %q", i, ct)
		}
	}
}

func TestCountHandlerAnyMethodAndPath(t *testing.T) {
	counter := NewRequestCounter()
	h := newCountHandler(counter)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "get root", method: http.MethodGet, target: "/"},
		{name: "post with body", method: http.MethodPost, target: "/submit", body: "request body"},
		{name: "put nested", method: http.MethodPut, target: "/a/b/c"},
		{name: "delete with query", method: http.MethodDelete, target: "/item?id=7"},
		{name: "patch", method: http.MethodPatch, target: "/x"},
		{name: "options", method: http.MethodOptions, target: "/"},
		{name: "custom method", method: "PURGE", target: "/cache"},
	}
	for i, tt := range tests {
		// Not parallel: every case shares the counter and expects the
		// next value in sequence.
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target,
				bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status %d, want %d", rec.Code,
					http.StatusOK)
			}
			want := fmt.Sprintf("Num of requests: %d", i+1)
			if got := rec.Body.String(); got != want {
				t.Fatalf("body %q, want %q", got, want)
			}
		})
	}

	if got := counter.Value(); got != uint64(len(tests)) {
		t.Errorf("counter = %d, want %d", got, len(tests))
	}
}

func TestCountHandlersShareCounter(t *testing.T) {
	counter := NewRequestCounter()
	first, second := newCountHandler(counter), newCountHandler(counter)

	rec := httptest.NewRecorder()
	first.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	rec = httptest.NewRecorder()
	second.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Body.String(); got != "Num of requests: 2" {
		t.Errorf("second handler body %q, want %q", got,
			"Num of requests: 2")
	}
}

func TestCountHandlerLogsRequest(t *testing.T) {
	counter := NewRequestCounter()
	w := &counterSnoopWriter{counter: counter}

	prev := hndlLog
	hndlLog = btclog.NewBackend(w).Logger(HandlerSubsystem)
	t.Cleanup(func() {
		hndlLog = prev
	})

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("User-Agent", "counter-test")
	newCountHandler(counter).ServeHTTP(httptest.NewRecorder(), req)

	line := w.buf.String()
	want := "[INF] HNDL: POST /x HTTP/1.1 from 192.0.2.1:1234 (counter-test)"
	if !strings.Contains(line, want) {
		t.Fatalf("log %q does not contain %q", line, want)
	}
	if strings.Count(line, "\n") != 1 {
		t.Errorf("expected exactly one log line, got %q", line)
	}

	// The line is written before the counter moves.
	if len(w.seen) != 1 || w.seen[0] != 0 {
		t.Errorf("counter values seen while logging: %v, want [0]",
			w.seen)
	}
	if got := counter.Value(); got != 1 {
		t.Errorf("counter = %d, want 1", got)
	}
}
