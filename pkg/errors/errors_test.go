package errors

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestErrorMessages(t *testing.T) {
	cause := New("boom")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"load", &LoadError{Kind: "command", Source: "Commands/util/ping.go", Err: ErrMissingName}, "load command Commands/util/ping.go: descriptor has no name"},
		{"duplicate", &DuplicateNameError{Kind: "command", Name: "ping", Source: "p.go"}, `duplicate command "ping" from p.go`},
		{"alias", &DuplicateNameError{Kind: "alias", Name: "p", Source: "pong.go", Existing: "ping"}, `duplicate alias "p" from pong.go (already used by "ping")`},
		{"exec", &HandlerExecutionError{Kind: "event", Name: "greet", Err: cause}, `event "greet" failed: boom`},
		{"panic", &HandlerExecutionError{Kind: "command", Name: "ping", Panic: "nil map"}, `command "ping" panicked: nil map`},
		{"sync", &RemoteSyncError{Scope: "guild G1", Count: 3, Err: cause}, "publish 3 commands to guild G1: boom"},
		{"conn", &ConnectionError{Err: cause}, "gateway connection failed: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := New("401 Unauthorized")
	wrapped := fmt.Errorf("start: %w", &ConnectionError{Err: cause})

	if !Is(wrapped, cause) {
		t.Error("Is() should find the cause through ConnectionError")
	}

	var connErr *ConnectionError
	if !As(wrapped, &connErr) {
		t.Fatal("As() should find the ConnectionError")
	}

	loadErr := &LoadError{Kind: "event", Source: "Events/x.go", Err: ErrMissingDescriptor}
	if !Is(loadErr, ErrMissingDescriptor) {
		t.Error("Is(LoadError, ErrMissingDescriptor) = false, want true")
	}
}

func TestIncrementAndCount(t *testing.T) {
	h := newErrorHandler("", nil)

	for i := 0; i < 3; i++ {
		h.IncrementError()
	}
	if got := h.Count(); got != 3 {
		t.Errorf("Count() = %d, want %d", got, 3)
	}

	h.Record(nil)
	if got := h.Count(); got != 3 {
		t.Errorf("Count() after Record(nil) = %d, want %d", got, 3)
	}
	h.Record(New("x"))
	if got := h.Count(); got != 4 {
		t.Errorf("Count() after Record(err) = %d, want %d", got, 4)
	}
}

func TestAbortOnBurst(t *testing.T) {
	var shutdowns int32
	exited := make(chan int, 1)

	h := newErrorHandler("", func() { atomic.AddInt32(&shutdowns, 1) })
	h.checkInterval = 5 * time.Millisecond
	h.resetInterval = time.Hour
	h.exitFunc = func(code int) { exited <- code }
	h.start()
	defer h.Stop()

	for i := 0; i <= int(h.maxErrors); i++ {
		h.IncrementError()
	}

	select {
	case code := <-exited:
		if code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
	case <-time.After(time.Second):
		t.Fatal("handler did not abort after an error burst")
	}
	if got := atomic.LoadInt32(&shutdowns); got != 1 {
		t.Errorf("shutdown calls = %d, want 1", got)
	}
}

func TestReport(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := newErrorHandler(srv.URL, nil)
	h.Report(ReportErrorOptions{Error: "Test", Message: "something broke"})

	if !strings.Contains(body, `"name":"Error Test"`) {
		t.Errorf("webhook body = %s, want the author name", body)
	}
	if !strings.Contains(body, "something broke") {
		t.Errorf("webhook body = %s, want the message", body)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	handler = newErrorHandler("", nil)
	defer func() { handler = nil }()

	func() {
		defer RecoverMiddleware()()
		panic("handler exploded")
	}()

	if got := handler.Count(); got != 1 {
		t.Errorf("Count() after recovered panic = %d, want 1", got)
	}
}
