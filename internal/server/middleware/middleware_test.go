package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/pkg/logging"
)

// TestChain_ExecutionOrder verifies first added is outermost middleware.
func TestChain_ExecutionOrder(t *testing.T) {
	var executionLog []string

	mark := func(n string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				executionLog = append(executionLog, "start-"+n)
				next.ServeHTTP(w, r)
				executionLog = append(executionLog, "end-"+n)
			})
		}
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		executionLog = append(executionLog, "handler")
	})

	Chain(mark("1"), mark("2"))(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/model", nil))

	expected := []string{"start-1", "start-2", "handler", "end-2", "end-1"}
	if strings.Join(executionLog, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, executionLog)
	}
}

// TestRequestID tests id propagation and generation.
func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/model", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	handler.ServeHTTP(w, req)

	if seen != "abc-123" || w.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("expected propagated id, got ctx=%q header=%q", seen, w.Header().Get(RequestIDHeader))
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/model", nil))
	if seen == "" || seen == "abc-123" || w.Header().Get(RequestIDHeader) != seen {
		t.Errorf("expected generated id, got ctx=%q header=%q", seen, w.Header().Get(RequestIDHeader))
	}
}

// TestLogger tests request logging middleware.
func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		level         string
	}{
		{"pull", "GET", "/model", http.StatusOK, "info"},
		{"feedback", "POST", "/feedback", http.StatusCreated, "info"},
		{"bad request", "POST", "/feedback", http.StatusBadRequest, "info"},
		{"server error", "GET", "/model", http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				zerolog.Ctx(r.Context()).Debug().Msg("inside handler")
				w.WriteHeader(tt.handlerStatus)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "192.168.1.1:12345"
			w := httptest.NewRecorder()
			Logger(&logger)(handler).ServeHTTP(w, req)

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			var entry map[string]any
			if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
				t.Fatalf("failed to parse log entry: %v", err)
			}

			if entry["method"] != tt.method {
				t.Errorf("expected method=%s, got %v", tt.method, entry["method"])
			}
			if entry["path"] != tt.path {
				t.Errorf("expected path=%s, got %v", tt.path, entry["path"])
			}
			if int(entry["status"].(float64)) != tt.handlerStatus {
				t.Errorf("expected status=%d, got %v", tt.handlerStatus, entry["status"])
			}
			if entry["level"] != tt.level {
				t.Errorf("expected level=%s, got %v", tt.level, entry["level"])
			}
			if entry["message"] != "HTTP request" {
				t.Errorf("unexpected message %v", entry["message"])
			}
		})
	}
}

// TestLogger_KeepsFlusher tests that streaming handlers can still flush.
func TestLogger_KeepsFlusher(t *testing.T) {
	logger := zerolog.Nop()
	var flushErr error
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: x\n\n"))
		flushErr = http.NewResponseController(w).Flush()
	})

	w := httptest.NewRecorder()
	Logger(&logger)(handler).ServeHTTP(w, httptest.NewRequest("GET", "/model/stream", nil))

	if flushErr != nil {
		t.Errorf("flush through middleware failed: %v", flushErr)
	}
	if !w.Flushed {
		t.Error("expected recorder to be flushed")
	}
}

// TestLogger_ExposesHijacker tests that the wrapper implements http.Hijacker.
func TestLogger_ExposesHijacker(t *testing.T) {
	var rw http.ResponseWriter = wrap(httptest.NewRecorder())
	if _, ok := rw.(http.Hijacker); !ok {
		t.Fatal("responseWriter does not implement http.Hijacker")
	}
	if _, ok := rw.(http.Flusher); !ok {
		t.Fatal("responseWriter does not implement http.Flusher")
	}
	// httptest.ResponseRecorder cannot be hijacked.
	if _, _, err := rw.(http.Hijacker).Hijack(); err == nil {
		t.Error("expected hijack of recorder to fail")
	}
}

// TestRecovery tests panic recovery.
func TestRecovery(t *testing.T) {
	log := logging.NewTestLogger(t)
	handler := Recovery(log.Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/model", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"INTERNAL_ERROR"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	log.AssertContains(t, "Panic recovered")
	log.AssertContains(t, "kaboom")
}

type recordedRequest struct {
	method, path string
	code         int
}

type fakeObserver struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeObserver) ObserveRequest(method, path string, code int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{method, path, code})
}

// TestMetrics tests that requests are labelled by route pattern.
func TestMetrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/model", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	obs := &fakeObserver{}
	handler := Metrics(obs)(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/model", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/random/path/123", nil))

	if len(obs.requests) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs.requests))
	}
	if obs.requests[0] != (recordedRequest{"GET", "/model", http.StatusOK}) {
		t.Errorf("unexpected observation %+v", obs.requests[0])
	}
	if obs.requests[1] != (recordedRequest{"GET", "unmatched", http.StatusNotFound}) {
		t.Errorf("unexpected observation %+v", obs.requests[1])
	}
}
