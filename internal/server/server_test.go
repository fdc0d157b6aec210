package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/backend/emulator"
	"github.com/agbru/fxtree/internal/config"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/logging"
	"github.com/agbru/fxtree/internal/service"
	"github.com/agbru/fxtree/internal/service/mocks"
)

const sampleBody = `{"input_width": 8, "inputs": [[10,20],[5,10],[-20,20],[20,4],[24,3],[4,3],[56,2],[34,24]]}`

func testConfig() config.AppConfig {
	return config.AppConfig{
		Port:       "0",
		InputWidth: config.DefaultInputWidth,
		Backend:    config.DefaultBackend,
		Growth:     config.DefaultGrowth,
		Overflow:   config.DefaultOverflow,
		Timeout:    10 * time.Second,
	}
}

func testRegistry() *backend.Registry {
	reg := backend.NewRegistry()
	reg.Register(emulator.Name, "test emulator", func(string) (backend.Backend, error) {
		return emulator.New(), nil
	})
	return reg
}

func discardLogger() logging.Logger {
	return logging.NewStdLoggerAdapter(log.New(io.Discard, "", 0))
}

// createTestServer initializes a server with a quiet logger and a generous
// rate limit.
func createTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 10000})
	t.Cleanup(rl.Stop)
	base := []Option{WithLogger(discardLogger()), WithRateLimiter(rl)}
	return NewServer(testRegistry(), testConfig(), append(base, opts...)...)
}

func post(t *testing.T, h http.Handler, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/reduce", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

// TestHandleReduce verifies the reduction endpoint against the emulator.
func TestHandleReduce(t *testing.T) {
	t.Parallel()
	srv := createTestServer(t)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{"Sample", sampleBody, http.StatusOK, `"re":"40482624000"`},
		{"Pair", `{"inputs": [[1,0],[0,1]]}`, http.StatusOK, `"im":"1"`},
		{"String literals", `{"inputs": ["(1,0)", "(0,1)"]}`, http.StatusOK, `"width":17`},
		{"Empty body", ``, http.StatusBadRequest, "invalid JSON body"},
		{"Missing inputs", `{"input_width": 8}`, http.StatusBadRequest, "missing 'inputs'"},
		{"Unknown field", `{"inputs": [[1,0],[0,1]], "widht": 8}`, http.StatusBadRequest, "unknown field"},
		{"Not a power of two", `{"inputs": [[1,0],[0,1],[1,1]]}`, http.StatusBadRequest, "power of two"},
		{"Out of range", `{"input_width": 4, "inputs": [[8,0],[0,1]]}`, http.StatusBadRequest, "inputs[0]"},
		{"Unknown growth", `{"growth": "cubic", "inputs": [[1,0],[0,1]]}`, http.StatusBadRequest, "growth"},
		{"Unknown backend", `{"backend": "fpga", "inputs": [[1,0],[0,1]]}`, http.StatusServiceUnavailable, "fpga"},
		{"Linear overflow", `{"input_width": 4, "growth": "linear", "inputs": [[-8,-8],[-8,-8],[-8,-8],[-8,-8]]}`, http.StatusUnprocessableEntity, "overflow"},
		{"Linear wrap", `{"input_width": 4, "growth": "linear", "overflow": "wrap", "inputs": [[-8,-8],[-8,-8],[-8,-8],[-8,-8]]}`, http.StatusOK, `"overflow":"wrap"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := post(t, srv.Handler(), tt.body)
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(strings.ToLower(string(body)), strings.ToLower(tt.expectedBody)) {
				t.Errorf("Expected body to contain %q, got %s", tt.expectedBody, body)
			}
		})
	}
}

// TestHandleReduceResponse decodes a full response.
func TestHandleReduceResponse(t *testing.T) {
	t.Parallel()
	srv := createTestServer(t)

	body := strings.Replace(sampleBody, `"inputs"`, `"expected": [40482624000, -3942432000], "inputs"`, 1)
	resp := post(t, srv.Handler(), body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var got struct {
		Result struct {
			Value   fixed.Complex `json:"value"`
			Backend string        `json:"backend"`
		} `json:"result"`
		Width     int    `json:"width"`
		BatchSize int    `json:"batch_size"`
		Layers    []int  `json:"layers"`
		Passed    *bool  `json:"passed"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.Result.Value.String() != "(40482624000,-3942432000)" {
		t.Errorf("Expected the sample product, got %s", got.Result.Value)
	}
	if got.Result.Backend != emulator.Name || got.Width != 71 || got.BatchSize != 8 {
		t.Errorf("Unexpected metadata: %+v", got)
	}
	if want := []int{8, 17, 35, 71}; len(got.Layers) != len(want) {
		t.Errorf("Expected layers %v, got %v", want, got.Layers)
	}
	if got.Passed == nil || !*got.Passed {
		t.Errorf("Expected passed=true, got %v", got.Passed)
	}
	if got.RequestID == "" || got.RequestID != resp.Header.Get(RequestIDHeader) {
		t.Errorf("Request id %q does not match header %q", got.RequestID, resp.Header.Get(RequestIDHeader))
	}
}

func TestHandleReduceFailedCheck(t *testing.T) {
	t.Parallel()
	srv := createTestServer(t)
	resp := post(t, srv.Handler(), `{"expected": "(1313,2016)", "inputs": [[1,0],[0,1]]}`)
	defer resp.Body.Close()
	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["passed"] != false || got["expected"] != "(1313,2016)" {
		t.Errorf("Expected a failed check, got %v", got)
	}
}

// TestHandleReduceWithMockService checks the request mapping and error statuses.
func TestHandleReduceWithMockService(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"too large", service.ErrBatchTooLarge, http.StatusBadRequest},
		{"unavailable", apperrors.NewBackendUnavailableError("compiled", errors.New("no kernel")), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"backend failure", apperrors.BackendError{Backend: "x", Cause: errors.New("device lost")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockService(ctrl)
			svc.EXPECT().Reduce(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, req service.Request) (service.Outcome, error) {
					if req.InputWidth != 16 || req.Backend != "parallel:workers=2" || len(req.Inputs) != 2 {
						t.Errorf("Unexpected service request: %+v", req)
					}
					if req.Inputs[1].Im.Cmp(big.NewInt(-7)) != 0 {
						t.Errorf("Unexpected input %s", req.Inputs[1])
					}
					return service.Outcome{}, tt.err
				})

			srv := createTestServer(t, WithService(svc))
			resp := post(t, srv.Handler(), `{"input_width": 16, "backend": "parallel:workers=2", "inputs": [[1,2],[3,-7]]}`)
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if errResp.Message == "" || errResp.RequestID == "" {
				t.Errorf("Incomplete error response: %+v", errResp)
			}
		})
	}
}

// TestHandleHealth verifies the health check endpoint.
func TestHandleHealth(t *testing.T) {
	t.Parallel()
	srv := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	var healthResp map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		t.Errorf("Failed to decode health response: %v", err)
	}
	if healthResp["status"] != "healthy" {
		t.Errorf("Expected status=healthy, got %v", healthResp["status"])
	}
}

// TestHandleBackends verifies the backend listing endpoint.
func TestHandleBackends(t *testing.T) {
	t.Parallel()
	srv := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/backends", http.NoBody)
	w := httptest.NewRecorder()
	srv.handleBackends(w, req)

	var got struct {
		Backends []backend.Info `json:"backends"`
		Default  string         `json:"default"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode backends response: %v", err)
	}
	if len(got.Backends) != 1 || got.Backends[0].Name != emulator.Name {
		t.Errorf("Unexpected backends %+v", got.Backends)
	}
	if got.Default != config.DefaultBackend {
		t.Errorf("Expected default %q, got %q", config.DefaultBackend, got.Default)
	}
}

// TestMethodNotAllowed verifies that wrong methods are rejected.
func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	srv := createTestServer(t)

	tests := []struct {
		endpoint string
		method   string
	}{
		{"/reduce", http.MethodGet},
		{"/health", http.MethodPost},
		{"/backends", http.MethodPost},
		{"/metrics", http.MethodPost},
	}
	for _, tt := range tests {
		t.Run(tt.method+tt.endpoint, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.endpoint, http.NoBody)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)
			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected status 405, got %d", w.Code)
			}
		})
	}
}

// TestRequestIDPropagation checks that a valid client id is kept and an
// invalid one replaced.
func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()
	srv := createTestServer(t)

	const clientID = "0b8a4ac7-3c1f-4c5e-9d43-5b7b2f3c8e11"
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set(RequestIDHeader, clientID)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != clientID {
		t.Errorf("Expected request id %q, got %q", clientID, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set(RequestIDHeader, "not-a-uuid\nInjected: x")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got == "" || strings.Contains(got, "not-a-uuid") {
		t.Errorf("Expected a generated request id, got %q", got)
	}
}

// TestObserveMiddlewareLogs verifies that requests are logged with their status.
func TestObserveMiddlewareLogs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	srv := createTestServer(t, WithStdLogger(log.New(&buf, "", 0)))

	req := httptest.NewRequest(http.MethodGet, "/nothing-here", http.NoBody)
	handler := srv.requestIDMiddleware(srv.observeMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"[INFO] request completed", "{status 418}", "{path /nothing-here}", "{request_id "} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q, got %q", want, out)
		}
	}
}

// TestOptions verifies the functional options.
func TestOptions(t *testing.T) {
	t.Parallel()
	timeouts := Timeouts{RequestTimeout: time.Second, ShutdownTimeout: time.Second, ReadTimeout: 2 * time.Second, WriteTimeout: 3 * time.Second, IdleTimeout: 4 * time.Second}
	srv := createTestServer(t, WithTimeouts(timeouts), WithMaxBatchSize(4))
	if srv.timeouts != timeouts {
		t.Errorf("Expected timeouts %+v, got %+v", timeouts, srv.timeouts)
	}
	if srv.httpServer.ReadTimeout != 2*time.Second || srv.httpServer.IdleTimeout != 4*time.Second {
		t.Errorf("http.Server timeouts not applied")
	}
	if srv.securityConfig.MaxBatchSize != 4 {
		t.Errorf("Expected max batch size 4, got %d", srv.securityConfig.MaxBatchSize)
	}

	resp := post(t, srv.Handler(), sampleBody)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a batch over the limit, got %d", resp.StatusCode)
	}

	// A nil logger or service keeps the defaults.
	srv = NewServer(testRegistry(), testConfig(), WithLogger(nil), WithService(nil), WithStdLogger(nil))
	defer srv.rateLimiter.Stop()
	if srv.logger == nil || srv.service == nil {
		t.Error("Expected defaults to be kept")
	}
	if srv.timeouts.RequestTimeout != 10*time.Second {
		t.Errorf("Expected the configured timeout, got %v", srv.timeouts.RequestTimeout)
	}
}
