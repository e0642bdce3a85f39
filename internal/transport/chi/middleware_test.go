package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestIdentity(t *testing.T) {
	var owner string
	h := Identity()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		owner = OwnerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(UserHeader, "  u1 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if owner != "u1" {
		t.Errorf("owner = %q", owner)
	}

	owner = "unset"
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if owner != "" {
		t.Errorf("anonymous owner = %q", owner)
	}
}

func TestIdentity_TooLong(t *testing.T) {
	h := Identity()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	long := make([]byte, maxUserIDLength+1)
	for i := range long {
		long[i] = 'a'
	}
	req.Header.Set(UserHeader, string(long))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := JSONRecoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeInternalError {
		t.Errorf("code = %q", resp.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("expected panic log")
	}
}

func TestCallerAddr(t *testing.T) {
	tests := []struct {
		name   string
		cfg    CallerConfig
		fwd    string
		remote string
		want   string
	}{
		{"remote", CallerConfig{}, "", "192.0.2.7:5555", "192.0.2.7"},
		{"forwards ignored", CallerConfig{}, "9.9.9.9", "192.0.2.7:5555", "192.0.2.7"},
		{"forwards trusted", CallerConfig{TrustForwards: true}, "9.9.9.9, 10.0.0.1", "192.0.2.7:5555", "9.9.9.9"},
		{"fixed", CallerConfig{FixedIP: "1.1.1.1", TrustForwards: true}, "9.9.9.9", "192.0.2.7:5555", "1.1.1.1"},
		{"no port", CallerConfig{}, "", "192.0.2.7", "192.0.2.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remote
			if tt.fwd != "" {
				req.Header.Set("X-Forwarded-For", tt.fwd)
			}
			if got := tt.cfg.addr(req); got != tt.want {
				t.Errorf("addr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWideEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := WideEvent(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/search?q=hi", http.NoBody))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["query"] != "hi" {
		t.Errorf("fields = %v", fields)
	}
}
