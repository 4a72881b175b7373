package cep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHTTPResolver_ResolvesState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/01310100/json/" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cep": "01310-100", "uf": "SP"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second, zerolog.Nop())

	state, ok := r.StateFor(context.Background(), "01310-100")
	if !ok || state != "SP" {
		t.Errorf("Expected (SP, true), got (%s, %v)", state, ok)
	}
}

func TestHTTPResolver_CachesLookups(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"uf": "RJ"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if state, ok := r.StateFor(context.Background(), "20040-020"); !ok || state != "RJ" {
			t.Fatalf("Expected (RJ, true), got (%s, %v)", state, ok)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected 1 upstream call, got %d", n)
	}
}

func TestHTTPResolver_UnknownCEP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"erro": true}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second, zerolog.Nop())

	if state, ok := r.StateFor(context.Background(), "99999-999"); ok || state != "" {
		t.Errorf("Expected miss, got (%s, %v)", state, ok)
	}

	// misses are cached too
	if _, ok := r.StateFor(context.Background(), "99999-999"); ok {
		t.Error("Expected cached miss")
	}
}

func TestHTTPResolver_UpstreamErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second, zerolog.Nop())

	if _, ok := r.StateFor(context.Background(), "01310-100"); ok {
		t.Error("Expected degraded lookup on upstream error")
	}
}

func TestHTTPResolver_RejectsMalformedCEP(t *testing.T) {
	r := NewHTTPResolver("http://unreachable.invalid", time.Second, zerolog.Nop())

	for _, code := range []string{"", "123", "123456789", "abcdefgh"} {
		if _, ok := r.StateFor(context.Background(), code); ok {
			t.Errorf("Expected %q to be rejected without a lookup", code)
		}
	}
}

func TestStaticResolver(t *testing.T) {
	r := StaticResolver{"01310100": "SP"}

	if state, ok := r.StateFor(context.Background(), "01310-100"); !ok || state != "SP" {
		t.Errorf("Expected formatted code to normalize, got (%s, %v)", state, ok)
	}
	if _, ok := r.StateFor(context.Background(), "20040-020"); ok {
		t.Error("Expected unknown code to miss")
	}
}
