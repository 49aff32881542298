package pubg

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ruprime/tournament-bot/internal/usecase"
)

func TestClient_LookupNickname(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/shroud":
			_, _ = w.Write([]byte(`[{"nickname":"Shroud"},{"nickname":"shroud_alt"}]`))
		case "/search/nobody":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	ctx := context.Background()

	exists, canonical, err := client.LookupNickname(ctx, "shroud")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !exists || canonical != "Shroud" {
		t.Fatalf("expected canonical Shroud, got exists=%v canonical=%q", exists, canonical)
	}

	exists, canonical, err = client.LookupNickname(ctx, "nobody")
	if err != nil {
		t.Fatalf("lookup unknown: %v", err)
	}
	if exists || canonical != "nobody" {
		t.Fatalf("expected unknown nickname echoed back, got exists=%v canonical=%q", exists, canonical)
	}

	if _, _, err := client.LookupNickname(ctx, "boom"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable on 5xx, got %v", err)
	}
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := ClientConfig{BaseURL: server.URL}
	cfg.CircuitBreaker.Enabled = true
	cfg.CircuitBreaker.FailureThreshold = 2
	client := NewClient(cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := client.LookupNickname(ctx, "down"); err == nil {
			t.Fatal("expected lookup failure")
		}
	}

	// The breaker is open now; the request must be rejected before any call.
	requests := 0
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
	})
	if _, _, err := client.LookupNickname(ctx, "down"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable from open breaker, got %v", err)
	}
	if requests != 0 {
		t.Fatalf("expected no request while breaker open, got %d", requests)
	}
}
