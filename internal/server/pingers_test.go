package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

func TestHivePinger(t *testing.T) {
	t.Parallel()

	t.Run("any HTTP response counts as reachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		p := NewHivePinger(srv.URL)
		if p.Name() != "hive-api" {
			t.Errorf("Name() = %q, want hive-api", p.Name())
		}
		if err := p.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error: %v", err)
		}
	})

	t.Run("transport failure fails the probe", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		p := NewHivePinger(srv.URL)
		if err := p.Ping(context.Background()); err == nil {
			t.Error("Ping() = nil, want error for unreachable API")
		}
	})
}

func TestQdrantPinger(t *testing.T) {
	t.Parallel()

	// The Qdrant client dials lazily, so construction against a dead port
	// succeeds and only the health check RPC fails.
	client, err := qdrant.NewClient(&qdrant.Config{Host: "127.0.0.1", Port: 1})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	defer client.Close()

	p := NewQdrantPinger(client)
	if p.Name() != "qdrant" {
		t.Errorf("Name() = %q, want qdrant", p.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err == nil {
		t.Error("Ping() = nil, want error for unreachable Qdrant")
	}
}
