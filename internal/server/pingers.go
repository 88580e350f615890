package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// HivePinger probes the Hive REST API for reachability. Any HTTP response
// counts as reachable; only transport failures fail the probe, since the API
// requires authentication for all functional endpoints.
type HivePinger struct {
	baseURL string
	client  *http.Client
}

// NewHivePinger constructs a HivePinger for the given API base URL.
func NewHivePinger(baseURL string) *HivePinger {
	return &HivePinger{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Name returns the dependency label used in readiness responses.
func (p *HivePinger) Name() string { return "hive-api" }

// Ping issues a GET against the API root and succeeds on any HTTP response.
func (p *HivePinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("api unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
