// Package hive is the client for the Hive metastore REST API: login, the
// table and database operations, and the tool dispatch layer that connects
// model-selected tool names to those operations.
package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is the envelope every operation returns to the model. Tool-level
// failures are carried in Success/Error; only transport-level problems
// surface as Go errors.
type Result struct {
	// StatusCode is the HTTP status of the API response, zero when the
	// request never reached the API.
	StatusCode int `json:"status_code,omitempty"`

	// Success reports whether the operation succeeded (HTTP 2xx).
	Success bool `json:"success"`

	// Data is the parsed response body. Non-JSON bodies are wrapped as
	// {"raw": <text>}.
	Data any `json:"data,omitempty"`

	// Error describes dispatch-level failures (unknown tool, bad arguments).
	Error string `json:"error,omitempty"`
}

// toolFunc executes one dispatched tool against the API.
type toolFunc func(ctx context.Context, args map[string]any) (Result, error)

// Client talks to the Hive metastore REST API. Construct with NewClient,
// authenticate with Login, then run operations directly or through Execute.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	dispatch map[string]toolFunc
}

const (
	defaultTimeout = 30 * time.Second
	loginTimeout   = 10 * time.Second
)

// NewClient constructs an unauthenticated Client for the given API base URL.
// timeout bounds each operation request; zero means the default (30s).
// The tool dispatch table is fixed at construction and never grows.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	c.dispatch = map[string]toolFunc{
		"delete_table": func(ctx context.Context, args map[string]any) (Result, error) {
			schema, table, err := tableArgs(args)
			if err != nil {
				return argError(err), nil
			}
			return c.DeleteTable(ctx, schema, table)
		},
		"create_table": func(ctx context.Context, args map[string]any) (Result, error) {
			schema, table, err := tableArgs(args)
			if err != nil {
				return argError(err), nil
			}
			columns, ok := args["columns"].([]any)
			if !ok {
				return argError(fmt.Errorf("missing or invalid argument: columns")), nil
			}
			return c.CreateTable(ctx, schema, table, columns)
		},
		"get_table_info": func(ctx context.Context, args map[string]any) (Result, error) {
			schema, table, err := tableArgs(args)
			if err != nil {
				return argError(err), nil
			}
			return c.GetTableInfo(ctx, schema, table)
		},
		"list_tables": func(ctx context.Context, args map[string]any) (Result, error) {
			schema, ok := args["schema"].(string)
			if !ok || schema == "" {
				return argError(fmt.Errorf("missing or invalid argument: schema")), nil
			}
			return c.ListTables(ctx, schema)
		},
		"list_databases": func(ctx context.Context, _ map[string]any) (Result, error) {
			return c.ListDatabases(ctx)
		},
	}
	return c
}

// Login authenticates against POST /api/auth/login and stores the returned
// token for subsequent operations. Rejected credentials (HTTP 401/403) map to
// ErrAuthentication, transport failures to ErrConnectivity, and a reply
// without a token field to ErrProtocol.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("hive: marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("hive: create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	login := &http.Client{Timeout: loginTimeout}
	resp, err := login.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrAuthentication, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: login returned HTTP %d", ErrProtocol, resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decoding login response: %v", ErrProtocol, err)
	}
	if body.Token == "" {
		return fmt.Errorf("%w: login response missing token field", ErrProtocol)
	}

	c.token = body.Token
	return nil
}

// DeleteTable drops a table. (DELETE /api/hive/table)
func (c *Client) DeleteTable(ctx context.Context, schema, table string) (Result, error) {
	return c.do(ctx, http.MethodDelete, "/api/hive/table", nil, map[string]any{
		"schema": schema,
		"table":  table,
	})
}

// CreateTable creates a table with the given column definitions, each a
// {"name", "type"} object. (POST /api/hive/table)
func (c *Client) CreateTable(ctx context.Context, schema, table string, columns []any) (Result, error) {
	return c.do(ctx, http.MethodPost, "/api/hive/table", nil, map[string]any{
		"schema":  schema,
		"table":   table,
		"columns": columns,
	})
}

// GetTableInfo fetches table details. (GET /api/hive/table)
func (c *Client) GetTableInfo(ctx context.Context, schema, table string) (Result, error) {
	return c.do(ctx, http.MethodGet, "/api/hive/table", url.Values{
		"schema": {schema},
		"table":  {table},
	}, nil)
}

// ListTables lists the tables in one schema. (GET /api/hive/tables)
func (c *Client) ListTables(ctx context.Context, schema string) (Result, error) {
	return c.do(ctx, http.MethodGet, "/api/hive/tables", url.Values{
		"schema": {schema},
	}, nil)
}

// ListDatabases lists all databases. (GET /api/hive/databases)
func (c *Client) ListDatabases(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodGet, "/api/hive/databases", nil, nil)
}

// Execute routes a model-selected tool name to its API operation. Unknown
// names and malformed arguments come back as failed Results, never as errors;
// the error return is reserved for transport failures.
func (c *Client) Execute(ctx context.Context, name string, args map[string]any) (Result, error) {
	fn, ok := c.dispatch[name]
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("unknown tool: %s", name)}, nil
	}
	return fn(ctx, args)
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do issues one authenticated API request and normalises the response into a
// Result. query and body are both optional.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (Result, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("hive: marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return Result{}, fmt.Errorf("hive: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("agent_token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading response body: %v", ErrConnectivity, err)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		data = map[string]any{"raw": string(raw)}
	}

	return Result{
		StatusCode: resp.StatusCode,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		Data:       data,
	}, nil
}

// tableArgs extracts the schema and table_name arguments shared by the
// table-scoped tools.
func tableArgs(args map[string]any) (schema, table string, err error) {
	schema, ok := args["schema"].(string)
	if !ok || schema == "" {
		return "", "", fmt.Errorf("missing or invalid argument: schema")
	}
	table, ok = args["table_name"].(string)
	if !ok || table == "" {
		return "", "", fmt.Errorf("missing or invalid argument: table_name")
	}
	return schema, table, nil
}

// argError wraps an argument validation failure in a failed Result.
func argError(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
