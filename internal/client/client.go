// Package client abstracts how the CLI reaches the dispatch service:
// in-process against an mcp.Server, or over HTTP against a running
// serve instance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/localdev/devassist/internal/httpkit"
	"github.com/localdev/devassist/internal/mcp"
)

// Dispatcher submits one envelope request and returns the envelope
// response. The error return is for transport failures only; action
// failures arrive as success:false responses.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *mcp.Request) (*mcp.Response, error)
}

// Local dispatches in-process.
type Local struct {
	Server *mcp.Server
}

// Dispatch implements Dispatcher.
func (l Local) Dispatch(ctx context.Context, req *mcp.Request) (*mcp.Response, error) {
	return l.Server.Dispatch(ctx, req), nil
}

// HTTP dispatches to a remote serve instance's /mcp endpoint.
type HTTP struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTP creates an HTTP dispatcher for the given base URL. A zero
// timeout disables the client deadline; completion-backed actions can
// run long, so the caller bounds requests with a context instead.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpkit.NewClient(timeout),
	}
}

// Dispatch implements Dispatcher.
func (h *HTTP) Dispatch(ctx context.Context, req *mcp.Request) (*mcp.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/mcp", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("server unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusBadRequest {
		return nil, fmt.Errorf("server error %d: %s",
			httpResp.StatusCode, strings.TrimSpace(httpkit.ReadErrorBody(httpResp.Body, 2048)))
	}

	var resp mcp.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}
