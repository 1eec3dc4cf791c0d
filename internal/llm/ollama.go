// Package llm provides the client for the local Ollama inference backend.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/localdev/devassist/internal/httpkit"
)

// Message represents a chat message for the LLM.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is a client for the Ollama API.
type Client struct {
	baseURL      string
	model        string
	probeTimeout time.Duration
	httpClient   *http.Client
}

// New creates an Ollama client. An empty baseURL or model falls back to
// the stock local install (http://localhost:11434, llama3.2). The
// timeout bounds a single completion request; probeTimeout bounds the
// availability check.
func New(baseURL, model string, timeout, probeTimeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		probeTimeout: probeTimeout,
		httpClient:   httpkit.NewClient(timeout),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// options are the sampling parameters sent with every request.
type options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k,omitempty"`
}

// generateRequest is the request format for the Ollama generate API.
type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	System  string  `json:"system,omitempty"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

// generateResponse is the non-streaming response from the generate API.
type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// chatRequest is the request format for the Ollama chat API.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options"`
}

// chatResponse is the non-streaming response from the chat API.
type chatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Generate sends a one-shot completion request. systemPrompt may be
// empty. Returns the generated text, which may itself be empty when the
// model produces no output; the caller decides how to surface that.
func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: systemPrompt,
		Stream: false,
		Options: options{
			Temperature: 0.7,
			TopP:        0.9,
			TopK:        40,
		},
	}

	var resp generateResponse
	if err := c.post(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Chat sends the conversation history for a chat completion. When
// systemPrompt is non-empty, a system message is prepended. Returns the
// assistant's reply text.
func (c *Client) Chat(ctx context.Context, messages []Message, systemPrompt string) (string, error) {
	if systemPrompt != "" {
		messages = append([]Message{{Role: "system", Content: systemPrompt}}, messages...)
	}

	req := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options: options{
			Temperature: 0.7,
			TopP:        0.9,
		},
	}

	var resp chatResponse
	if err := c.post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// post marshals req, sends it, and decodes the response into out,
// classifying failures into the package's error kinds.
func (c *Client) post(ctx context.Context, path string, req, out any) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(httpkit.ReadErrorBody(resp.Body, 2048)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classifyTransportError maps a failed round trip to ErrTimeout or
// ErrUnavailable. Deadline expiry (context or net-level) means the
// backend was slow; everything else at this layer means we never got an
// answer at all.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// tagsResponse is the response from the Ollama tags API.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the model names the backend has pulled.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}

// Available reports whether the backend is reachable and has the
// configured model pulled. The model match is by substring so that
// "llama3.2" matches "llama3.2:latest".
func (c *Client) Available(ctx context.Context) bool {
	names, err := c.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, name := range names {
		if strings.Contains(name, c.model) {
			return true
		}
	}
	return false
}
