package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Model: got.Model, Response: "def add(a, b):\n    return a + b", Done: true})
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3.2", 5*time.Second, time.Second)
	text, err := c.Generate(context.Background(), "write an add function", "you are helpful")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text == "" {
		t.Error("Generate returned empty text")
	}

	if got.Model != "llama3.2" {
		t.Errorf("request model = %q, want llama3.2", got.Model)
	}
	if got.System != "you are helpful" {
		t.Errorf("request system = %q", got.System)
	}
	if got.Stream {
		t.Error("request asked for streaming")
	}
	if got.Options.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", got.Options.Temperature)
	}
}

func TestChat_PrependsSystemMessage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(chatResponse{Message: Message{Role: "assistant", Content: "hi"}, Done: true})
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3.2", 5*time.Second, time.Second)
	history := []Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hey"},
		{Role: "user", Content: "how are you?"},
	}
	reply, err := c.Chat(context.Background(), history, "be brief")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "hi" {
		t.Errorf("reply = %q, want hi", reply)
	}

	if len(got.Messages) != 4 {
		t.Fatalf("sent %d messages, want 4 (system + history)", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "be brief" {
		t.Errorf("first message = %+v, want system prompt", got.Messages[0])
	}
	if got.Messages[3].Content != "how are you?" {
		t.Errorf("last message = %+v, want latest user turn", got.Messages[3])
	}
}

func TestGenerate_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3.2", 5*time.Second, time.Second)
	_, err := c.Generate(context.Background(), "x", "")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", statusErr.Code)
	}
	// A reachable-but-broken backend must not read as unavailable.
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) {
		t.Errorf("status error conflated with transport error: %v", err)
	}
}

func TestGenerate_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, "llama3.2", 5*time.Second, time.Second)
	_, err := c.Generate(context.Background(), "x", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestGenerate_Timeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer func() {
		close(blocked)
		srv.Close()
	}()

	c := New(srv.URL, "llama3.2", 100*time.Millisecond, time.Second)
	_, err := c.Generate(context.Background(), "x", "")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestAvailable(t *testing.T) {
	tests := []struct {
		name   string
		models []string
		want   bool
	}{
		{"exact model", []string{"llama3.2"}, true},
		{"tagged model", []string{"llama3.2:latest"}, true},
		{"other models only", []string{"qwen3:4b", "mistral"}, false},
		{"no models", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tags" {
					t.Errorf("path = %s, want /api/tags", r.URL.Path)
				}
				var resp tagsResponse
				for _, m := range tt.models {
					resp.Models = append(resp.Models, struct {
						Name string `json:"name"`
					}{Name: m})
				}
				json.NewEncoder(w).Encode(resp)
			}))
			defer srv.Close()

			c := New(srv.URL, "llama3.2", 5*time.Second, time.Second)
			if got := c.Available(context.Background()); got != tt.want {
				t.Errorf("Available = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAvailable_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, "llama3.2", 5*time.Second, time.Second)
	if c.Available(context.Background()) {
		t.Error("Available = true for unreachable backend")
	}
}
