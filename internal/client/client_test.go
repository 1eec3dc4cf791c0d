package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/localdev/devassist/internal/mcp"
)

func TestHTTPDispatch(t *testing.T) {
	var got mcp.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mcp" || r.Method != http.MethodPost {
			t.Errorf("%s %s, want POST /mcp", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(mcp.Response{Success: true, Message: "done"})
	}))
	defer srv.Close()

	d := NewHTTP(srv.URL, 5*time.Second)
	resp, err := d.Dispatch(context.Background(), &mcp.Request{
		Action:     "list_projects",
		Parameters: map[string]any{"k": "v"},
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !resp.Success || resp.Message != "done" {
		t.Errorf("response = %+v", resp)
	}
	if got.Action != "list_projects" || got.Parameters["k"] != "v" {
		t.Errorf("server saw %+v", got)
	}
}

func TestHTTPDispatch_EnvelopeFailurePassedThrough(t *testing.T) {
	// Both 200 and 400 carry an envelope; neither is a transport error.
	for _, status := range []int{http.StatusOK, http.StatusBadRequest} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(mcp.Response{Success: false, Error: "nope"})
		}))

		d := NewHTTP(srv.URL, 5*time.Second)
		resp, err := d.Dispatch(context.Background(), &mcp.Request{Action: "x"})
		srv.Close()

		if err != nil {
			t.Errorf("status %d: Dispatch returned transport error: %v", status, err)
			continue
		}
		if resp.Success || resp.Error != "nope" {
			t.Errorf("status %d: response = %+v", status, resp)
		}
	}
}

func TestHTTPDispatch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "borked", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewHTTP(srv.URL, 5*time.Second)
	if _, err := d.Dispatch(context.Background(), &mcp.Request{Action: "x"}); err == nil {
		t.Error("500 response did not surface as an error")
	}
}

func TestHTTPDispatch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	d := NewHTTP(srv.URL, time.Second)
	if _, err := d.Dispatch(context.Background(), &mcp.Request{Action: "x"}); err == nil {
		t.Error("unreachable server did not surface as an error")
	}
}
