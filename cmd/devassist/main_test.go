package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/localdev/devassist/internal/mcp"
)

// testConfig writes a minimal config whose workspace lives in a temp
// directory and whose Ollama URL points nowhere routable.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "devassist.yaml")
	content := fmt.Sprintf("workspace:\n  path: %s\nollama:\n  url: http://127.0.0.1:1\n  probe_timeout_sec: 1\n",
		filepath.Join(dir, "ws"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	err = run(context.Background(), strings.NewReader(stdin), &out, &errBuf, args)
	return out.String(), errBuf.String(), err
}

func TestRun_Version(t *testing.T) {
	stdout, _, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(stdout, "DevAssist") {
		t.Errorf("version output = %q", stdout)
	}
}

func TestRun_NoCommandPrintsUsage(t *testing.T) {
	stdout, _, err := runCLI(t, "")
	if err != nil {
		t.Fatalf("bare invocation failed: %v", err)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Errorf("usage not printed: %q", stdout)
	}
}

func TestRun_Help(t *testing.T) {
	for _, flag := range []string{"-h", "-help", "--help"} {
		stdout, _, err := runCLI(t, "", flag)
		if err != nil {
			t.Fatalf("%s failed: %v", flag, err)
		}
		if !strings.Contains(stdout, "Usage:") {
			t.Errorf("%s: usage not printed", flag)
		}
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	_, _, err := runCLI(t, "", "-config", testConfig(t), "frobnicate")
	if err == nil || !strings.Contains(err.Error(), "unknown command: frobnicate") {
		t.Errorf("error = %v", err)
	}
}

func TestRun_MissingExplicitConfig(t *testing.T) {
	_, _, err := runCLI(t, "", "-config", "/nonexistent/devassist.yaml", "list")
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %v", err)
	}
}

func TestRun_ServeRejectsServerFlag(t *testing.T) {
	_, _, err := runCLI(t, "", "-config", testConfig(t), "-server", "http://localhost:8000", "serve")
	if err == nil || !strings.Contains(err.Error(), "not applicable") {
		t.Errorf("error = %v", err)
	}
}

func TestRun_ListEmptyWorkspace(t *testing.T) {
	stdout, _, err := runCLI(t, "", "-config", testConfig(t), "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stdout, "No projects found") {
		t.Errorf("list output = %q", stdout)
	}
}

func TestRun_CreateThenList(t *testing.T) {
	cfg := testConfig(t)

	stdout, _, err := runCLI(t, "", "-config", cfg, "create", "demo", "--type", "python")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(stdout, "demo") {
		t.Errorf("create output = %q", stdout)
	}

	stdout, _, err = runCLI(t, "", "-config", cfg, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	// Type is inferred from marker files, requirements.txt here.
	if !strings.Contains(stdout, "demo (python)") {
		t.Errorf("list output = %q", stdout)
	}
}

func TestRun_CreateUsage(t *testing.T) {
	_, _, err := runCLI(t, "", "-config", testConfig(t), "create")
	if err == nil || !strings.Contains(err.Error(), "usage: devassist create") {
		t.Errorf("error = %v", err)
	}
}

func TestRun_Init(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := runCLI(t, "", "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(stdout, "devassist.yaml") {
		t.Errorf("init output = %q", stdout)
	}

	// The written config must be loadable by the other commands.
	stdout, _, err = runCLI(t, "", "-config", "devassist.yaml", "list")
	if err != nil {
		t.Fatalf("list with generated config failed: %v", err)
	}
	if !strings.Contains(stdout, "No projects found") {
		t.Errorf("list output = %q", stdout)
	}

	// A second init must not clobber the file.
	if _, _, err := runCLI(t, "", "init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("repeated init: error = %v", err)
	}
}

func TestRun_GenerateBackendDown(t *testing.T) {
	// The configured Ollama URL is unroutable, so the pre-dispatch
	// availability check fires and becomes the process error.
	_, _, err := runCLI(t, "", "-config", testConfig(t), "generate", "an add function")
	if err == nil || !strings.Contains(err.Error(), "Ollama is not available") {
		t.Errorf("error = %v", err)
	}
}

// fakeServe stands in for a remote `devassist serve` instance.
func fakeServe(t *testing.T, handle func(req *mcp.Request) *mcp.Response) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mcp" {
			http.NotFound(w, r)
			return
		}
		var req mcp.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}
		json.NewEncoder(w).Encode(handle(&req))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_GenerateAgainstServer(t *testing.T) {
	srv := fakeServe(t, func(req *mcp.Request) *mcp.Response {
		if req.Action != "generate_code" {
			t.Errorf("action = %q, want generate_code", req.Action)
		}
		return &mcp.Response{
			Success: true,
			Data:    mcp.GeneratedCode{Code: "print('hi')", Language: "python", Prompt: "x"},
			Message: "Code generated successfully",
		}
	})

	stdout, _, err := runCLI(t, "", "-server", srv.URL, "generate", "say hi")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(stdout, "print('hi')") {
		t.Errorf("generated code not printed: %q", stdout)
	}
}

func TestRun_ChatAgainstServer(t *testing.T) {
	turns := 0
	srv := fakeServe(t, func(req *mcp.Request) *mcp.Response {
		turns++
		return &mcp.Response{
			Success: true,
			Data:    mcp.ChatReply{Response: fmt.Sprintf("reply %d", turns), Role: "assistant"},
			Message: "Chat response generated",
		}
	})

	stdout, _, err := runCLI(t, "hello\nsecond\nexit\n", "-server", srv.URL, "chat")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !strings.Contains(stdout, "Assistant: reply 1") || !strings.Contains(stdout, "Assistant: reply 2") {
		t.Errorf("chat output = %q", stdout)
	}
	if !strings.Contains(stdout, "Goodbye!") {
		t.Errorf("exit word did not end the session: %q", stdout)
	}
	if turns != 2 {
		t.Errorf("server saw %d turns, want 2", turns)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		flagSet  []string
		wantPos  []string
		wantFlag map[string]string
	}{
		{
			name:     "flag with separate value",
			args:     []string{"demo", "--type", "web"},
			flagSet:  []string{"type"},
			wantPos:  []string{"demo"},
			wantFlag: map[string]string{"type": "web"},
		},
		{
			name:     "flag with equals value",
			args:     []string{"--type=ml", "demo"},
			flagSet:  []string{"type"},
			wantPos:  []string{"demo"},
			wantFlag: map[string]string{"type": "ml"},
		},
		{
			name:     "multi-word positional",
			args:     []string{"write", "a", "parser", "--language", "go"},
			flagSet:  []string{"language", "save"},
			wantPos:  []string{"write", "a", "parser"},
			wantFlag: map[string]string{"language": "go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, flags := splitArgs(tt.args, tt.flagSet...)
			if strings.Join(pos, " ") != strings.Join(tt.wantPos, " ") {
				t.Errorf("positional = %v, want %v", pos, tt.wantPos)
			}
			for k, v := range tt.wantFlag {
				if flags[k] != v {
					t.Errorf("flag %s = %q, want %q", k, flags[k], v)
				}
			}
		})
	}
}
