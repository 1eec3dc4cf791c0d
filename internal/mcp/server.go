package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/localdev/devassist/internal/llm"
	"github.com/localdev/devassist/internal/shell"
	"github.com/localdev/devassist/internal/workspace"
)

// Backend is the inference backend the AI-backed actions call.
// *llm.Client satisfies it; tests substitute fakes.
type Backend interface {
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
	Chat(ctx context.Context, messages []llm.Message, systemPrompt string) (string, error)
	Available(ctx context.Context) bool
	Model() string
}

// Handler is the function bound to one action.
type Handler func(ctx context.Context, params map[string]any) Result

// Action is one registry entry.
type Action struct {
	Name        string
	Description string
	// RequiresBackend marks actions that are refused up front when the
	// inference backend is unavailable, before any prompt is built.
	RequiresBackend bool

	handle Handler
}

// Server owns the action registry and dispatches requests to handlers.
// The registry is built once at construction and never mutated during
// dispatch.
type Server struct {
	backend Backend
	ws      *workspace.Workspace
	runner  *shell.Runner
	logger  *slog.Logger
	actions map[string]*Action
}

// NewServer builds a Server with all actions registered. runner may be
// nil when command execution is not configured.
func NewServer(backend Backend, ws *workspace.Workspace, runner *shell.Runner, logger *slog.Logger) *Server {
	s := &Server{
		backend: backend,
		ws:      ws,
		runner:  runner,
		logger:  logger,
		actions: make(map[string]*Action),
	}
	s.registerActions()
	return s
}

// register adds one action to the registry. Called only from
// registerActions during construction.
func (s *Server) register(a *Action) {
	s.actions[a.Name] = a
}

// ActionNames returns the registered action names, sorted.
func (s *Server) ActionNames() []string {
	names := make([]string, 0, len(s.actions))
	for name := range s.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns action descriptions keyed by name.
func (s *Server) Describe() map[string]string {
	out := make(map[string]string, len(s.actions))
	for name, a := range s.actions {
		out[name] = a.Description
	}
	return out
}

// BackendAvailable reports whether the inference backend is reachable
// with the configured model pulled.
func (s *Server) BackendAvailable(ctx context.Context) bool {
	return s.backend.Available(ctx)
}

// Workspace returns the workspace the file actions operate on.
func (s *Server) Workspace() *workspace.Workspace {
	return s.ws
}

// Dispatch routes a request to its handler and normalizes every outcome
// into a Response. This is the single point where internal faults are
// translated into the external contract: nothing a handler does,
// including panicking, escapes as anything but success:false.
func (s *Server) Dispatch(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic recovered", "action", req.Action, "panic", r)
			resp = Fail(KindInternalFault, "internal error processing %q: %v", req.Action, r).response()
		}
	}()

	action, ok := s.actions[req.Action]
	if !ok {
		return Fail(KindUnknownAction, "unknown action: %s (available: %s)",
			req.Action, strings.Join(s.ActionNames(), ", ")).response()
	}

	if action.RequiresBackend && !s.backend.Available(ctx) {
		return Fail(KindBackendUnavailable,
			"Ollama is not available. Ensure it is running with 'ollama serve' and the model %q is pulled.",
			s.backend.Model()).response()
	}

	params := req.Parameters
	if params == nil {
		params = map[string]any{}
	}

	result := action.handle(ctx, params)
	if result.Err != nil {
		s.logger.Debug("action failed", "action", req.Action, "kind", result.Err.Kind, "error", result.Err.Message)
	}
	return result.response()
}

// failFromError classifies an error from a subsystem into a Result,
// preserving the sentinel taxonomy of the workspace and llm packages.
func failFromError(err error) Result {
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		return Fail(KindNotFound, "%v", err)
	case errors.Is(err, workspace.ErrDenied):
		return Fail(KindPermissionDenied, "%v", err)
	case errors.Is(err, workspace.ErrExists):
		return Fail(KindValidation, "%v", err)
	case errors.Is(err, llm.ErrUnavailable):
		return Fail(KindBackendUnavailable, "%v", err)
	case errors.Is(err, llm.ErrTimeout):
		return Fail(KindBackendTimeout, "%v", err)
	}
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		return Fail(KindBackendError, "%v", err)
	}
	return Fail(KindInternalFault, "%v", err)
}

// stringParam extracts an optional string parameter. Non-string values
// read as empty, which the required-parameter checks then reject.
func stringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// intParam extracts an optional integer parameter. JSON numbers decode
// as float64, so both forms are accepted.
func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// historyParam extracts the chat history parameter: a list of
// {role, content} objects. Both the JSON-decoded form ([]any) and the
// in-process form ([]map[string]any) are accepted; malformed entries
// are skipped.
func historyParam(params map[string]any, key string) []llm.Message {
	var raw []any
	switch v := params[key].(type) {
	case []any:
		raw = v
	case []map[string]any:
		raw = make([]any, len(v))
		for i, m := range v {
			raw[i] = m
		}
	default:
		return nil
	}
	messages := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		content, _ := m["content"].(string)
		if role == "" {
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: content})
	}
	return messages
}
