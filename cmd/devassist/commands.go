package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/localdev/devassist/internal/httpkit"
	"github.com/localdev/devassist/internal/llm"
	"github.com/localdev/devassist/internal/mcp"
	"github.com/localdev/devassist/internal/workspace"
)

// do dispatches one action and converts an unsuccessful response into
// an error, which becomes the process's non-zero exit.
func (c *cli) do(ctx context.Context, action string, params map[string]any) (*mcp.Response, error) {
	resp, err := c.dispatch.Dispatch(ctx, &mcp.Request{Action: action, Parameters: params})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New(resp.Error)
	}
	return resp, nil
}

// decodeData re-marshals a response's data into a typed payload. The
// payload is a struct for in-process dispatch and a decoded JSON map
// when it crossed HTTP; the round trip makes both read the same.
func decodeData(data, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode response data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// splitArgs separates "--flag value" pairs from positional arguments.
func splitArgs(args []string, flagNames ...string) (positional []string, flags map[string]string) {
	flags = make(map[string]string)
	known := make(map[string]bool, len(flagNames))
	for _, f := range flagNames {
		known[f] = true
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "--") && strings.Contains(arg, "="):
			parts := strings.SplitN(strings.TrimPrefix(arg, "--"), "=", 2)
			if known[parts[0]] {
				flags[parts[0]] = parts[1]
			}
		case strings.HasPrefix(arg, "--") && known[strings.TrimPrefix(arg, "--")] && i+1 < len(args):
			flags[strings.TrimPrefix(arg, "--")] = args[i+1]
			i++
		default:
			positional = append(positional, arg)
		}
	}
	return positional, flags
}

func (c *cli) cmdCreate(ctx context.Context, args []string) error {
	positional, flags := splitArgs(args, "type")
	if len(positional) == 0 {
		return errors.New("usage: devassist create <name> [--type python|web|ml|basic]")
	}

	resp, err := c.do(ctx, "create_project", map[string]any{
		"name": positional[0],
		"type": flags["type"],
	})
	if err != nil {
		return err
	}

	var created workspace.CreatedProject
	if err := decodeData(resp.Data, &created); err != nil {
		return err
	}

	fmt.Fprintln(c.stdout, resp.Message)
	fmt.Fprintf(c.stdout, "Path: %s\n", created.Path)
	fmt.Fprintf(c.stdout, "Created %d files\n", len(created.Files))
	return nil
}

func (c *cli) cmdList(ctx context.Context) error {
	resp, err := c.do(ctx, "list_projects", nil)
	if err != nil {
		return err
	}

	var projects []workspace.Project
	if err := decodeData(resp.Data, &projects); err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Fprintln(c.stdout, "No projects found")
		return nil
	}

	fmt.Fprintf(c.stdout, "Found %d projects:\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(c.stdout, "  %s (%s)\n", p.Name, p.Type)
		fmt.Fprintf(c.stdout, "    %s\n", p.Path)
	}
	return nil
}

func (c *cli) cmdGenerate(ctx context.Context, args []string) error {
	positional, flags := splitArgs(args, "language", "save")
	if len(positional) == 0 {
		return errors.New("usage: devassist generate <prompt> [--language <lang>] [--save <path>]")
	}

	resp, err := c.do(ctx, "generate_code", map[string]any{
		"prompt":   strings.Join(positional, " "),
		"language": flags["language"],
	})
	if err != nil {
		return err
	}

	var generated mcp.GeneratedCode
	if err := decodeData(resp.Data, &generated); err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "Generated %s code:\n", generated.Language)
	fmt.Fprintln(c.stdout, strings.Repeat("-", 50))
	fmt.Fprintln(c.stdout, generated.Code)
	fmt.Fprintln(c.stdout, strings.Repeat("-", 50))
	if resp.Message != "" {
		fmt.Fprintln(c.stdout, resp.Message)
	}

	if savePath := flags["save"]; savePath != "" {
		_, err := c.do(ctx, "write_file", map[string]any{
			"path":    savePath,
			"content": llm.ExtractCode(generated.Code),
		})
		if err != nil {
			return fmt.Errorf("saving file: %w", err)
		}
		fmt.Fprintf(c.stdout, "Code saved to: %s\n", savePath)
	}
	return nil
}

func (c *cli) cmdAnalyze(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: devassist analyze <path>")
	}

	resp, err := c.do(ctx, "analyze_code", map[string]any{"file_path": args[0]})
	if err != nil {
		return err
	}

	var analysis mcp.CodeAnalysis
	if err := decodeData(resp.Data, &analysis); err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "Analysis for: %s\n", args[0])
	fmt.Fprintln(c.stdout, strings.Repeat("-", 50))
	fmt.Fprintln(c.stdout, analysis.Analysis)
	return nil
}

func (c *cli) cmdSuggest(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: devassist suggest <project>")
	}

	resp, err := c.do(ctx, "suggest_improvements", map[string]any{"project": args[0]})
	if err != nil {
		return err
	}

	var suggestions mcp.ProjectSuggestions
	if err := decodeData(resp.Data, &suggestions); err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "Suggestions for project: %s\n", args[0])
	fmt.Fprintln(c.stdout, strings.Repeat("-", 50))
	fmt.Fprintln(c.stdout, suggestions.Suggestions)
	return nil
}

func (c *cli) cmdStatus(ctx context.Context) error {
	fmt.Fprintln(c.stdout, "DevAssist status")
	fmt.Fprintln(c.stdout, strings.Repeat("-", 40))

	if c.local != nil {
		available := c.local.BackendAvailable(ctx)
		fmt.Fprintf(c.stdout, "Ollama available: %v\n", available)
		fmt.Fprintf(c.stdout, "Workspace: %s\n", c.local.Workspace().Root())

		projects, err := c.local.Workspace().ListProjects()
		if err == nil {
			fmt.Fprintf(c.stdout, "Projects: %d\n", len(projects))
		}

		if !available {
			fmt.Fprintln(c.stdout, "\nTo enable AI features, ensure Ollama is running:")
			fmt.Fprintln(c.stdout, "  ollama serve")
			fmt.Fprintln(c.stdout, "  ollama pull <model>")
		}
		return nil
	}

	// Remote: report the server's own view of its health.
	health, err := fetchHealth(ctx, c.serverURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Server: %s\n", c.serverURL)
	fmt.Fprintf(c.stdout, "Status: %v\n", health["status"])
	fmt.Fprintf(c.stdout, "Ollama available: %v\n", health["ollama_available"])
	fmt.Fprintf(c.stdout, "Workspace: %v\n", health["workspace"])
	return nil
}

// fetchHealth reads the /health endpoint of a remote serve instance.
func fetchHealth(ctx context.Context, baseURL string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(baseURL, "/")+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpkit.NewClient(10 * time.Second).Do(req)
	if err != nil {
		return nil, fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	var health map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return health, nil
}
