// Devassist is a local development assistant.
//
// A CLI client builds envelope requests and submits them to a dispatch
// service backed by workspace file operations and a local Ollama
// server. The dispatch service runs in-process by default, or remotely
// over HTTP when -server is given. Configuration is loaded from a
// single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	devassist create <name> [--type python|web|ml|basic]
//	devassist list
//	devassist generate <prompt> [--language <lang>] [--save <path>]
//	devassist chat
//	devassist analyze <path>
//	devassist suggest <project>
//	devassist status
//	devassist serve
//	devassist init
//	devassist version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/localdev/devassist/examples"
	"github.com/localdev/devassist/internal/api"
	"github.com/localdev/devassist/internal/buildinfo"
	"github.com/localdev/devassist/internal/client"
	"github.com/localdev/devassist/internal/config"
	"github.com/localdev/devassist/internal/llm"
	"github.com/localdev/devassist/internal/mcp"
	"github.com/localdev/devassist/internal/shell"
	"github.com/localdev/devassist/internal/workspace"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the devassist command. All OS-level
// dependencies are injected as parameters. We parse argv by hand rather
// than using the flag package to avoid global state that interferes
// with parallel tests; the argument surface is small enough that manual
// parsing is clearer than bringing in a CLI framework.
//
// run returns nil on success and a non-nil error for any failure,
// including an action response with success:false. The caller (main)
// prints the error and exits non-zero.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var serverURL string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-server" && i+1 < len(args):
			serverURL = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-server="):
			serverURL = strings.TrimPrefix(args[i], "-server=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			printUsage(stdout)
			return nil
		case command == "":
			command = args[i]
		default:
			cmdArgs = append(cmdArgs, args[i])
		}
	}

	if command == "" {
		printUsage(stdout)
		return nil
	}

	if command == "version" {
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	}

	// init runs before config loading: its whole job is to create the
	// file the other commands would load.
	if command == "init" {
		return initConfig(stdout, configPath)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := config.NewLogger(stderr, cfg.LogLevel)

	app := &cli{
		stdin:     stdin,
		stdout:    stdout,
		serverURL: serverURL,
	}

	if serverURL != "" {
		if command == "serve" {
			return errors.New("serve runs locally; -server is not applicable")
		}
		app.dispatch = client.NewHTTP(serverURL, 0)
	} else {
		ws, err := workspace.New(cfg.Workspace.Path)
		if err != nil {
			return err
		}
		backend := llm.New(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.Timeout(), cfg.Ollama.ProbeTimeout())
		runner := shell.New(shell.Config{
			Enabled:         cfg.ShellExec.Enabled,
			WorkingDir:      ws.Root(),
			DeniedPatterns:  cfg.ShellExec.DeniedPatterns,
			AllowedPrefixes: cfg.ShellExec.AllowedPrefixes,
			DefaultTimeout:  time.Duration(cfg.ShellExec.DefaultTimeoutSec) * time.Second,
		})
		app.local = mcp.NewServer(backend, ws, runner, logger)
		app.dispatch = client.Local{Server: app.local}
	}

	switch command {
	case "create":
		return app.cmdCreate(ctx, cmdArgs)
	case "list":
		return app.cmdList(ctx)
	case "generate":
		return app.cmdGenerate(ctx, cmdArgs)
	case "chat":
		return app.cmdChat(ctx)
	case "analyze":
		return app.cmdAnalyze(ctx, cmdArgs)
	case "suggest":
		return app.cmdSuggest(ctx, cmdArgs)
	case "status":
		return app.cmdStatus(ctx)
	case "serve":
		return app.serve(ctx, cfg, logger)
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command: %s", command)
	}
}

// initConfig writes the example configuration to path (default
// ./devassist.yaml), refusing to overwrite an existing file.
func initConfig(stdout io.Writer, path string) error {
	if path == "" {
		path = "devassist.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists; remove it first or pass -config with another path", path)
	}
	if err := os.WriteFile(path, examples.ConfigYAML, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	fmt.Fprintln(stdout, "Edit it, then run 'devassist status' to verify the setup.")
	return nil
}

// loadConfig resolves and loads the configuration, falling back to
// defaults when no config file exists anywhere in the search path.
func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// cli holds the per-invocation state shared by the subcommands.
type cli struct {
	stdin     io.Reader
	stdout    io.Writer
	dispatch  client.Dispatcher
	local     *mcp.Server // nil when dispatching over HTTP
	serverURL string
}

// serve starts the HTTP front end and blocks until SIGINT/SIGTERM or a
// listener failure.
func (c *cli) serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "build", buildinfo.String(), "workspace", c.local.Workspace().Root())

	srv := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, c.local, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `devassist - local development assistant

Usage:
  devassist [flags] <command> [arguments]

Commands:
  create <name> [--type t]                  Create a new project (python, web, ml, basic)
  list                                      List projects in the workspace
  generate <prompt> [--language l] [--save p]  Generate code with the local model
  chat                                      Interactive chat with the assistant
  analyze <path>                            Analyze a code file
  suggest <project>                         Suggest improvements for a project
  status                                    Show backend and workspace status
  serve                                     Start the HTTP dispatch server
  init                                      Write an example devassist.yaml
  version                                   Print version information

Flags:
  -config <path>   Config file (default: search devassist.yaml locations)
  -server <url>    Dispatch to a running devassist serve instance
`)
}
