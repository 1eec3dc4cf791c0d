package mcp

import (
	"context"
	"fmt"

	"github.com/localdev/devassist/internal/llm"
	"github.com/localdev/devassist/internal/prompts"
	"github.com/localdev/devassist/internal/workspace/templates"
)

// registerActions builds the full action registry. Handlers validate
// their parameters before performing any side effects; a validation
// failure must leave no trace on disk.
func (s *Server) registerActions() {
	s.register(&Action{
		Name:        "create_project",
		Description: "Create a new project with specified type",
		handle:      s.handleCreateProject,
	})
	s.register(&Action{
		Name:        "list_projects",
		Description: "List all projects in workspace",
		handle:      s.handleListProjects,
	})
	s.register(&Action{
		Name:        "read_file",
		Description: "Read file contents",
		handle:      s.handleReadFile,
	})
	s.register(&Action{
		Name:        "write_file",
		Description: "Write content to file",
		handle:      s.handleWriteFile,
	})
	s.register(&Action{
		Name:        "list_files",
		Description: "List directory contents",
		handle:      s.handleListFiles,
	})
	s.register(&Action{
		Name:        "run_command",
		Description: "Execute shell commands",
		handle:      s.handleRunCommand,
	})
	s.register(&Action{
		Name:            "generate_code",
		Description:     "Generate code using AI",
		RequiresBackend: true,
		handle:          s.handleGenerateCode,
	})
	s.register(&Action{
		Name:            "chat",
		Description:     "Chat with the assistant",
		RequiresBackend: true,
		handle:          s.handleChat,
	})
	s.register(&Action{
		Name:            "analyze_code",
		Description:     "Analyze code for improvements",
		RequiresBackend: true,
		handle:          s.handleAnalyzeCode,
	})
	s.register(&Action{
		Name:            "suggest_improvements",
		Description:     "Suggest project improvements",
		RequiresBackend: true,
		handle:          s.handleSuggestImprovements,
	})
}

func (s *Server) handleCreateProject(ctx context.Context, params map[string]any) Result {
	name := stringParam(params, "name")
	projType := stringParam(params, "type")
	if projType == "" {
		projType = "python"
	}

	if name == "" {
		return Fail(KindValidation, "Project name is required")
	}
	if !templates.Valid(projType) {
		return Fail(KindValidation, "unknown project type %q (valid: %v)", projType, templates.Types)
	}

	created, err := s.ws.CreateProject(name, projType)
	if err != nil {
		return failFromError(err)
	}

	return Ok(created, fmt.Sprintf("Created %s project %q", projType, name))
}

func (s *Server) handleListProjects(ctx context.Context, params map[string]any) Result {
	projects, err := s.ws.ListProjects()
	if err != nil {
		return failFromError(err)
	}
	return Ok(projects, fmt.Sprintf("Found %d projects", len(projects)))
}

// FileContent is the read_file payload.
type FileContent struct {
	Content string `json:"content"`
	Path    string `json:"path"`
	Size    int    `json:"size"`
}

func (s *Server) handleReadFile(ctx context.Context, params map[string]any) Result {
	path := stringParam(params, "path")
	if path == "" {
		return Fail(KindValidation, "File path is required")
	}

	content, err := s.ws.Read(path)
	if err != nil {
		return failFromError(err)
	}

	return Ok(FileContent{Content: content, Path: path, Size: len(content)}, "")
}

// WrittenFile is the write_file payload.
type WrittenFile struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

func (s *Server) handleWriteFile(ctx context.Context, params map[string]any) Result {
	path := stringParam(params, "path")
	content := stringParam(params, "content")
	if path == "" {
		return Fail(KindValidation, "File path is required")
	}

	if err := s.ws.Write(path, content); err != nil {
		return failFromError(err)
	}

	return Ok(WrittenFile{Path: path, Size: len(content)}, fmt.Sprintf("File written: %s", path))
}

func (s *Server) handleListFiles(ctx context.Context, params map[string]any) Result {
	path := stringParam(params, "path")

	entries, err := s.ws.List(path)
	if err != nil {
		return failFromError(err)
	}

	return Ok(entries, fmt.Sprintf("%d entries", len(entries)))
}

func (s *Server) handleRunCommand(ctx context.Context, params map[string]any) Result {
	command := stringParam(params, "command")
	if command == "" {
		return Fail(KindValidation, "Command is required")
	}
	if s.runner == nil || !s.runner.Enabled() {
		return Fail(KindPermissionDenied, "command execution is disabled; enable shell_exec in the configuration")
	}

	result, err := s.runner.Run(ctx, command, stringParam(params, "cwd"), intParam(params, "timeout_sec"))
	if err != nil {
		return Fail(KindPermissionDenied, "%v", err)
	}
	if result.TimedOut {
		return Fail(KindInternalFault, "command timed out: %s", command)
	}

	msg := ""
	if result.ExitCode != 0 {
		msg = fmt.Sprintf("command exited with status %d", result.ExitCode)
	}
	return Ok(result, msg)
}

// GeneratedCode is the generate_code payload.
type GeneratedCode struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Prompt   string `json:"prompt"`
}

func (s *Server) handleGenerateCode(ctx context.Context, params map[string]any) Result {
	prompt := stringParam(params, "prompt")
	language := stringParam(params, "language")
	if language == "" {
		language = "python"
	}

	if prompt == "" {
		return Fail(KindValidation, "Code prompt is required")
	}

	text, err := s.backend.Generate(ctx, prompts.GenerateCode(prompt, language), prompts.System())
	if err != nil {
		return failFromError(err)
	}

	payload := GeneratedCode{Code: text, Language: language, Prompt: prompt}
	if text == "" {
		return Ok(payload, "model returned an empty completion")
	}
	return Ok(payload, "Code generated successfully")
}

// ChatReply is the chat payload.
type ChatReply struct {
	Response string `json:"response"`
	Role     string `json:"role"`
}

func (s *Server) handleChat(ctx context.Context, params map[string]any) Result {
	message := stringParam(params, "message")
	if message == "" {
		return Fail(KindValidation, "Message is required")
	}

	messages := append(historyParam(params, "history"), llm.Message{Role: "user", Content: message})

	reply, err := s.backend.Chat(ctx, messages, prompts.System())
	if err != nil {
		return failFromError(err)
	}

	payload := ChatReply{Response: reply, Role: "assistant"}
	if reply == "" {
		return Ok(payload, "model returned an empty completion")
	}
	return Ok(payload, "Chat response generated")
}

// CodeAnalysis is the analyze_code payload.
type CodeAnalysis struct {
	Analysis   string `json:"analysis"`
	CodeLength int    `json:"code_length"`
}

func (s *Server) handleAnalyzeCode(ctx context.Context, params map[string]any) Result {
	code := stringParam(params, "code")
	filePath := stringParam(params, "file_path")

	// File contents win when a path is given.
	if filePath != "" {
		content, err := s.ws.Read(filePath)
		if err != nil {
			return failFromError(err)
		}
		code = content
	}

	if code == "" {
		return Fail(KindValidation, "Code or file path is required")
	}

	analysis, err := s.backend.Generate(ctx, prompts.AnalyzeCode(code), prompts.System())
	if err != nil {
		return failFromError(err)
	}

	payload := CodeAnalysis{Analysis: analysis, CodeLength: len(code)}
	if analysis == "" {
		return Ok(payload, "model returned an empty completion")
	}
	return Ok(payload, "Code analysis completed")
}

// keyProjectFiles are read (when present) to give the model context for
// suggest_improvements.
var keyProjectFiles = []string{"README.md", "requirements.txt", "src/main.py", "go.mod", "package.json"}

// ProjectSuggestions is the suggest_improvements payload.
type ProjectSuggestions struct {
	Suggestions   string   `json:"suggestions"`
	Project       string   `json:"project"`
	AnalyzedFiles []string `json:"analyzed_files"`
}

func (s *Server) handleSuggestImprovements(ctx context.Context, params map[string]any) Result {
	name := stringParam(params, "project")
	if name == "" {
		return Fail(KindValidation, "Project name is required")
	}

	project, err := s.ws.FindProject(name)
	if err != nil {
		return failFromError(err)
	}

	files := make(map[string]string)
	analyzed := make([]string, 0, len(keyProjectFiles))
	for _, rel := range keyProjectFiles {
		content, err := s.ws.Read(name + "/" + rel)
		if err != nil {
			continue // optional context, absent files are fine
		}
		files[rel] = content
		analyzed = append(analyzed, rel)
	}

	suggestions, err := s.backend.Generate(ctx, prompts.SuggestImprovements(name, project.Type, files), prompts.System())
	if err != nil {
		return failFromError(err)
	}

	payload := ProjectSuggestions{Suggestions: suggestions, Project: name, AnalyzedFiles: analyzed}
	if suggestions == "" {
		return Ok(payload, "model returned an empty completion")
	}
	return Ok(payload, "Project analysis completed")
}
