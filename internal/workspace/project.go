package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/localdev/devassist/internal/workspace/templates"
)

// Project describes a directory in the workspace root that looks like a
// created project.
type Project struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	HasSrc    bool      `json:"has_src"`
	HasReadme bool      `json:"has_readme"`
	Modified  time.Time `json:"modified"`
}

// CreatedProject reports the outcome of a successful CreateProject.
type CreatedProject struct {
	Name  string   `json:"name"`
	Path  string   `json:"path"`
	Type  string   `json:"type"`
	Files []string `json:"files"`
}

// CreateProject materializes the template set for projType into a new
// directory under the workspace root. The name must be a plain directory
// name; the type must be one of templates.Types.
func (w *Workspace) CreateProject(name, projType string) (*CreatedProject, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid project name %q: %w", name, ErrDenied)
	}

	files, err := templates.Files(projType, name)
	if err != nil {
		return nil, err
	}

	projectPath, err := w.resolve(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(projectPath); err == nil {
		return nil, fmt.Errorf("project %q %w at %s", name, ErrExists, projectPath)
	}

	created := make([]string, 0, len(files))
	for rel, content := range files {
		if err := w.Write(filepath.Join(name, rel), content); err != nil {
			return nil, fmt.Errorf("create project %q: %w", name, err)
		}
		created = append(created, rel)
	}
	sort.Strings(created)

	return &CreatedProject{
		Name:  name,
		Path:  projectPath,
		Type:  projType,
		Files: created,
	}, nil
}

// ListProjects returns the project directories under the workspace root,
// newest first. Hidden directories are skipped. Project type is inferred
// from marker files.
func (w *Workspace) ListProjects() ([]Project, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("list workspace: %w", err)
	}

	projects := make([]Project, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		dir := filepath.Join(w.root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}

		projects = append(projects, Project{
			Name:      entry.Name(),
			Path:      dir,
			Type:      classifyProject(dir),
			HasSrc:    exists(filepath.Join(dir, "src")),
			HasReadme: exists(filepath.Join(dir, "README.md")),
			Modified:  info.ModTime(),
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Modified.After(projects[j].Modified)
	})

	return projects, nil
}

// FindProject returns the named project, or ErrNotFound.
func (w *Workspace) FindProject(name string) (*Project, error) {
	projects, err := w.ListProjects()
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Name == name {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("project %q %w", name, ErrNotFound)
}

// classifyProject infers a project type from marker files. Later markers
// win so a directory with both requirements.txt and package.json reads
// as javascript, matching how these projects are usually mixed.
func classifyProject(dir string) string {
	projType := "unknown"
	if exists(filepath.Join(dir, "requirements.txt")) {
		projType = "python"
	}
	if exists(filepath.Join(dir, "go.mod")) {
		projType = "go"
	}
	if exists(filepath.Join(dir, "package.json")) {
		projType = "javascript"
	}
	return projType
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
