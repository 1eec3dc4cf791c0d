package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateProject_Python(t *testing.T) {
	ws := newTestWorkspace(t)

	created, err := ws.CreateProject("demo", "python")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	if created.Name != "demo" || created.Type != "python" {
		t.Errorf("created = %+v, want name=demo type=python", created)
	}
	if len(created.Files) == 0 {
		t.Fatal("no files created")
	}

	// The scaffold must land on disk with the name interpolated.
	readme, err := ws.Read("demo/README.md")
	if err != nil {
		t.Fatalf("reading scaffolded README: %v", err)
	}
	if !strings.Contains(readme, "# demo") {
		t.Errorf("README not interpolated: %q", readme)
	}
	if _, err := os.Stat(filepath.Join(ws.Root(), "demo", "src", "main.py")); err != nil {
		t.Errorf("src/main.py not created: %v", err)
	}
}

func TestCreateProject_ThenListIncludesIt(t *testing.T) {
	ws := newTestWorkspace(t)

	if _, err := ws.CreateProject("demo", "python"); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	projects, err := ws.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}

	found := false
	for _, p := range projects {
		if p.Name == "demo" {
			found = true
			if p.Type != "python" {
				t.Errorf("project type = %q, want python", p.Type)
			}
			if !p.HasSrc || !p.HasReadme {
				t.Errorf("project markers = %+v, want has_src and has_readme", p)
			}
		}
	}
	if !found {
		t.Errorf("ListProjects does not include %q: %+v", "demo", projects)
	}
}

func TestCreateProject_Validation(t *testing.T) {
	ws := newTestWorkspace(t)

	tests := []struct {
		name     string
		projName string
		projType string
	}{
		{"empty name", "", "python"},
		{"unknown type", "demo", "rust"},
		{"path separator in name", "a/b", "python"},
		{"hidden name", ".demo", "python"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ws.CreateProject(tt.projName, tt.projType); err == nil {
				t.Errorf("CreateProject(%q, %q) succeeded, want error", tt.projName, tt.projType)
			}
		})
	}
}

func TestCreateProject_AlreadyExists(t *testing.T) {
	ws := newTestWorkspace(t)

	if _, err := ws.CreateProject("demo", "basic"); err != nil {
		t.Fatalf("first CreateProject failed: %v", err)
	}
	_, err := ws.CreateProject("demo", "basic")
	if !errors.Is(err, ErrExists) {
		t.Errorf("duplicate CreateProject: error = %v, want ErrExists", err)
	}
}

func TestFindProject(t *testing.T) {
	ws := newTestWorkspace(t)

	if _, err := ws.CreateProject("demo", "web"); err != nil {
		t.Fatal(err)
	}

	p, err := ws.FindProject("demo")
	if err != nil {
		t.Fatalf("FindProject failed: %v", err)
	}
	if p.Name != "demo" {
		t.Errorf("FindProject = %+v, want demo", p)
	}

	if _, err := ws.FindProject("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindProject(ghost): error = %v, want ErrNotFound", err)
	}
}

func TestListProjects_SkipsHiddenAndFiles(t *testing.T) {
	ws := newTestWorkspace(t)

	if err := ws.Write("loose.txt", "x"); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(ws.Root(), ".hidden"), 0o755); err != nil {
		t.Fatal(err)
	}

	projects, err := ws.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("ListProjects = %+v, want empty", projects)
	}
}
