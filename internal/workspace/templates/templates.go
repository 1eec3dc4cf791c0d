// Package templates provides the embedded project scaffolding file sets.
// This package exists to satisfy go:embed's requirement that embedded
// files reside in or below the embedding package directory.
//
// The "web" and "ml" sets are overlays: they start from the python base
// and replace or add files, mirroring how the templates were originally
// maintained.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"text/template"
)

//go:embed all:python all:web all:ml all:basic
var content embed.FS

// Types lists the supported project types.
var Types = []string{"basic", "ml", "python", "web"}

// Valid reports whether projType names a supported template set.
func Valid(projType string) bool {
	for _, t := range Types {
		if t == projType {
			return true
		}
	}
	return false
}

// data is the interpolation context for template files.
type data struct {
	Name string
}

// Files returns the rendered file set for a project type, keyed by
// project-relative path. The project name is interpolated into file
// contents via text/template.
func Files(projType, projectName string) (map[string]string, error) {
	if !Valid(projType) {
		return nil, fmt.Errorf("unknown project type %q (valid: %v)", projType, Types)
	}

	files := make(map[string]string)

	// web and ml overlay the python base set.
	dirs := []string{projType}
	if projType == "web" || projType == "ml" {
		dirs = []string{"python", projType}
	}

	d := data{Name: projectName}
	for _, dir := range dirs {
		if err := renderDir(dir, d, files); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// renderDir renders every file under dir into out, keyed by the path
// relative to dir. Files from later calls replace earlier ones.
func renderDir(dir string, d data, out map[string]string) error {
	return fs.WalkDir(content, dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		raw, err := content.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		tmpl, err := template.New(path).Parse(string(raw))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, d); err != nil {
			return fmt.Errorf("render template %s: %w", path, err)
		}

		out[path[len(dir)+1:]] = buf.String()
		return nil
	})
}
