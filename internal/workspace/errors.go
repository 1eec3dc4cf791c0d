package workspace

import "errors"

// Sentinel errors classifying workspace failures. Callers use errors.Is
// to translate these into the response envelope's error taxonomy.
var (
	// ErrNotFound reports a file, directory, or project that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDenied reports a path that escapes the workspace root after
	// normalization, or an OS-level permission failure.
	ErrDenied = errors.New("permission denied")

	// ErrExists reports a project that already exists.
	ErrExists = errors.New("already exists")
)
