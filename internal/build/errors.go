package build

import "errors"

// Sentinel errors for failures that abort a build. They are wrapped with
// context at the call site.
var (
	ErrNoOutput = errors.New("pydevdocs: output directory is required")
	ErrWrite    = errors.New("pydevdocs: write error")
)
