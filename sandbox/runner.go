package sandbox

import (
	"context"
	"sort"
	"time"
)

// Limits bounds one guest process. A zero Timeout means no wall-clock bound.
type Limits struct {
	Timeout        time.Duration
	MaxOutputBytes int
}

// RunRequest describes one guest process invocation.
type RunRequest struct {
	EntryPath string
	Dir       string
	Env       []string
	Limits    Limits
}

// Result is the normalized outcome of a guest process. Output is the combined
// text the caller should show; Stdout and Stderr are kept separately.
type Result struct {
	Output   string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner is the execution strategy for one guest language.
type Runner interface {
	Name() string
	Run(ctx context.Context, req RunRequest) (Result, error)
}

// Binding ties a file extension to the Runner and limits that execute it.
type Binding struct {
	Extension string
	Runner    Runner
	Limits    Limits
	Env       []string
}

// Registry maps file extensions to bindings. It is built once and never
// mutated afterwards.
type Registry struct {
	bindings map[string]Binding
}

// NewRegistry builds a registry; a later binding for the same extension
// replaces an earlier one.
func NewRegistry(bindings ...Binding) *Registry {
	r := &Registry{bindings: make(map[string]Binding, len(bindings))}
	for _, b := range bindings {
		if b.Extension == "" || b.Runner == nil {
			continue
		}
		r.bindings[b.Extension] = b
	}
	return r
}

// Lookup returns the binding for an extension.
func (r *Registry) Lookup(ext string) (Binding, bool) {
	b, ok := r.bindings[ext]
	return b, ok
}

// Extensions returns the registered extensions sorted for deterministic output.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.bindings))
	for ext := range r.bindings {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
