// Package framework is the framework-analyzer extension boundary: a
// pluggable hook a Spring/Lombok/JPA analyzer can register against,
// contributing diagnostics, virtual members, completions, and
// navigation without the core depending on any particular framework.
// The Registry is deliberately plural — a single Java project can have
// several framework analyzers active at once (Spring *and* Lombok), so
// zero or more Hooks register per project rather than one per key.
package framework

import (
	"github.com/termfx/nova/diag"
	"github.com/termfx/nova/internal/intern"
)

// VirtualMember is a synthetic symbol a hook contributes to a class —
// e.g. a Lombok-generated getter — indistinguishable from a
// source-declared member to name resolution except that it has no
// source range.
type VirtualMember struct {
	Name       string
	Kind       string // "method", "field",...
	Signature  string
	ContributedBy string
}

// CompletionContext is the minimal slice of facade state a hook needs to
// contribute completion candidates at a cursor position.
type CompletionContext struct {
	File   intern.FileId
	Offset int
	Prefix string
}

// Candidate is one completion suggestion, whether contributed by the
// core's own name-resolution-driven completions or by a framework hook.
type Candidate struct {
	Label         string
	Kind          string
	Detail        string
	ContributedBy string // empty for core-sourced candidates
}

// NavigationTarget points at a synthetic location a hook wants
// "go to definition" to land on instead of the (nonexistent) source
// range of a virtual member.
type NavigationTarget struct {
	Description string
	File        intern.FileId
	Range       diag.Range
}

// Hook is implemented by a framework-specific analyzer plugged in at
// the facade boundary. The core never imports a concrete Hook
// implementation; it only holds this interface.
type Hook interface {
	// Name identifies this hook for registry lookup and diagnostic
	// provenance tagging.
	Name() string
	// AppliesTo reports whether this hook is active for a project (e.g.
	// "does the classpath contain spring-context").
	AppliesTo(classpath []string) bool
	// Diagnostics contributes additional diagnostics for file, merged
	// with the core's own by the facade's diagnostics(file) query.
	Diagnostics(file intern.FileId, src string) []diag.Diagnostic
	// VirtualMembers contributes synthetic members for a class, keyed by
	// the class's simple name.
	VirtualMembers(className string, src string) []VirtualMember
	// Completions contributes additional candidates at a cursor.
	Completions(ctx CompletionContext) []Candidate
	// Navigation resolves a symbol this hook owns to a synthetic
	// target, or a zero NavigationTarget and false if it doesn't
	// recognize the symbol.
	Navigation(symbolName string) (NavigationTarget, bool)
}

// Registry holds every Hook active for the process.
type Registry struct {
	hooks map[string]Hook
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]Hook)}
}

// Register adds (or replaces) a hook under its own Name().
func (r *Registry) Register(h Hook) {
	r.hooks[h.Name()] = h
}

// Get retrieves a hook by name.
func (r *Registry) Get(name string) (Hook, bool) {
	h, ok := r.hooks[name]
	return h, ok
}

// Active returns every registered hook whose AppliesTo(classpath)
// returns true, sorted by name for determinism.
func (r *Registry) Active(classpath []string) []Hook {
	var out []Hook
	for _, h := range r.hooks {
		if h.AppliesTo(classpath) {
			out = append(out, h)
		}
	}
	sortHooksByName(out)
	return out
}

func sortHooksByName(hs []Hook) {
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j].Name() < hs[j-1].Name(); j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}
