// Package provider maps provider names (claude, gemini, codex) to concrete
// CLI invocations. The pool resolves every worker request through a Registry
// before anything is spawned, so unknown names fail synchronously.
package provider

import (
	"fmt"
	"strings"
	"sync"

	"trinity/internal/config"
	"trinity/internal/logging"
)

// Name identifies a supported AI provider CLI.
type Name string

const (
	Claude Name = "claude"
	Gemini Name = "gemini"
	Codex  Name = "codex"
)

// DefaultTrinity returns the three providers of a full trinity meeting in
// canonical order.
func DefaultTrinity() []Name {
	return []Name{Claude, Gemini, Codex}
}

// Definition describes how to invoke one provider's CLI. The prompt payload
// is always fed on stdin; Args carry model/sandbox flags only.
type Definition struct {
	Name   Name
	Binary string
	Args   []string
	Env    []string

	// TimeoutMs overrides the pool's default watchdog for this provider.
	// Zero means inherit the pool default.
	TimeoutMs int64
}

// UnknownProviderError is returned when a worker is requested for a provider
// name the registry has no definition for.
type UnknownProviderError struct {
	Provider string
	Known    []string
}

func (e *UnknownProviderError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown provider: %s", e.Provider)
	}
	return fmt.Sprintf("unknown provider: %s (valid: %s)", e.Provider, strings.Join(e.Known, ", "))
}

// Registry resolves provider names to definitions. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	defs  map[Name]Definition
	order []Name
}

// NewRegistry builds a registry with claude, gemini and codex definitions
// derived from cfg. A nil cfg uses defaults.
func NewRegistry(cfg *config.Config) *Registry {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	r := &Registry{defs: make(map[Name]Definition)}
	r.Register(claudeDefinition(cfg.Providers.Claude))
	r.Register(geminiDefinition(cfg.Providers.Gemini))
	r.Register(codexDefinition(cfg.Providers.Codex))

	logging.ProviderDebug("registry initialized with providers: %v", r.Names())
	return r
}

// Register adds or replaces a definition. Registration order is preserved
// for Names(); re-registering an existing name keeps its original position.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.defs[def.Name] = def
}

// Lookup resolves a provider name. Returns *UnknownProviderError for names
// without a definition.
func (r *Registry) Lookup(name Name) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		logging.ProviderDebug("lookup failed for unknown provider %q", name)
		return Definition{}, &UnknownProviderError{
			Provider: string(name),
			Known:    r.knownLocked(),
		}
	}
	return def, nil
}

// Names returns all registered provider names in registration order.
func (r *Registry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]Name, len(r.order))
	copy(names, r.order)
	return names
}

// knownLocked returns registered names as strings. Caller must hold the lock.
func (r *Registry) knownLocked() []string {
	known := make([]string, len(r.order))
	for i, n := range r.order {
		known[i] = string(n)
	}
	return known
}

// claudeDefinition builds the claude invocation:
// claude -p --output-format text --model <model>, prompt on stdin.
func claudeDefinition(pc config.ClaudeCLIConfig) Definition {
	args := []string{"-p", "--output-format", "text"}
	if pc.Model != "" {
		args = append(args, "--model", pc.Model)
	}
	args = append(args, pc.ExtraArgs...)

	return Definition{
		Name:      Claude,
		Binary:    pc.Binary,
		Args:      args,
		TimeoutMs: pc.TimeoutMs,
	}
}

// geminiDefinition builds the gemini invocation:
// gemini --model <model>, prompt on stdin.
func geminiDefinition(pc config.GeminiCLIConfig) Definition {
	var args []string
	if pc.Model != "" {
		args = append(args, "--model", pc.Model)
	}
	args = append(args, pc.ExtraArgs...)

	return Definition{
		Name:      Gemini,
		Binary:    pc.Binary,
		Args:      args,
		TimeoutMs: pc.TimeoutMs,
	}
}

// codexDefinition builds the codex invocation:
// codex exec - --model <model> --sandbox <sandbox> --color never.
// The "-" tells codex to read the prompt from stdin.
func codexDefinition(pc config.CodexCLIConfig) Definition {
	args := []string{"exec", "-"}
	if pc.Model != "" {
		args = append(args, "--model", pc.Model)
	}
	if pc.Sandbox != "" {
		args = append(args, "--sandbox", pc.Sandbox)
	}
	args = append(args, "--color", "never")
	args = append(args, pc.ExtraArgs...)

	return Definition{
		Name:      Codex,
		Binary:    pc.Binary,
		Args:      args,
		TimeoutMs: pc.TimeoutMs,
	}
}
