package config

// ProvidersConfig holds the CLI invocation settings for every recognized
// provider. Each provider is executed as a subprocess; the prompt payload is
// always fed on stdin, so these settings only shape the argv.
type ProvidersConfig struct {
	Claude ClaudeCLIConfig `yaml:"claude"`
	Gemini GeminiCLIConfig `yaml:"gemini"`
	Codex  CodexCLIConfig  `yaml:"codex"`
}

// ClaudeCLIConfig holds configuration for the Claude Code CLI.
//
// The CLI is used strictly as a one-shot completion subprocess: `-p` reads
// the prompt from stdin and `--output-format text` keeps stdout parseable.
type ClaudeCLIConfig struct {
	// Binary name or path (default: "claude")
	Binary string `yaml:"binary,omitempty"`

	// Model alias: "sonnet", "opus", "haiku"
	Model string `yaml:"model,omitempty"`

	// TimeoutMs overrides the pool watchdog for this provider (0 = inherit)
	TimeoutMs int64 `yaml:"timeout_ms,omitempty"`

	// ExtraArgs are appended verbatim to the argv
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// GeminiCLIConfig holds configuration for the Gemini CLI.
type GeminiCLIConfig struct {
	// Binary name or path (default: "gemini")
	Binary string `yaml:"binary,omitempty"`

	// Model name, e.g. "gemini-2.5-pro"
	Model string `yaml:"model,omitempty"`

	// TimeoutMs overrides the pool watchdog for this provider (0 = inherit)
	TimeoutMs int64 `yaml:"timeout_ms,omitempty"`

	// ExtraArgs are appended verbatim to the argv
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// CodexCLIConfig holds configuration for the Codex CLI.
//
// Sandbox stays "read-only": trinity only wants the model's answer, never
// file edits from inside the provider process.
type CodexCLIConfig struct {
	// Binary name or path (default: "codex")
	Binary string `yaml:"binary,omitempty"`

	// Model: "gpt-5-codex", "gpt-5", "o4-mini", ...
	Model string `yaml:"model,omitempty"`

	// Sandbox mode: "read-only" (default), "workspace-write"
	Sandbox string `yaml:"sandbox,omitempty"`

	// TimeoutMs overrides the pool watchdog for this provider (0 = inherit)
	TimeoutMs int64 `yaml:"timeout_ms,omitempty"`

	// ExtraArgs are appended verbatim to the argv
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// DefaultClaudeCLIConfig returns the claude CLI defaults.
func DefaultClaudeCLIConfig() ClaudeCLIConfig {
	return ClaudeCLIConfig{
		Binary: "claude",
		Model:  "sonnet",
	}
}

// DefaultGeminiCLIConfig returns the gemini CLI defaults.
func DefaultGeminiCLIConfig() GeminiCLIConfig {
	return GeminiCLIConfig{
		Binary: "gemini",
		Model:  "gemini-2.5-pro",
	}
}

// DefaultCodexCLIConfig returns the codex CLI defaults.
func DefaultCodexCLIConfig() CodexCLIConfig {
	return CodexCLIConfig{
		Binary:  "codex",
		Model:   "gpt-5-codex",
		Sandbox: "read-only",
	}
}
