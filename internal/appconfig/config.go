// Package appconfig loads the immutable configuration snapshot the
// core consumes: spawn/fan-out limits, per-agent default models,
// session templates, and custom-tool declarations (spec.md §1, §4.6,
// §4.7.1). Modeled on the teacher's internal/config Store pattern
// (NewFileStore, Load/Save, static registries) with YAML parsing
// swapped in for JSON, since this snapshot is hand-authored by an
// operator rather than machine-written like a pipeline's sdd.json.
package appconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SessionTemplate is one entry of session.templates in the config file.
type SessionTemplate struct {
	Name          string `yaml:"name"`
	Model         string `yaml:"model,omitempty"`
	Thinking      string `yaml:"thinking,omitempty"`
	Description   string `yaml:"description,omitempty"`
	SystemPrompt  string `yaml:"systemPrompt,omitempty"`
}

// HasSystemPrompt reports whether the template carries a system prompt,
// without exposing its content — spec.md §4.6 only surfaces a note.
func (t SessionTemplate) HasSystemPrompt() bool {
	return t.SystemPrompt != ""
}

// CustomToolParameter mirrors spec.md §3's custom tool parameter shape.
type CustomToolParameter struct {
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required,omitempty"`
	Description string `yaml:"description,omitempty"`
	Default     any    `yaml:"default,omitempty"`
}

// CustomToolConfig mirrors spec.md §3's custom tool config record.
type CustomToolConfig struct {
	Name           string                         `yaml:"name"`
	Description    string                         `yaml:"description"`
	Label          string                         `yaml:"label,omitempty"`
	Endpoint       string                         `yaml:"endpoint,omitempty"`
	Script         string                         `yaml:"script,omitempty"`
	Method         string                         `yaml:"method,omitempty"`
	Headers        map[string]string              `yaml:"headers,omitempty"`
	Parameters     map[string]CustomToolParameter `yaml:"parameters,omitempty"`
	TimeoutSeconds int                            `yaml:"timeoutSeconds,omitempty"`
}

// AgentModelDefaults resolves "<provider>/<model>" for an agent id that
// did not pin a model on its workflow step, per spec.md §4.7.3.
type AgentModelDefaults struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Snapshot is the immutable configuration the whole core reads.
// Once loaded it is never mutated (spec.md §5).
type Snapshot struct {
	MaxSpawnDepth       int                          `yaml:"maxSpawnDepth"`
	MaxChildrenPerAgent int                          `yaml:"maxChildrenPerAgent"`
	DefaultModels       map[string]AgentModelDefaults `yaml:"defaultModels"`
	SessionTemplates    []SessionTemplate            `yaml:"session.templates"`
	Tools               []CustomToolConfig           `yaml:"tools"`
	GatewayBaseURL      string                       `yaml:"gatewayBaseURL"`
}

const (
	defaultMaxSpawnDepth       = 1
	defaultMaxChildrenPerAgent = 5
)

// Defaults returns an empty-but-usable snapshot with spec.md's stated
// defaults for the two admission limits (§4.7.1).
func Defaults() Snapshot {
	return Snapshot{
		MaxSpawnDepth:       defaultMaxSpawnDepth,
		MaxChildrenPerAgent: defaultMaxChildrenPerAgent,
		DefaultModels:       map[string]AgentModelDefaults{},
	}
}

// Load reads and parses a YAML config file at path. A missing file is
// not an error — it yields Defaults(), the way spec.md's storage
// primitives never fail load on a missing document.
func Load(path string) (Snapshot, error) {
	snap := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return snap, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Defaults(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if snap.MaxSpawnDepth <= 0 {
		snap.MaxSpawnDepth = defaultMaxSpawnDepth
	}
	if snap.MaxChildrenPerAgent <= 0 {
		snap.MaxChildrenPerAgent = defaultMaxChildrenPerAgent
	}
	if snap.DefaultModels == nil {
		snap.DefaultModels = map[string]AgentModelDefaults{}
	}
	return snap, nil
}

// ResolveModel returns "<provider>/<model>" for agentID, falling back
// to a generic default when the config declares none — spec.md §4.7.3
// requires a resolved model whenever a step doesn't pin one.
func (s Snapshot) ResolveModel(agentID string) string {
	if d, ok := s.DefaultModels[agentID]; ok {
		return fmt.Sprintf("%s/%s", d.Provider, d.Model)
	}
	return "anthropic/claude"
}

// FindTemplate looks up a session template by name.
func (s Snapshot) FindTemplate(name string) (SessionTemplate, bool) {
	for _, t := range s.SessionTemplates {
		if t.Name == name {
			return t, true
		}
	}
	return SessionTemplate{}, false
}
