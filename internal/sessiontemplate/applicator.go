// Package sessiontemplate applies model/thinking patches from a named
// template to a remote agent session through the gateway
// (spec.md §4.6).
package sessiontemplate

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/agentctl/internal/appconfig"
	"github.com/anthropics/agentctl/internal/gatewayclient"
)

// patchTimeout is the fixed deadline for every sessions.patch call
// this applicator issues (spec.md §5: "Gateway sessions.patch calls
// use a 10 s timeout").
const patchTimeout = 10 * time.Second

// TemplateInfo is the shape Applicator.List returns for one template
// (spec.md §4.6 "list").
type TemplateInfo struct {
	Name            string `json:"name"`
	Model           string `json:"model,omitempty"`
	Thinking        string `json:"thinking,omitempty"`
	Description     string `json:"description,omitempty"`
	HasSystemPrompt bool   `json:"hasSystemPrompt"`
}

// ApplyResult is the shape Applicator.Apply returns (spec.md §4.6
// "apply").
type ApplyResult struct {
	Status  string   `json:"status"`
	Applied []string `json:"applied"`
	Note    string   `json:"note,omitempty"`
}

// Applicator implements spec.md §4.6.
type Applicator struct {
	config  appconfig.Snapshot
	gateway gatewayclient.Client
}

// New creates an Applicator over the given config snapshot and
// gateway client.
func New(config appconfig.Snapshot, gateway gatewayclient.Client) *Applicator {
	return &Applicator{config: config, gateway: gateway}
}

// List returns every configured session template.
func (a *Applicator) List() []TemplateInfo {
	out := make([]TemplateInfo, 0, len(a.config.SessionTemplates))
	for _, t := range a.config.SessionTemplates {
		out = append(out, TemplateInfo{
			Name:            t.Name,
			Model:           t.Model,
			Thinking:        t.Thinking,
			Description:     t.Description,
			HasSystemPrompt: t.HasSystemPrompt(),
		})
	}
	return out
}

type patchParams struct {
	Key           string `json:"key"`
	Model         string `json:"model,omitempty"`
	ThinkingLevel *string `json:"thinkingLevel"`
}

// Apply resolves the target session (defaulting to callerSessionKey)
// and issues up to two gateway patches: a fatal model patch and a
// non-fatal thinking-level patch, where "off" maps to a null level
// (spec.md §4.6 "apply").
func (a *Applicator) Apply(ctx context.Context, templateName, sessionKey, callerSessionKey string) (ApplyResult, error) {
	tmpl, ok := a.config.FindTemplate(templateName)
	if !ok {
		return ApplyResult{}, fmt.Errorf("unknown session template %q", templateName)
	}
	if sessionKey == "" {
		sessionKey = callerSessionKey
	}

	var applied []string

	if tmpl.Model != "" {
		modelPatch := struct {
			Key   string `json:"key"`
			Model string `json:"model"`
		}{Key: sessionKey, Model: tmpl.Model}
		_, err := a.gateway.Call(ctx, gatewayclient.MethodSessionsPatch, modelPatch, patchTimeout)
		if err != nil {
			return ApplyResult{}, fmt.Errorf("applying model patch: %w", err)
		}
		applied = append(applied, "model")
	}

	if tmpl.Thinking != "" {
		var level *string
		if tmpl.Thinking != "off" {
			l := tmpl.Thinking
			level = &l
		}
		_, err := a.gateway.Call(ctx, gatewayclient.MethodSessionsPatch,
			patchParams{Key: sessionKey, ThinkingLevel: level}, patchTimeout)
		if err == nil {
			applied = append(applied, "thinking")
		}
		// non-fatal: a failed thinking-level patch is dropped silently.
	}

	result := ApplyResult{Status: "applied", Applied: applied}
	if tmpl.HasSystemPrompt() {
		result.Note = "template carries a system prompt; inject it at spawn time"
	}
	return result, nil
}
