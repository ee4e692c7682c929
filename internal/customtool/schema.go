package customtool

import "fmt"

// ParamSchema is one entry of the value-schema built from a
// declarative parameter config (spec.md §4.5 "Parameter schema").
type ParamSchema struct {
	Name        string
	Type        string
	Required    bool
	Description string
	Default     any
}

// BuildSchema translates cfg.Parameters into a parameter schema: each
// parameter maps its declared type to a value-schema and is optional
// unless Required is set. The order of the returned entries is not
// defined.
func BuildSchema(cfg Config) ([]ParamSchema, error) {
	out := make([]ParamSchema, 0, len(cfg.Parameters))
	for name, p := range cfg.Parameters {
		switch p.Type {
		case "string", "number", "boolean":
		default:
			return nil, fmt.Errorf("parameter %q has unsupported type %q", name, p.Type)
		}
		out = append(out, ParamSchema{
			Name:        name,
			Type:        p.Type,
			Required:    p.Required,
			Description: p.Description,
			Default:     p.Default,
		})
	}
	return out, nil
}

// FillDefaults fills missing optional parameters that declare a
// default before execution (spec.md §4.5 "Parameter schema").
func FillDefaults(cfg Config, params map[string]any) map[string]any {
	filled := make(map[string]any, len(params))
	for k, v := range params {
		filled[k] = v
	}
	for name, p := range cfg.Parameters {
		if _, present := filled[name]; present {
			continue
		}
		if p.Default != nil {
			filled[name] = p.Default
		}
	}
	return filled
}

// ValidateRegistration skips entries lacking name/description/either
// execution mode, and entries whose name collides with an existing
// built-in tool (spec.md §4.5 "Registration").
func ValidateRegistration(cfg Config, existingNames map[string]bool) error {
	if cfg.Name == "" || cfg.Description == "" {
		return fmt.Errorf("custom tool config requires name and description")
	}
	hasEndpoint := cfg.Endpoint != ""
	hasScript := cfg.Script != ""
	if hasEndpoint == hasScript {
		return fmt.Errorf("custom tool %q must set exactly one of endpoint or script", cfg.Name)
	}
	if existingNames[cfg.Name] {
		return fmt.Errorf("custom tool %q collides with an existing built-in tool", cfg.Name)
	}
	return nil
}
