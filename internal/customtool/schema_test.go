package customtool

import "testing"

func TestValidateRegistrationRequiresNameAndDescription(t *testing.T) {
	cases := []Config{
		{Name: "", Description: "x", Endpoint: "https://x"},
		{Name: "x", Description: "", Endpoint: "https://x"},
	}
	for _, cfg := range cases {
		if err := ValidateRegistration(cfg, map[string]bool{}); err == nil {
			t.Fatalf("ValidateRegistration(%+v): want error, got nil", cfg)
		}
	}
}

func TestValidateRegistrationRequiresExactlyOneExecutionMode(t *testing.T) {
	neither := Config{Name: "x", Description: "x"}
	if err := ValidateRegistration(neither, map[string]bool{}); err == nil {
		t.Fatalf("ValidateRegistration with neither endpoint nor script: want error")
	}

	both := Config{Name: "x", Description: "x", Endpoint: "https://x", Script: "echo hi"}
	if err := ValidateRegistration(both, map[string]bool{}); err == nil {
		t.Fatalf("ValidateRegistration with both endpoint and script: want error")
	}

	justEndpoint := Config{Name: "x", Description: "x", Endpoint: "https://x"}
	if err := ValidateRegistration(justEndpoint, map[string]bool{}); err != nil {
		t.Fatalf("ValidateRegistration with just endpoint: %v", err)
	}

	justScript := Config{Name: "x", Description: "x", Script: "echo hi"}
	if err := ValidateRegistration(justScript, map[string]bool{}); err != nil {
		t.Fatalf("ValidateRegistration with just script: %v", err)
	}
}

func TestBuildSchemaRejectsUnsupportedParameterType(t *testing.T) {
	cfg := Config{
		Name: "x", Description: "x", Endpoint: "https://x",
		Parameters: map[string]Parameter{
			"count": {Type: "integer"},
		},
	}
	if _, err := BuildSchema(cfg); err == nil {
		t.Fatalf("BuildSchema with unsupported type: want error, got nil")
	}
}

func TestBuildSchemaAcceptsSupportedTypes(t *testing.T) {
	cfg := Config{
		Name: "x", Description: "x", Endpoint: "https://x",
		Parameters: map[string]Parameter{
			"city":     {Type: "string", Required: true, Description: "target city"},
			"days":     {Type: "number"},
			"detailed": {Type: "boolean", Default: false},
		},
	}
	schema, err := BuildSchema(cfg)
	if err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}
	if len(schema) != 3 {
		t.Fatalf("len(schema) = %d, want 3", len(schema))
	}

	byName := map[string]ParamSchema{}
	for _, p := range schema {
		byName[p.Name] = p
	}
	if !byName["city"].Required {
		t.Fatalf("city should be required")
	}
	if byName["days"].Required {
		t.Fatalf("days should not be required")
	}
}

func TestFillDefaultsOnlyFillsMissingParameters(t *testing.T) {
	cfg := Config{
		Name: "x", Description: "x", Endpoint: "https://x",
		Parameters: map[string]Parameter{
			"units":  {Type: "string", Default: "metric"},
			"detail": {Type: "boolean", Default: true},
		},
	}

	filled := FillDefaults(cfg, map[string]any{"units": "imperial"})
	if filled["units"] != "imperial" {
		t.Fatalf("units = %v, want imperial (explicit value should not be overwritten)", filled["units"])
	}
	if filled["detail"] != true {
		t.Fatalf("detail = %v, want true (missing value should be filled from default)", filled["detail"])
	}
}

func TestFillDefaultsLeavesParametersWithoutADefaultUnset(t *testing.T) {
	cfg := Config{
		Name: "x", Description: "x", Endpoint: "https://x",
		Parameters: map[string]Parameter{
			"required_field": {Type: "string", Required: true},
		},
	}
	filled := FillDefaults(cfg, map[string]any{})
	if _, present := filled["required_field"]; present {
		t.Fatalf("required_field should stay unset when it has no default")
	}
}
