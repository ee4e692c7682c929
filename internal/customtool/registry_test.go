package customtool

import "testing"

func httpConfig(name string) Config {
	return Config{Name: name, Description: "does a thing", Endpoint: "https://example.com/" + name}
}

func TestRegisterRejectsCollisionWithBuiltin(t *testing.T) {
	r := NewRegistry()
	builtins := map[string]bool{"queue_add": true}

	if err := r.Register(httpConfig("queue_add"), builtins); err == nil {
		t.Fatalf("Register colliding with builtin: want error, got nil")
	}
	if _, ok := r.Get("queue_add"); ok {
		t.Fatalf("rejected config should not be stored")
	}
}

func TestRegisterRejectsCollisionWithExistingRegistration(t *testing.T) {
	r := NewRegistry()
	builtins := map[string]bool{}

	if err := r.Register(httpConfig("weather"), builtins); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(httpConfig("weather"), builtins); err == nil {
		t.Fatalf("second Register of same name: want error, got nil")
	}
}

func TestRegisterAcceptsValidConfig(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(httpConfig("weather"), map[string]bool{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	cfg, ok := r.Get("weather")
	if !ok {
		t.Fatalf("Get after Register: not found")
	}
	if cfg.Endpoint != "https://example.com/weather" {
		t.Fatalf("Endpoint = %q", cfg.Endpoint)
	}
}

func TestSeedSkipsInvalidEntriesSilently(t *testing.T) {
	r := NewRegistry()
	cfgs := []Config{
		httpConfig("good"),
		{Name: "", Description: "no name"},
		{Name: "both-modes", Description: "x", Endpoint: "https://x", Script: "echo hi"},
		httpConfig("queue_add"),
	}

	r.Seed(cfgs, map[string]bool{"queue_add": true})

	names := r.Names()
	if len(names) != 1 || !names["good"] {
		t.Fatalf("Names after Seed = %v, want just {good}", names)
	}
}

func TestListIsSortedByName(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(httpConfig(name), map[string]bool{}); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, cfg := range list {
		if cfg.Name != want[i] {
			t.Fatalf("list[%d].Name = %s, want %s", i, cfg.Name, want[i])
		}
	}
}

func TestNamesReflectsCurrentRegistrations(t *testing.T) {
	r := NewRegistry()
	if names := r.Names(); len(names) != 0 {
		t.Fatalf("Names on empty registry = %v, want empty", names)
	}
	if err := r.Register(httpConfig("weather"), map[string]bool{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if names := r.Names(); len(names) != 1 || !names["weather"] {
		t.Fatalf("Names = %v, want {weather}", names)
	}
}
