package persona

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetUnknownKeyFallsBackToDefault(t *testing.T) {
	r := NewRegistry()

	p := r.Get("does-not-exist")
	if p.Key != DefaultKey {
		t.Fatalf("expected default persona, got %q", p.Key)
	}
	if r.Get("").Key != DefaultKey {
		t.Fatalf("expected empty key to resolve to default persona")
	}
}

func TestListPutsDefaultFirst(t *testing.T) {
	r := NewRegistry()

	list := r.List()
	if len(list) < 4 {
		t.Fatalf("expected at least 4 built-in personas, got %d", len(list))
	}
	if list[0].Key != DefaultKey {
		t.Fatalf("expected %q first, got %q", DefaultKey, list[0].Key)
	}
	for _, p := range list {
		if p.SystemInstruction == "" {
			t.Fatalf("persona %q has no system instruction", p.Key)
		}
	}
}

func TestLoadUserFileMergesAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := `personas:
  - key: pirate
    name: Captain
    description: Talks like a pirate
    system_instruction: You are a pirate companion. Answer in pirate speak.
  - key: nihara
    system_instruction: Custom override instruction.
  - key: ""
    system_instruction: ignored, no key
  - key: broken
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write personas file: %v", err)
	}

	r := NewRegistry()
	if err := r.LoadUserFile(path); err != nil {
		t.Fatalf("load user file: %v", err)
	}

	if !r.Has("pirate") {
		t.Fatalf("expected pirate persona to be merged")
	}
	if r.Get("pirate").Name != "Captain" {
		t.Fatalf("unexpected pirate name %q", r.Get("pirate").Name)
	}
	if r.Get(DefaultKey).SystemInstruction != "Custom override instruction." {
		t.Fatalf("expected user file to override built-in persona")
	}
	if r.Has("broken") {
		t.Fatalf("persona without system instruction should be skipped")
	}
}

func TestLoadUserFileMissingIsNoop(t *testing.T) {
	r := NewRegistry()
	if err := r.LoadUserFile(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}

func TestLoadUserFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	if err := os.WriteFile(path, []byte("personas: [not: {valid"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewRegistry()
	if err := r.LoadUserFile(path); err == nil {
		t.Fatalf("expected parse error for malformed yaml")
	}
}
