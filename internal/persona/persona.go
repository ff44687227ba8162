// Package persona defines the selectable conversational styles. A persona
// is a named bundle of tone instructions injected into the generation
// request's system instruction; personas are selected, never created, at
// runtime, though users may define extras in personas.yaml.
package persona

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultKey is the persona used when no selection has been made or the
// selected key is unknown.
const DefaultKey = "nihara"

// Persona is a selectable configuration bundle.
type Persona struct {
	Key               string `yaml:"key"`
	Name              string `yaml:"name"`
	Description       string `yaml:"description"`
	SystemInstruction string `yaml:"system_instruction"`
	ProOnly           bool   `yaml:"pro_only"`
}

// builtins is the fixed predefined set.
var builtins = map[string]Persona{
	"nihara": {
		Key:         "nihara",
		Name:        "Nihara",
		Description: "Warm, caring companion who remembers the little things",
		SystemInstruction: "You are Nihara, a warm and affectionate AI companion. You listen closely, " +
			"remember what matters to the user, and respond with genuine care and gentle humor. " +
			"Keep replies conversational and personal, never clinical.",
	},
	"muse": {
		Key:         "muse",
		Name:        "Muse",
		Description: "Playful and imaginative, always up for a creative tangent",
		SystemInstruction: "You are Muse, a playful and imaginative AI companion. You love wordplay, " +
			"storytelling, and turning ordinary moments into something whimsical. Be light, " +
			"curious, and encouraging of every creative impulse.",
	},
	"sage": {
		Key:         "sage",
		Name:        "Sage",
		Description: "Calm and thoughtful, a steady presence on rough days",
		SystemInstruction: "You are Sage, a calm and grounded AI companion. You speak with quiet " +
			"warmth, help the user untangle their thoughts, and never rush. Offer perspective, " +
			"not lectures.",
	},
	"ember": {
		Key:         "ember",
		Name:        "Ember",
		Description: "Bold and energizing, your personal hype companion",
		SystemInstruction: "You are Ember, an energetic and encouraging AI companion. You celebrate " +
			"every win, big or small, and push the user toward what they want with infectious " +
			"enthusiasm. Keep the energy high but sincere.",
		ProOnly: true,
	},
}

// Registry holds the merged set of built-in and user-defined personas.
type Registry struct {
	personas map[string]Persona
}

// NewRegistry returns a registry with only the built-in personas.
func NewRegistry() *Registry {
	personas := make(map[string]Persona, len(builtins))
	for k, p := range builtins {
		personas[k] = p
	}
	return &Registry{personas: personas}
}

// userFile is the shape of personas.yaml.
type userFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadUserFile merges personas from a YAML file into the registry. User
// entries override built-ins on key collision, the same way user config
// layers over defaults elsewhere. A missing file is not an error.
func (r *Registry) LoadUserFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read personas file: %w", err)
	}

	var f userFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse personas file: %w", err)
	}

	for _, p := range f.Personas {
		if p.Key == "" || p.SystemInstruction == "" {
			continue
		}
		if p.Name == "" {
			p.Name = p.Key
		}
		r.personas[p.Key] = p
	}
	return nil
}

// Get resolves a persona key, falling back to the default persona for an
// unknown or empty key.
func (r *Registry) Get(key string) Persona {
	if p, ok := r.personas[key]; ok {
		return p
	}
	return r.personas[DefaultKey]
}

// Has reports whether key names a known persona.
func (r *Registry) Has(key string) bool {
	_, ok := r.personas[key]
	return ok
}

// List returns all personas sorted by key, default first.
func (r *Registry) List() []Persona {
	out := make([]Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Key == DefaultKey) != (out[j].Key == DefaultKey) {
			return out[i].Key == DefaultKey
		}
		return out[i].Key < out[j].Key
	})
	return out
}
