package main

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"nihara/internal/config"
	"nihara/internal/gen"
	"nihara/internal/persona"
	"nihara/internal/state"
	"nihara/internal/store"
)

// app bundles everything a command needs: config, state, personas, and
// the generation adapter.
type app struct {
	cfg      config.Config
	kv       *store.KV
	st       *state.Store
	personas *persona.Registry
	adapter  *gen.Adapter
}

// newApp wires the application up from the config directory. Callers
// must Close it.
func newApp(logger *zap.Logger) (*app, error) {
	cfg, _ := config.Load()
	if apiKey != "" {
		cfg.APIKey = apiKey
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}

	kv, err := store.Open(filepath.Join(dir, "nihara.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	st := state.New(kv)
	if err := st.Load(); err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	personas := persona.NewRegistry()
	if err := personas.LoadUserFile(filepath.Join(dir, "personas.yaml")); err != nil {
		logger.Warn("ignoring unreadable personas file", zap.Error(err))
	}

	client := gen.NewClient(gen.ClientConfig{
		APIKey:     cfg.APIKey,
		ChatModel:  cfg.ChatModel,
		ImageModel: cfg.ImageModel,
	}, logger)

	return &app{
		cfg:      cfg,
		kv:       kv,
		st:       st,
		personas: personas,
		adapter:  gen.NewAdapter(client, logger),
	}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

// requireAdapter fails with configuration instructions when no credential
// is available. Headless generation commands call this up front so the
// user never waits on a call that cannot happen.
func (a *app) requireAdapter() error {
	if a.adapter.Available() {
		return nil
	}
	return fmt.Errorf(`no Gemini API key configured

Nihara is powered by the Google Gemini API. To get started:
  1. Get a free API key from https://aistudio.google.com/app/apikey
  2. Export it as GEMINI_API_KEY, or
  3. Put it under "api_key" in %s`, configFileHint())
}

func configFileHint() string {
	path, err := config.File()
	if err != nil {
		return "~/.nihara/config.json"
	}
	return path
}

// displayName returns the stored name, or a friendly fallback for
// headless use before the welcome gate has run.
func (a *app) displayName() string {
	if name := a.st.UserName(); name != "" {
		return name
	}
	return "friend"
}

// activePersona resolves the selected persona, honoring the pro gate:
// a pro-only selection silently falls back to the default persona when
// the unlock is missing.
func (a *app) activePersona() persona.Persona {
	p := a.personas.Get(a.st.Persona())
	if p.ProOnly && !a.st.IsPro() {
		return a.personas.Get(persona.DefaultKey)
	}
	return p
}

// historyTurns converts stored chat history into adapter turns.
func historyTurns(msgs []state.ChatMessage) []gen.Turn {
	turns := make([]gen.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, gen.Turn{Role: m.Role, Text: m.Text})
	}
	return turns
}

// recentTurns returns at most n of the latest turns.
func recentTurns(msgs []state.ChatMessage, n int) []gen.Turn {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return historyTurns(msgs)
}
