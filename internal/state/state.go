// Package state holds Nihara's application state: who the user is, which
// mode is active, the conversation and diary, the pro unlock, and the
// commitment level. Every tracked field is persisted under its own key
// the moment it changes and read back defensively at startup.
package state

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"nihara/internal/store"
)

// Storage keys, one per tracked field.
const (
	keyUserName        = "nihara_userName"
	keyIsPro           = "nihara_isPro"
	keyChatHistory     = "nihara_chatHistory"
	keyDiaryEntries    = "nihara_diaryEntries"
	keyCommitmentLevel = "nihara_commitmentLevel"
	keyPersona         = "nihara_persona"
	keyVoiceTone       = "nihara_voiceTone"
	keyMode            = "nihara_mode"
)

// upgradeCode unlocks the pro tier. This is a cosmetic gate, not access
// control; the value matching is exact and case-sensitive.
const upgradeCode = "NIHARA-STARLIGHT-777"

// MaxCommitment caps the commitment level.
const MaxCommitment = 100

// DefaultVoiceTone is the voice used by live mode until the user picks one.
const DefaultVoiceTone = "Zephyr"

// ChatMessage is one turn of the conversation.
type ChatMessage struct {
	Role string    `json:"role"` // "user" or "model"
	Text string    `json:"text"`
	At   time.Time `json:"at,omitempty"`
}

// DiaryEntry is one diary record, authored by the user or by Nihara.
type DiaryEntry struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"` // "user" or "nihara"
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the in-memory application state plus its persistence.
type Store struct {
	mu sync.RWMutex
	kv *store.KV

	userName   string
	isPro      bool
	history    []ChatMessage
	diary      []DiaryEntry
	commitment int
	persona    string
	voiceTone  string
	mode       Mode
}

// New creates a Store over the given key-value backing. Call Load before
// reading any field.
func New(kv *store.KV) *Store {
	return &Store{
		kv:        kv,
		voiceTone: DefaultVoiceTone,
		mode:      ModeChat,
	}
}

// Load reads every tracked field from storage. Each field is read under
// its own key; an absent or malformed value resets just that field to its
// default and never fails the load.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok, err := s.kv.Get(keyUserName); err != nil {
		return err
	} else if ok {
		s.userName = v
	}

	if v, ok, err := s.kv.Get(keyIsPro); err != nil {
		return err
	} else if ok {
		s.isPro = v == "true"
	}

	if v, ok, err := s.kv.Get(keyChatHistory); err != nil {
		return err
	} else if ok {
		var history []ChatMessage
		if json.Unmarshal([]byte(v), &history) == nil {
			s.history = history
		}
	}

	if v, ok, err := s.kv.Get(keyDiaryEntries); err != nil {
		return err
	} else if ok {
		var diary []DiaryEntry
		if json.Unmarshal([]byte(v), &diary) == nil {
			s.diary = diary
		}
	}

	if v, ok, err := s.kv.Get(keyCommitmentLevel); err != nil {
		return err
	} else if ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			if n > MaxCommitment {
				n = MaxCommitment
			}
			s.commitment = n
		}
	}

	if v, ok, err := s.kv.Get(keyPersona); err != nil {
		return err
	} else if ok {
		s.persona = v
	}

	if v, ok, err := s.kv.Get(keyVoiceTone); err != nil {
		return err
	} else if ok && v != "" {
		s.voiceTone = v
	}

	if v, ok, err := s.kv.Get(keyMode); err != nil {
		return err
	} else if ok {
		s.mode = ParseMode(v)
	}

	return nil
}

// UserName returns the display name, empty until the welcome gate sets it.
func (s *Store) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userName
}

// SetUserName stores the display name.
func (s *Store) SetUserName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userName = name
	return s.kv.Set(keyUserName, name)
}

// IsPro reports whether the pro tier is unlocked.
func (s *Store) IsPro() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isPro
}

// ApplyUpgrade checks code against the upgrade constant. On a match the
// pro flag is set and persisted; the transition is one-way. Re-applying
// the correct code after unlock is a no-op success.
func (s *Store) ApplyUpgrade(code string) (bool, error) {
	if code != upgradeCode {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isPro {
		return true, nil
	}
	s.isPro = true
	return true, s.kv.Set(keyIsPro, "true")
}

// CommitmentLevel returns the engagement counter, always in [0, 100].
func (s *Store) CommitmentLevel() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commitment
}

// RecordInteraction bumps the commitment level by one, clamped at
// MaxCommitment, and persists it. Called after every qualifying user
// action: message sent, image requested, prediction requested, diary
// entry saved.
func (s *Store) RecordInteraction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitment < MaxCommitment {
		s.commitment++
	}
	return s.kv.Set(keyCommitmentLevel, strconv.Itoa(s.commitment))
}

// History returns a copy of the conversation history.
func (s *Store) History() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// AppendHistory adds turns to the conversation and persists the whole
// sequence.
func (s *Store) AppendHistory(msgs ...ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
	return s.persistHistoryLocked()
}

// ClearHistory drops the conversation.
func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	return s.persistHistoryLocked()
}

func (s *Store) persistHistoryLocked() error {
	data, err := json.Marshal(s.history)
	if err != nil {
		return err
	}
	return s.kv.Set(keyChatHistory, string(data))
}

// Diary returns a copy of the diary entries in insertion order.
func (s *Store) Diary() []DiaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DiaryEntry, len(s.diary))
	copy(out, s.diary)
	return out
}

// AppendDiary adds an entry and persists the sequence.
func (s *Store) AppendDiary(entry DiaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diary = append(s.diary, entry)
	data, err := json.Marshal(s.diary)
	if err != nil {
		return err
	}
	return s.kv.Set(keyDiaryEntries, string(data))
}

// Persona returns the selected persona key, empty meaning the default.
func (s *Store) Persona() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persona
}

// SetPersona stores the persona selection.
func (s *Store) SetPersona(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persona = key
	return s.kv.Set(keyPersona, key)
}

// VoiceTone returns the live-mode voice. The value is an open string; no
// validation against a known set is done here.
func (s *Store) VoiceTone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voiceTone
}

// SetVoiceTone stores the live-mode voice.
func (s *Store) SetVoiceTone(tone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceTone = tone
	return s.kv.Set(keyVoiceTone, tone)
}

// ActiveMode returns the current mode.
func (s *Store) ActiveMode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetActiveMode switches modes and persists the selection so the app
// reopens where the user left off.
func (s *Store) SetActiveMode(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	return s.kv.Set(keyMode, string(m))
}
