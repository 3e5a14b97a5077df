// Package storage defines the key-value persistence service the per-user
// stores write through. Every record holds the JSON form of one store's
// whole collection and is addressed by (kind, owner).
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

type Kind string

const (
	KindIdentity     Kind = "user"
	KindPantry       Kind = "pantry"
	KindRecipes      Kind = "user-recipes"
	KindShoppingList Kind = "shopping-list"
	KindMealPlans    Kind = "meal-plans"
	KindCredentials  Kind = "credentials"
	KindProfile      Kind = "profile"
)

// UserKinds are the record kinds owned by a single user.
var UserKinds = []Kind{KindPantry, KindRecipes, KindShoppingList, KindMealPlans, KindCredentials, KindProfile}

// Global is the owner of records that are not namespaced by a user.
const Global = ""

var ErrNotFound = errors.New("record not found")

// Backend persists opaque records. A single Save is atomic for the record's
// full value.
type Backend interface {
	Load(kind Kind, owner string) ([]byte, error)
	Save(kind Kind, owner string, data []byte) error
	Delete(kind Kind, owner string) error
}

// Key renders the conventional record key, e.g. "pantry-42".
func Key(kind Kind, owner string) string {
	if owner == Global {
		return string(kind)
	}
	return fmt.Sprintf("%s-%s", kind, owner)
}

// LoadJSON decodes the record into dst. It reports false, with no error,
// when the record does not exist.
func LoadJSON(b Backend, kind Kind, owner string, dst any) (bool, error) {
	data, err := b.Load(kind, owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load %s: %w", Key(kind, owner), err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", Key(kind, owner), err)
	}
	return true, nil
}

func SaveJSON(b Backend, kind Kind, owner string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", Key(kind, owner), err)
	}
	if err := b.Save(kind, owner, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", Key(kind, owner), err)
	}
	return nil
}

// Memory is an in-process Backend.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) Load(kind Kind, owner string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.records[Key(kind, owner)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Save(kind Kind, owner string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.records[Key(kind, owner)] = stored
	return nil
}

func (m *Memory) Delete(kind Kind, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, Key(kind, owner))
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
