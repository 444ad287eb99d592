package crm

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	errx "github.com/empowering-agents/server/internal/core/error"
)

// Store is a minimal file-backed contact store keyed by email. Each upsert
// shallow-merges fields into the existing contact and rewrites the whole
// document.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// UpsertContact merges fields into the contact record for email.
func (s *Store) UpsertContact(email string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readAll()
	if err != nil {
		return err
	}

	contact, _ := data[email].(map[string]any)
	if contact == nil {
		contact = map[string]any{}
	}
	for k, v := range fields {
		contact[k] = v
	}
	data[email] = contact

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode crm store: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return errx.WrapStorage(err)
	}
	return nil
}

// GetContact returns the stored fields for email, or nil when unknown.
func (s *Store) GetContact(email string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readAll()
	if err != nil {
		return nil, err
	}
	contact, _ := data[email].(map[string]any)
	return contact, nil
}

func (s *Store) readAll() (map[string]any, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, errx.WrapStorage(err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, errx.WrapStorage(fmt.Errorf("decode crm store: %w", err))
	}
	return data, nil
}
