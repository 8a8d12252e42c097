package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"TrackBets/internal/domain/models"
	domrepo "TrackBets/internal/domain/repository"
	"TrackBets/pkg/cache"
)

// FileUserStore keeps the account in a JSON key/value file, one entry per
// storage key. Other keys in the file are preserved.
type FileUserStore struct {
	mu   sync.Mutex
	path string
}

func NewFileUserStore(path string) *FileUserStore {
	return &FileUserStore{path: path}
}

func (s *FileUserStore) Load(_ context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	raw, ok := entries[models.UserStorageKey]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode %s: %w", models.UserStorageKey, err)
	}
	return &u, nil
}

func (s *FileUserStore) Save(_ context.Context, u *models.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.read()
	if err != nil {
		return err
	}
	entries[models.UserStorageKey] = raw
	return s.write(entries)
}

func (s *FileUserStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := entries[models.UserStorageKey]; !ok {
		return nil
	}
	delete(entries, models.UserStorageKey)
	return s.write(entries)
}

func (s *FileUserStore) read() (map[string]json.RawMessage, error) {
	entries := map[string]json.RawMessage{}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read storage: %w", err)
	}
	if len(b) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse storage: %w", err)
	}
	return entries, nil
}

// write replaces the file through a rename so readers never see a partial
// document.
func (s *FileUserStore) write(entries map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".storage-*.json")
	if err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	return nil
}

// CacheUserStore keeps the account in a cache.Service without expiry.
type CacheUserStore struct {
	c cache.Service
}

func NewCacheUserStore(c cache.Service) *CacheUserStore {
	return &CacheUserStore{c: c}
}

func (s *CacheUserStore) Load(ctx context.Context) (*models.User, error) {
	var u models.User
	err := s.c.Get(ctx, models.UserStorageKey, &u)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

func (s *CacheUserStore) Save(ctx context.Context, u *models.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	return s.c.Set(ctx, models.UserStorageKey, u, 0)
}

func (s *CacheUserStore) Clear(ctx context.Context) error {
	return s.c.Delete(ctx, models.UserStorageKey)
}

var (
	_ domrepo.UserStore = (*FileUserStore)(nil)
	_ domrepo.UserStore = (*CacheUserStore)(nil)
)
