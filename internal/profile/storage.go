package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("profile not found")

// Persister loads and saves one profile per player. Implementations return
// ErrNotFound (possibly wrapped) when nothing is stored yet.
type Persister interface {
	Load(ctx context.Context, playerID string) (UserSkillProfile, error)
	Save(ctx context.Context, playerID string, p UserSkillProfile) error
}

// LoadOrDefault never fails: missing or unreadable profiles are replaced with
// NewProfile(), and out-of-range values are clamped.
func LoadOrDefault(ctx context.Context, ps Persister, playerID string) UserSkillProfile {
	if ps == nil {
		return NewProfile()
	}
	p, err := ps.Load(ctx, playerID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[Profile] Load %s failed, using defaults: %v\n", playerID, err)
		}
		return NewProfile()
	}
	return p.Sanitize()
}

type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]UserSkillProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]UserSkillProfile),
	}
}

func (s *MemoryStore) Load(_ context.Context, playerID string) (UserSkillProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[playerID]
	if !ok {
		return UserSkillProfile{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Save(_ context.Context, playerID string, p UserSkillProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[playerID] = p
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

// FileStore keeps one JSON document per player under Dir.
type FileStore struct {
	mu  sync.Mutex
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(playerID string) (string, error) {
	if playerID == "" || strings.ContainsAny(playerID, `/\`) || playerID == "." || playerID == ".." {
		return "", fmt.Errorf("invalid player id %q", playerID)
	}
	return filepath.Join(s.Dir, playerID+".json"), nil
}

func (s *FileStore) Load(_ context.Context, playerID string) (UserSkillProfile, error) {
	path, err := s.path(playerID)
	if err != nil {
		return UserSkillProfile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return UserSkillProfile{}, ErrNotFound
	}
	if err != nil {
		return UserSkillProfile{}, fmt.Errorf("reading profile: %w", err)
	}
	var p UserSkillProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return UserSkillProfile{}, fmt.Errorf("decoding profile %s: %w", playerID, err)
	}
	return p, nil
}

func (s *FileStore) Save(_ context.Context, playerID string, p UserSkillProfile) error {
	path, err := s.path(playerID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing profile: %w", err)
	}
	return nil
}
