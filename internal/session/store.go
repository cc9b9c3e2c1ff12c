package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"flicktrainer/internal/adaptation"
	"flicktrainer/internal/broadcast"
	"flicktrainer/internal/events"
	"flicktrainer/internal/metrics"
	"flicktrainer/internal/utility"
	"flicktrainer/internal/wshub"
)

var ErrNotFound = errors.New("session not found")

const sweepInterval = 5 * time.Minute

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Context
	cfg      Config
}

func NewStore(cfg Config) *Store {
	if cfg.Clock == nil {
		cfg.Clock = utility.SystemClock()
	}
	return &Store{
		sessions: make(map[string]*Context),
		cfg:      cfg,
	}
}

// Create opens a context for the player with its own event bus, SSE
// broadcaster and websocket hub. An empty player id gets a guest id.
func (s *Store) Create(ctx context.Context, playerID string, settings adaptation.Settings) *Context {
	if playerID == "" {
		playerID = "guest-" + uuid.NewString()
	}

	c := New(ctx, uuid.NewString(), playerID, settings, s.cfg)
	c.Bus = events.NewBus()
	c.Hub = wshub.NewHub()
	c.Broadcaster = broadcast.NewBroadcaster(c.Bus, c.Hub)

	s.mu.Lock()
	s.sessions[c.ID] = c
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetActiveSessions(n)
	log.Printf("[Session] Created %s for player %s\n", c.ID, playerID)
	return c
}

func (s *Store) Get(id string) (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	c, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	c.close()
	metrics.SetActiveSessions(n)
	return nil
}

func (s *Store) List() []*Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Context, 0, len(s.sessions))
	for _, c := range s.sessions {
		list = append(list, c)
	}
	return list
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SweepStale drops contexts idle for longer than the TTL and reports how
// many were removed.
func (s *Store) SweepStale() int {
	if s.cfg.TTL <= 0 {
		return 0
	}
	now := s.cfg.Clock.Now()

	s.mu.Lock()
	var stale []*Context
	for id, c := range s.sessions {
		if now.Sub(c.LastActive()) > s.cfg.TTL {
			stale = append(stale, c)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, c := range stale {
		c.close()
	}
	if len(stale) > 0 {
		metrics.SetActiveSessions(n)
		log.Printf("[Session] Swept %d stale sessions\n", len(stale))
	}
	return len(stale)
}

// Run sweeps stale contexts until ctx is cancelled.
func (s *Store) Run(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepStale()
		}
	}
}
