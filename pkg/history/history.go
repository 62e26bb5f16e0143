package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"geotale/pkg/store"
)

// Service tracks which POIs each user has already heard. The in-memory
// tier is authoritative; the durable tier is hydrated lazily on first read
// per user and written through on marks. Durable failures are logged and
// never fatal.
type Service struct {
	store store.HistoryStore // nil in memory-only mode

	mu    sync.Mutex
	users map[string]*userSet
}

type userSet struct {
	hydrated bool
	keys     map[string]struct{}
}

// New creates a history service. st may be nil.
func New(st store.HistoryStore) *Service {
	return &Service{
		store: st,
		users: make(map[string]*userSet),
	}
}

// HeardSet returns the set of POI keys the user has been narrated about.
// The returned map is a copy; callers may not mutate shared state.
func (s *Service) HeardSet(ctx context.Context, userKey string) map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.hydrateLocked(ctx, userKey)
	out := make(map[string]struct{}, len(set.keys))
	for k := range set.keys {
		out[k] = struct{}{}
	}
	return out
}

// MarkHeard records that the user has heard the POI. Idempotent.
func (s *Service) MarkHeard(ctx context.Context, userKey, poiKey string) {
	now := time.Now()

	s.mu.Lock()
	set := s.hydrateLocked(ctx, userKey)
	_, already := set.keys[poiKey]
	set.keys[poiKey] = struct{}{}
	s.mu.Unlock()

	if already || s.store == nil {
		return
	}
	if err := s.store.MarkHeard(ctx, userKey, poiKey, now); err != nil {
		// Memory stays authoritative for this process.
		slog.Error("History: durable write failed", "user", userKey, "poi", poiKey, "error", err)
	}
}

// hydrateLocked returns the user's set, loading durable rows on first
// access. Caller holds s.mu.
func (s *Service) hydrateLocked(ctx context.Context, userKey string) *userSet {
	set, ok := s.users[userKey]
	if !ok {
		set = &userSet{keys: make(map[string]struct{})}
		s.users[userKey] = set
	}
	if set.hydrated {
		return set
	}
	set.hydrated = true

	if s.store == nil {
		return set
	}
	keys, err := s.store.LoadHeard(ctx, userKey)
	if err != nil {
		slog.Error("History: durable load failed, starting empty", "user", userKey, "error", err)
		return set
	}
	for _, k := range keys {
		set.keys[k] = struct{}{}
	}
	return set
}
