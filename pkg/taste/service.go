package taste

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"geotale/pkg/model"
	"geotale/pkg/store"
)

// nudge is how far one feedback signal moves a weight.
const nudge = 0.1

// Service manages taste profiles. Memory is authoritative; the durable
// tier (optional) is read on miss and written through on change.
type Service struct {
	store store.TasteStore // nil in memory-only mode

	mu       sync.Mutex
	profiles map[string]model.TasteProfile
}

// New creates a taste service. st may be nil.
func New(st store.TasteStore) *Service {
	return &Service{
		store:    st,
		profiles: make(map[string]model.TasteProfile),
	}
}

// Get resolves a profile. An empty or unknown id yields the default
// profile; the empty id gets a fresh one assigned.
func (s *Service) Get(ctx context.Context, id string) (string, model.TasteProfile) {
	if id == "" {
		return uuid.NewString(), model.DefaultTaste()
	}

	s.mu.Lock()
	p, ok := s.profiles[id]
	s.mu.Unlock()
	if ok {
		return id, p
	}

	if s.store != nil {
		if stored, err := s.store.GetTaste(ctx, id); err != nil {
			slog.Error("taste load failed, using default", "id", id, "error", err)
		} else if stored != nil {
			s.mu.Lock()
			s.profiles[id] = *stored
			s.mu.Unlock()
			return id, *stored
		}
	}
	return id, model.DefaultTaste()
}

// Set replaces a profile wholesale. Weights are clamped to [0,1].
func (s *Service) Set(ctx context.Context, id string, p model.TasteProfile) (string, model.TasteProfile) {
	if id == "" {
		id = uuid.NewString()
	}
	p.Clamp()

	s.mu.Lock()
	s.profiles[id] = p
	s.mu.Unlock()

	s.persist(ctx, id, p)
	return id, p
}

// Feedback describes one round of listener reactions. Nil fields mean
// "no signal".
type Feedback struct {
	Liked        *bool `json:"liked,omitempty"`
	MoreHumor    *bool `json:"moreHumor,omitempty"`
	MoreNerdy    *bool `json:"moreNerdy,omitempty"`
	Shorter      *bool `json:"shorter,omitempty"`
	MoreDramatic *bool `json:"moreDramatic,omitempty"`
}

// Apply nudges the profile by the feedback signals and persists it.
func (s *Service) Apply(ctx context.Context, id string, fb Feedback) (string, model.TasteProfile) {
	id, p := s.Get(ctx, id)

	adjust := func(v *float64, up *bool) {
		if up == nil {
			return
		}
		if *up {
			*v += nudge
		} else {
			*v -= nudge
		}
	}
	adjust(&p.Humor, fb.MoreHumor)
	adjust(&p.Nerdy, fb.MoreNerdy)
	adjust(&p.Shortness, fb.Shorter)
	adjust(&p.Dramatic, fb.MoreDramatic)

	// A bare like/dislike gently reinforces or relaxes the current mix by
	// nudging shortness; longer stories when liked, shorter when not.
	if fb.Liked != nil && !*fb.Liked {
		p.Shortness += nudge
	}
	p.Clamp()

	s.mu.Lock()
	s.profiles[id] = p
	s.mu.Unlock()

	s.persist(ctx, id, p)
	return id, p
}

func (s *Service) persist(ctx context.Context, id string, p model.TasteProfile) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveTaste(ctx, id, p); err != nil {
		slog.Error("taste write failed", "id", id, "error", err)
	}
}
