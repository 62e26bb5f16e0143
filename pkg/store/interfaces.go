package store

import (
	"context"
	"time"

	"geotale/pkg/model"
)

// HistoryStore persists the per-user heard set. Writes are idempotent
// upserts; rows are never deleted.
type HistoryStore interface {
	LoadHeard(ctx context.Context, userKey string) ([]string, error)
	MarkHeard(ctx context.Context, userKey, poiKey string, at time.Time) error
}

// POICacheStore persists normalized POI sets keyed by geo bucket.
type POICacheStore interface {
	GetPOICache(ctx context.Context, key string) ([]byte, bool)
	SetPOICache(ctx context.Context, key string, val []byte) error
}

// ExposureStore appends one record per narration decision.
type ExposureStore interface {
	AppendExposure(ctx context.Context, rec *model.ExposureRecord) error
}

// TasteStore persists taste profiles.
type TasteStore interface {
	GetTaste(ctx context.Context, id string) (*model.TasteProfile, error)
	SaveTaste(ctx context.Context, id string, t model.TasteProfile) error
}

// Store composes all repositories. Consumers should depend on the
// sub-interfaces where possible.
type Store interface {
	HistoryStore
	POICacheStore
	ExposureStore
	TasteStore

	Close() error
}
