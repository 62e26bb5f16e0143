package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotale/pkg/store"
)

func TestMarkAndHeard(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	assert.Empty(t, s.HeardSet(ctx, "u1"))

	s.MarkHeard(ctx, "u1", "osm:1")
	s.MarkHeard(ctx, "u1", "osm:1")
	s.MarkHeard(ctx, "u1", "graph:Q2")

	set := s.HeardSet(ctx, "u1")
	assert.Len(t, set, 2)
	_, ok := set["osm:1"]
	assert.True(t, ok)

	// Other users are isolated.
	assert.Empty(t, s.HeardSet(ctx, "u2"))
}

func TestDurableHydration(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, mem.MarkHeard(ctx, "u1", "graph:Q42", time.Now()))

	s := New(mem)
	set := s.HeardSet(ctx, "u1")
	_, ok := set["graph:Q42"]
	assert.True(t, ok, "durable rows should hydrate on first read")
}

func TestDurableWriteThrough(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()

	s := New(mem)
	s.MarkHeard(ctx, "u1", "osm:5")

	keys, err := mem.LoadHeard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"osm:5"}, keys)
}

type failingHistory struct{}

func (failingHistory) LoadHeard(context.Context, string) ([]string, error) {
	return nil, errors.New("db down")
}

func (failingHistory) MarkHeard(context.Context, string, string, time.Time) error {
	return errors.New("db down")
}

func TestDurableFailureNotFatal(t *testing.T) {
	s := New(failingHistory{})
	ctx := context.Background()

	// Neither call may panic or lose the in-memory state.
	s.MarkHeard(ctx, "u1", "osm:9")
	set := s.HeardSet(ctx, "u1")
	_, ok := set["osm:9"]
	assert.True(t, ok)
}

func TestConcurrentMarks(t *testing.T) {
	s := New(store.NewMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.MarkHeard(ctx, "u1", "osm:1")
			s.HeardSet(ctx, "u1")
		}()
	}
	wg.Wait()

	assert.Len(t, s.HeardSet(ctx, "u1"), 1)
}
