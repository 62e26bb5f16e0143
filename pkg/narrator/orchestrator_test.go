package narrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotale/pkg/config"
	"geotale/pkg/history"
	"geotale/pkg/llm/mock"
	"geotale/pkg/model"
	"geotale/pkg/store"
)

// fakeSource serves a fixed POI set per radius.
type fakeSource struct {
	byRadius map[int][]model.POI
	calls    []int
}

func (f *fakeSource) Candidates(_ context.Context, _, _ float64, radiusM int, _ string) ([]model.POI, error) {
	f.calls = append(f.calls, radiusM)
	return f.byRadius[radiusM], nil
}

// fakeFacts returns a canned fact set per POI key.
type fakeFacts struct {
	byKey map[string][]model.Fact
}

func (f *fakeFacts) FactsFor(_ context.Context, p *model.POI, _ string) ([]model.Fact, []model.Source) {
	fs := f.byKey[p.Key]
	if len(fs) == 0 {
		return nil, nil
	}
	return fs, []model.Source{{Type: "graph", Title: p.Key}}
}

type fakeTTS struct {
	err   error
	calls int
}

func (f *fakeTTS) Synthesize(context.Context, string, string) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return bytes.Repeat([]byte{1}, 2048), "audio/mpeg", nil
}

func strongFacts(n, years int) []model.Fact {
	var out []model.Fact
	for i := 0; i < n; i++ {
		out = append(out, model.Fact{Text: fmt.Sprintf("Fact %d.", i), HasYear: i < years})
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		RadiusSteps:     []int{500, 900},
		MaxPOIDistanceM: 2200,
		MaxCandidates:   18,
		MinFacts:        10,
		MinYearAnchors:  2,
		MaxFacts:        22,
		DistanceStepM:   50,
		MinWords:        5,
		MaxWords:        400,
		Denylists:       config.DefaultDenylists(),
	}
}

type orchFixture struct {
	orch     *Orchestrator
	source   *fakeSource
	facts    *fakeFacts
	hist     *history.Service
	tts      *fakeTTS
	exposure *store.MemoryStore
	llm      *mock.Provider
}

func newFixture(t *testing.T, llmResponses ...string) *orchFixture {
	t.Helper()
	f := &orchFixture{
		source:   &fakeSource{byRadius: map[int][]model.POI{}},
		facts:    &fakeFacts{byKey: map[string][]model.Fact{}},
		hist:     history.New(nil),
		tts:      &fakeTTS{},
		exposure: store.NewMemoryStore(),
		llm:      mock.New(llmResponses...),
	}
	gen := NewGenerator(f.llm, config.DefaultDenylists())
	f.orch = NewOrchestrator(f.source, f.facts, f.hist, gen, f.tts, f.exposure, nil, testConfig())
	return f
}

func (f *orchFixture) seedStrongPOI() {
	f.source.byRadius[500] = []model.POI{{
		Key: "graph:Q1", Source: "graph", Label: "Big Ben",
		Lat: 51.5007, Lng: -0.1246,
	}}
	f.facts.byKey["graph:Q1"] = strongFacts(12, 3)
}

func baseRequest() Request {
	return Request{Lat: 51.5, Lng: -0.12, UserKey: "u1", Lang: "en", Taste: model.DefaultTaste()}
}

func TestTellHappyPath(t *testing.T) {
	f := newFixture(t, "The clock tower was finished in 1859 near the bridge.")
	f.seedStrongPOI()

	d, err := f.orch.Tell(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.True(t, d.ShouldSpeak)
	assert.Equal(t, model.ReasonOK, d.Reason)
	require.NotNil(t, d.POI)
	assert.Equal(t, "Big Ben", d.POI.Label)
	assert.NotEmpty(t, d.StoryText)
	assert.NotEmpty(t, d.Audio)
	assert.Equal(t, "audio/mpeg", d.AudioContentType)
	assert.Len(t, d.Facts, 8, "envelope facts capped at 8")
	assert.Zero(t, int(d.DistanceMetersApprox)%50, "distance rounded to step")

	// Marked heard and logged.
	_, heard := f.hist.HeardSet(context.Background(), "u1")["graph:Q1"]
	assert.True(t, heard)
	recs := f.exposure.Exposures()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].ShouldSpeak)
	assert.Equal(t, "graph:Q1", recs[0].PoiKey)
}

func TestTellSecondRequestSilent(t *testing.T) {
	f := newFixture(t)
	f.llm.SetFallback("The clock tower was finished in 1859 near the bridge.")
	f.seedStrongPOI()
	ctx := context.Background()

	_, err := f.orch.Tell(ctx, baseRequest())
	require.NoError(t, err)

	d, err := f.orch.Tell(ctx, baseRequest())
	require.NoError(t, err)
	assert.False(t, d.ShouldSpeak)
	assert.Equal(t, model.ReasonNoStrongPOI, d.Reason)
	assert.Equal(t, 1, f.tts.calls, "no second synthesis")
}

func TestTellWeakFactsStaySilent(t *testing.T) {
	f := newFixture(t)
	f.source.byRadius[500] = []model.POI{{Key: "osm:1", Source: "osm", Label: "Bench", Lat: 51.5, Lng: -0.12}}
	f.facts.byKey["osm:1"] = strongFacts(5, 1)

	d, err := f.orch.Tell(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.False(t, d.ShouldSpeak)
	assert.Equal(t, model.ReasonNoStrongPOI, d.Reason)
	assert.Empty(t, f.llm.Prompts, "gate failure never reaches the model")
}

func TestTellRadiusEscalation(t *testing.T) {
	f := newFixture(t, "The mill was raised in 1720 beside the stream crossing.")
	f.source.byRadius[900] = []model.POI{{Key: "graph:Q9", Source: "graph", Label: "Old Mill", Lat: 51.505, Lng: -0.12}}
	f.facts.byKey["graph:Q9"] = strongFacts(11, 2)

	d, err := f.orch.Tell(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.True(t, d.ShouldSpeak)
	assert.Equal(t, []int{500, 900}, f.source.calls)
}

func TestTellModelRefusal(t *testing.T) {
	f := newFixture(t, "NO_STORY")
	f.seedStrongPOI()

	d, err := f.orch.Tell(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.False(t, d.ShouldSpeak)
	assert.Equal(t, model.ReasonModelNoStory, d.Reason)
	assert.Equal(t, 0, f.tts.calls, "no synthesis on refusal")

	// POI stays eligible.
	_, heard := f.hist.HeardSet(context.Background(), "u1")["graph:Q1"]
	assert.False(t, heard)

	// Still exactly one exposure record.
	recs := f.exposure.Exposures()
	require.Len(t, recs, 1)
	assert.False(t, recs[0].ShouldSpeak)
	assert.Equal(t, model.ReasonModelNoStory, recs[0].Reason)
}

func TestTellFailedRepairSilent(t *testing.T) {
	f := newFixture(t,
		"A breathtaking tower built in 1859 by the river bank.",
		"Still a breathtaking tower from 1859, sadly.",
	)
	f.seedStrongPOI()

	d, err := f.orch.Tell(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.False(t, d.ShouldSpeak)
	assert.Equal(t, "final_validation_failed_banned_filler", d.Reason)
	assert.Equal(t, 0, f.tts.calls)
}

func TestTellTTSFailure(t *testing.T) {
	f := newFixture(t, "The clock tower was finished in 1859 near the bridge.")
	f.seedStrongPOI()
	f.tts.err = errors.New("tts 429")

	_, err := f.orch.Tell(context.Background(), baseRequest())
	require.Error(t, err)

	// Not marked heard, so a retry can succeed.
	_, heard := f.hist.HeardSet(context.Background(), "u1")["graph:Q1"]
	assert.False(t, heard)
}

func TestTellLLMFailureBubbles(t *testing.T) {
	f := newFixture(t)
	f.llm.SetError(errors.New("upstream 502"))
	f.seedStrongPOI()

	_, err := f.orch.Tell(context.Background(), baseRequest())
	assert.Error(t, err)
}

func TestTellMinScoreToSpeak(t *testing.T) {
	f := newFixture(t)
	f.seedStrongPOI()
	// 12 facts, 3 anchors: boost 1620; distance ~80m; floor above that
	// silences the decision.
	f.orch.cfg.MinScoreToSpeak = 2000

	d, err := f.orch.Tell(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.False(t, d.ShouldSpeak)
	assert.Equal(t, model.ReasonNoStrongPOI, d.Reason)
}
