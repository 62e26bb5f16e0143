package narrator

import (
	"context"
	"log/slog"
	"time"

	"geotale/pkg/config"
	"geotale/pkg/geo"
	"geotale/pkg/model"
	"geotale/pkg/poi"
	"geotale/pkg/prompt"
	"geotale/pkg/store"
	"geotale/pkg/tracker"
	"geotale/pkg/tts"
)

// maxResponseFacts caps how many facts ride along in the decision
// envelope.
const maxResponseFacts = 8

// CandidateSource yields normalized POIs around a point.
type CandidateSource interface {
	Candidates(ctx context.Context, lat, lng float64, radiusM int, lang string) ([]model.POI, error)
}

// FactProvider merges the fact set for one POI.
type FactProvider interface {
	FactsFor(ctx context.Context, p *model.POI, lang string) ([]model.Fact, []model.Source)
}

// HeardTracker is the per-user at-most-once exposure ledger.
type HeardTracker interface {
	HeardSet(ctx context.Context, userKey string) map[string]struct{}
	MarkHeard(ctx context.Context, userKey, poiKey string)
}

// Orchestrator drives one narration decision end to end: expanding-radius
// POI search, fact gathering, gated selection, grounded generation,
// synthesis and bookkeeping.
type Orchestrator struct {
	source   CandidateSource
	facts    FactProvider
	history  HeardTracker
	gen      *Generator
	tts      tts.Provider
	exposure store.ExposureStore // nil in memory-only mode
	tracker  *tracker.Tracker
	cfg      *config.Config
}

// NewOrchestrator wires the pipeline. exposure may be nil.
func NewOrchestrator(source CandidateSource, facts FactProvider, hist HeardTracker, gen *Generator, synth tts.Provider, exposure store.ExposureStore, tr *tracker.Tracker, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		source:   source,
		facts:    facts,
		history:  hist,
		gen:      gen,
		tts:      synth,
		exposure: exposure,
		tracker:  tr,
		cfg:      cfg,
	}
}

// Request is one narration query.
type Request struct {
	Lat, Lng float64
	UserKey  string
	Lang     string
	Taste    model.TasteProfile
	TasteID  string
}

// Tell produces the decision for a request. Silent outcomes are normal
// results; only transport-terminal failures (LLM, TTS) return an error.
func (o *Orchestrator) Tell(ctx context.Context, req Request) (*model.Decision, error) {
	best, err := o.findCandidate(ctx, req)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return o.finish(ctx, req, &model.Decision{
			ShouldSpeak: false,
			Reason:      model.ReasonNoStrongPOI,
		}, nil), nil
	}

	params := prompt.Params{
		PlaceName:      best.POI.DisplayName(),
		DistanceMeters: best.DistanceMeters,
		DistanceStepM:  o.cfg.DistanceStepM,
		Lang:           req.Lang,
		MinWords:       o.cfg.MinWords,
		MaxWords:       o.cfg.MaxWords,
		Taste:          req.Taste,
		Facts:          best.Facts,
	}

	story, reason, err := o.gen.Generate(ctx, params)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		// Refusal or failed repair: no audio, no history mark.
		return o.finish(ctx, req, &model.Decision{
			ShouldSpeak: false,
			Reason:      reason,
			POI:         &best.POI,
		}, best), nil
	}

	audio, contentType, err := o.tts.Synthesize(ctx, story, req.Lang)
	if err != nil {
		// Not marked heard, so the POI stays eligible for a retry.
		return nil, err
	}

	o.history.MarkHeard(ctx, req.UserKey, best.POI.Key)

	respFacts := best.Facts
	if len(respFacts) > maxResponseFacts {
		respFacts = respFacts[:maxResponseFacts]
	}
	return o.finish(ctx, req, &model.Decision{
		ShouldSpeak:          true,
		Reason:               model.ReasonOK,
		POI:                  &best.POI,
		Facts:                respFacts,
		StoryText:            story,
		DistanceMetersApprox: float64(geo.RoundToStep(best.DistanceMeters, o.cfg.DistanceStepM)),
		Audio:                audio,
		AudioContentType:     contentType,
	}, best), nil
}

// findCandidate walks the expanding-radius schedule and returns the first
// gate-passing candidate, or nil when the search space is exhausted.
func (o *Orchestrator) findCandidate(ctx context.Context, req Request) (*model.PoiWithFacts, error) {
	heard := o.history.HeardSet(ctx, req.UserKey)
	sp := poi.SelectParams{
		MinFacts:        o.cfg.MinFacts,
		MinYearAnchors:  o.cfg.MinYearAnchors,
		MinScoreToSpeak: o.cfg.MinScoreToSpeak,
	}

	for _, radius := range o.cfg.RadiusSteps {
		pois, err := o.source.Candidates(ctx, req.Lat, req.Lng, radius, req.Lang)
		if err != nil {
			return nil, err
		}

		ranked := poi.Rank(pois, req.Lat, req.Lng, heard, o.cfg.MaxPOIDistanceM, o.cfg.MaxCandidates)
		withFacts := make([]*model.PoiWithFacts, 0, len(ranked))
		for _, c := range ranked {
			fs, srcs := o.facts.FactsFor(ctx, &c.POI, req.Lang)
			withFacts = append(withFacts, &model.PoiWithFacts{
				POI:            c.POI,
				Facts:          fs,
				Sources:        srcs,
				DistanceMeters: c.DistanceMeters,
			})
		}

		if best := poi.Select(withFacts, sp); best != nil {
			return best, nil
		}
		slog.Debug("no candidate at radius", "radius", radius, "pois", len(pois), "ranked", len(ranked))
	}
	return nil, nil
}

// finish appends the exposure record and counts the decision. Durable
// failures are logged, never fatal.
func (o *Orchestrator) finish(ctx context.Context, req Request, d *model.Decision, best *model.PoiWithFacts) *model.Decision {
	o.tracker.TrackDecision(d.Reason)

	if o.exposure == nil {
		return d
	}
	rec := &model.ExposureRecord{
		Timestamp:      time.Now(),
		UserKey:        req.UserKey,
		Lat:            req.Lat,
		Lng:            req.Lng,
		ShouldSpeak:    d.ShouldSpeak,
		Reason:         d.Reason,
		TasteProfileID: req.TasteID,
		StoryLen:       len(d.StoryText),
	}
	if best != nil {
		rec.PoiKey = best.POI.Key
		rec.PoiName = best.POI.DisplayName()
		rec.PoiSource = best.POI.Source
		rec.DistanceMeters = best.DistanceMeters
	}
	if err := o.exposure.AppendExposure(ctx, rec); err != nil {
		slog.Error("exposure log write failed", "user", req.UserKey, "error", err)
	}
	return d
}
