package poi

import (
	"sort"
	"strings"

	"geotale/pkg/geo"
	"geotale/pkg/model"
)

type entityKey struct {
	label string
	lat   float64
	lng   float64
}

func entityKeyFor(p model.POI) entityKey {
	return entityKey{
		label: strings.ToLower(strings.TrimSpace(p.Label)),
		lat:   geo.Round4(p.Lat),
		lng:   geo.Round4(p.Lng),
	}
}

// Candidate is a POI with its distance to the query point.
type Candidate struct {
	POI            model.POI
	DistanceMeters float64
}

// Rank filters to POIs the user has not heard within the distance limit
// and returns the closest maxCandidates, nearest first.
func Rank(pois []model.POI, lat, lng float64, heard map[string]struct{}, maxDistM float64, maxCandidates int) []Candidate {
	here := geo.NewPoint(lat, lng)
	candidates := make([]Candidate, 0, len(pois))
	for _, p := range pois {
		if _, ok := heard[p.Key]; ok {
			continue
		}
		d := geo.Distance(here, geo.NewPoint(p.Lat, p.Lng))
		if d > maxDistM {
			continue
		}
		candidates = append(candidates, Candidate{POI: p, DistanceMeters: d})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceMeters < candidates[j].DistanceMeters
	})
	if maxCandidates > 0 && len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}

// SelectParams tunes the story gate and scoring.
type SelectParams struct {
	MinFacts        int
	MinYearAnchors  int
	MinScoreToSpeak float64
}

const (
	factBoostCap   = 20
	factBoost      = 80
	anchorBoostCap = 10
	anchorBoost    = 220
)

// boost rewards dense, well-anchored fact sets.
func boost(p *model.PoiWithFacts) float64 {
	facts := len(p.Facts)
	if facts > factBoostCap {
		facts = factBoostCap
	}
	anchors := p.AnchorCount()
	if anchors > anchorBoostCap {
		anchors = anchorBoostCap
	}
	return float64(facts*factBoost + anchors*anchorBoost)
}

// Score is distance minus the fact/anchor boost; lower is better.
func Score(p *model.PoiWithFacts) float64 {
	return p.DistanceMeters - boost(p)
}

// Passes reports whether a fact set clears the story gate.
func (sp SelectParams) Passes(p *model.PoiWithFacts) bool {
	return len(p.Facts) >= sp.MinFacts && p.YearCount() >= sp.MinYearAnchors
}

// Select picks the best gate-passing candidate. Ties keep the earlier
// input. Returns nil when nothing passes the gate or the configured
// minimum speak score.
func Select(candidates []*model.PoiWithFacts, sp SelectParams) *model.PoiWithFacts {
	var best *model.PoiWithFacts
	var bestScore float64
	for _, c := range candidates {
		if c == nil || !sp.Passes(c) {
			continue
		}
		s := Score(c)
		if best == nil || s < bestScore {
			best, bestScore = c, s
		}
	}
	if best == nil {
		return nil
	}
	// MinScoreToSpeak is a boost-minus-distance floor; zero disables it.
	if sp.MinScoreToSpeak > 0 && -bestScore < sp.MinScoreToSpeak {
		return nil
	}
	return best
}
