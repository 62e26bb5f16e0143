package model

import (
	"time"
)

// POI source identifiers, in deterministic merge order.
const (
	SourceOSM    = "osm"
	SourceGraph  = "graph"
	SourcePlaces = "places"
	SourceAnchor = "anchor"
)

// EncyclopediaRef points to an encyclopedia page in a specific language.
type EncyclopediaRef struct {
	Lang  string `json:"lang"`
	Title string `json:"title"`
}

// POI is the normalized point-of-interest record shared by all source
// adapters. Key is stable across retries for the same underlying entity
// ("<source>:<native-id>").
type POI struct {
	Key         string            `json:"key"`
	Source      string            `json:"source"`
	Label       string            `json:"label"`
	Lat         float64           `json:"lat"`
	Lng         float64           `json:"lng"`
	Description string            `json:"description,omitempty"`
	KindHints   []string          `json:"kind_hints,omitempty"`
	GraphID     string            `json:"graph_id,omitempty"`
	Ref         *EncyclopediaRef  `json:"encyclopedia_ref,omitempty"`
	RawTags     map[string]string `json:"raw_tags,omitempty"`
}

// DisplayName returns the best available name for the POI.
func (p *POI) DisplayName() string {
	if p.Label != "" {
		return p.Label
	}
	if p.Ref != nil && p.Ref.Title != "" {
		return p.Ref.Title
	}
	return p.GraphID
}

// Fact is a single verifiable sentence about a POI, plus the anchor flags
// used for scoring. A fact is "anchored" when it carries a concrete
// time/number/name marker.
type Fact struct {
	Text           string `json:"text"`
	HasYear        bool   `json:"has_year,omitempty"`
	HasDate        bool   `json:"has_date,omitempty"`
	HasNamedEvent  bool   `json:"has_named_event,omitempty"`
	HasNamedPerson bool   `json:"has_named_person,omitempty"`
}

// Anchored reports whether any anchor flag is set.
func (f Fact) Anchored() bool {
	return f.HasYear || f.HasDate || f.HasNamedEvent || f.HasNamedPerson
}

// Source describes where a fact set came from, for attribution.
type Source struct {
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// PoiWithFacts bundles a POI with its merged fact set.
type PoiWithFacts struct {
	POI            POI      `json:"poi"`
	Facts          []Fact   `json:"facts"`
	Sources        []Source `json:"sources"`
	DistanceMeters float64  `json:"distance_meters"`
}

// AnchorCount returns the number of anchored facts.
func (p *PoiWithFacts) AnchorCount() int {
	n := 0
	for _, f := range p.Facts {
		if f.Anchored() {
			n++
		}
	}
	return n
}

// YearCount returns the number of facts carrying a year anchor.
func (p *PoiWithFacts) YearCount() int {
	n := 0
	for _, f := range p.Facts {
		if f.HasYear {
			n++
		}
	}
	return n
}

// Decision reasons. Validator sub-reasons are defined in pkg/narrator.
const (
	ReasonOK              = "ok"
	ReasonNoStrongPOI     = "no_strong_poi"
	ReasonModelNoStory    = "model_no_story"
	ReasonLocationMissing = "location_missing"
)

// Decision is the structured outcome of one narration request. The system
// prefers a silent decision with a machine-readable reason over a
// low-quality story.
type Decision struct {
	ShouldSpeak          bool    `json:"shouldSpeak"`
	Reason               string  `json:"reason"`
	POI                  *POI    `json:"poi"`
	Facts                []Fact  `json:"facts,omitempty"`
	StoryText            string  `json:"storyText"`
	DistanceMetersApprox float64 `json:"distanceMetersApprox,omitempty"`
	Audio                []byte  `json:"-"`
	AudioContentType     string  `json:"-"`
}

// HistoryEntry records that a user has heard a POI. Never deleted.
type HistoryEntry struct {
	UserKey     string    `json:"user_key"`
	PoiKey      string    `json:"poi_key"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}

// ExposureRecord is one append-only row per decision, spoken or silent.
type ExposureRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	UserKey        string    `json:"user_key"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	PoiKey         string    `json:"poi_key"`
	PoiName        string    `json:"poi_name"`
	PoiSource      string    `json:"poi_source"`
	DistanceMeters float64   `json:"distance_meters"`
	ShouldSpeak    bool      `json:"should_speak"`
	Reason         string    `json:"reason"`
	TasteProfileID string    `json:"taste_profile_id,omitempty"`
	StoryLen       int       `json:"story_len"`
}

// TasteProfile holds coarse narration conditioning weights, each in [0,1].
type TasteProfile struct {
	Humor     float64 `json:"humor"`
	Nerdy     float64 `json:"nerdy"`
	Dramatic  float64 `json:"dramatic"`
	Shortness float64 `json:"shortness"`
}

// DefaultTaste returns the neutral profile used when none is stored.
func DefaultTaste() TasteProfile {
	return TasteProfile{Humor: 0.3, Nerdy: 0.5, Dramatic: 0.3, Shortness: 0.5}
}

// Clamp bounds every weight to [0,1].
func (t *TasteProfile) Clamp() {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	t.Humor = clamp(t.Humor)
	t.Nerdy = clamp(t.Nerdy)
	t.Dramatic = clamp(t.Dramatic)
	t.Shortness = clamp(t.Shortness)
}
