package facts

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"geotale/pkg/cache"
	"geotale/pkg/config"
	"geotale/pkg/llm"
	"geotale/pkg/model"
	"geotale/pkg/wikidata"
	"geotale/pkg/wikipedia"
)

// Service merges graph and encyclopedia facts for a POI. Either source
// may fail or come back empty; the merger works with what arrived.
type Service struct {
	graph     *wikidata.Client
	wiki      *wikipedia.Client
	llm       llm.Provider
	cache     cache.Cacher
	denylists config.Denylists
	maxFacts  int
	ttl       time.Duration
}

// NewService creates a fact service.
func NewService(graph *wikidata.Client, wiki *wikipedia.Client, provider llm.Provider, c cache.Cacher, denylists config.Denylists, maxFacts int, ttl time.Duration) *Service {
	if maxFacts <= 0 {
		maxFacts = 22
	}
	return &Service{
		graph:     graph,
		wiki:      wiki,
		llm:       provider,
		cache:     c,
		denylists: denylists,
		maxFacts:  maxFacts,
		ttl:       ttl,
	}
}

// FactsFor returns the merged, filtered, annotated fact set and its
// sources. Failures degrade to a smaller set; the story-potential gate
// downstream decides whether what is left suffices.
func (s *Service) FactsFor(ctx context.Context, poi *model.POI, lang string) ([]model.Fact, []model.Source) {
	var merged []model.Fact
	var sources []model.Source

	if poi.GraphID != "" {
		if facts := s.graphFacts(ctx, poi.GraphID, lang); len(facts) > 0 {
			merged = append(merged, facts...)
			sources = append(sources, model.Source{
				Type:  "graph",
				URL:   "https://www.wikidata.org/wiki/" + poi.GraphID,
				Title: poi.GraphID,
			})
		}
	}

	if ref := s.resolveRef(ctx, poi, lang); ref != nil {
		if facts := s.encyclopediaFacts(ctx, *ref, lang); len(facts) > 0 {
			merged = append(merged, facts...)
			sources = append(sources, model.Source{
				Type:  "wikipedia",
				URL:   wikipedia.ArticleURL(*ref),
				Title: ref.Title,
			})
		}
	}

	merged = FilterSensitive(merged, s.denylists.SensitiveFor(lang))
	merged = dedupFolded(merged)
	if len(merged) > s.maxFacts {
		merged = merged[:s.maxFacts]
	}
	return Annotate(merged), sources
}

// resolveRef prefers the adapter-provided encyclopedia tag, then falls
// back to a sitelink lookup through the graph entity.
func (s *Service) resolveRef(ctx context.Context, poi *model.POI, lang string) *model.EncyclopediaRef {
	if poi.Ref != nil {
		return poi.Ref
	}
	if poi.GraphID == "" {
		return nil
	}

	key := "sitelink:" + poi.GraphID + ":" + lang
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.EncyclopediaRef)
	}

	ref, err := s.graph.Sitelink(ctx, poi.GraphID, lang)
	if err != nil {
		slog.Warn("sitelink lookup failed", "qid", poi.GraphID, "error", err)
		return nil
	}
	s.cache.Set(key, ref, s.ttl)
	return ref
}

func (s *Service) graphFacts(ctx context.Context, qid, lang string) []model.Fact {
	key := "facts:graph:" + qid + ":" + lang
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]model.Fact)
	}

	ef, err := s.graph.FetchEntityFacts(ctx, qid, lang)
	if err != nil {
		slog.Warn("graph facts unavailable", "qid", qid, "error", err)
		return nil
	}

	facts := SynthesizeGraphFacts(ef)
	s.cache.Set(key, facts, s.ttl)
	return facts
}

func (s *Service) encyclopediaFacts(ctx context.Context, ref model.EncyclopediaRef, lang string) []model.Fact {
	key := "facts:wiki:" + lang + ":" + ref.Lang + ":" + ref.Title
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]model.Fact)
	}

	text, err := s.wiki.Extract(ctx, ref)
	if err != nil {
		slog.Warn("encyclopedia extract unavailable", "title", ref.Title, "error", err)
		return nil
	}
	if text == "" {
		return nil
	}

	candidates := CandidateSentences(text, lang)
	facts, err := Distill(ctx, s.llm, candidates, lang)
	if err != nil {
		slog.Warn("fact distillation unavailable", "title", ref.Title, "error", err)
		return nil
	}

	s.cache.Set(key, facts, s.ttl)
	return facts
}

func dedupFolded(facts []model.Fact) []model.Fact {
	seen := make(map[string]bool, len(facts))
	out := facts[:0]
	for _, f := range facts {
		folded := strings.ToLower(f.Text)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, f)
	}
	return out
}
