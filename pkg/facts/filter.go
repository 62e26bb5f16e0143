package facts

import (
	"log/slog"

	"geotale/pkg/model"
)

// FilterSensitive drops facts matching any sensitive token. Filtering is
// line-level; the rest of the set is retained.
func FilterSensitive(facts []model.Fact, tokens []string) []model.Fact {
	out := facts[:0]
	for _, f := range facts {
		if tok, hit := matchesAny(f.Text, tokens); hit {
			slog.Debug("dropping sensitive fact", "token", tok)
			continue
		}
		out = append(out, f)
	}
	return out
}

func matchesAny(s string, tokens []string) (string, bool) {
	for _, tok := range tokens {
		if tok != "" && ContainsToken(s, tok) {
			return tok, true
		}
	}
	return "", false
}
