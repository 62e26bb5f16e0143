package narrator

import (
	"context"
	"log/slog"
	"strings"

	"geotale/pkg/config"
	"geotale/pkg/llm"
	"geotale/pkg/prompt"
)

// Generator runs the grounded generation loop: one draft, one repair.
// It never retries blindly; a second failure means silence.
type Generator struct {
	llm       llm.Provider
	denylists config.Denylists
}

// NewGenerator creates a generator.
func NewGenerator(provider llm.Provider, denylists config.Denylists) *Generator {
	return &Generator{llm: provider, denylists: denylists}
}

// Generate returns the validated story text. When the model or the
// validator refuses, story is empty and reason carries the machine tag;
// err is reserved for transport-level failures.
func (g *Generator) Generate(ctx context.Context, p prompt.Params) (story, reason string, err error) {
	draft, err := g.llm.GenerateText(ctx, prompt.Story(p))
	if err != nil {
		return "", "", err
	}
	draft = strings.TrimSpace(draft)

	filler := g.denylists.FillerFor(p.Lang)
	ok, subreason := Validate(draft, p.MinWords, p.MaxWords, filler)
	if ok {
		return draft, "", nil
	}
	// A structured refusal is final; only rule violations earn a repair.
	if subreason == ReasonModelNoStory {
		return "", ReasonModelNoStory, nil
	}

	slog.Info("story draft rejected, repairing", "reason", subreason, "words", len(strings.Fields(draft)))

	rewrite, err := g.llm.GenerateText(ctx, prompt.Repair(p, subreason, draft))
	if err != nil {
		return "", "", err
	}
	rewrite = strings.TrimSpace(rewrite)

	ok, subreason = Validate(rewrite, p.MinWords, p.MaxWords, filler)
	if ok {
		return rewrite, "", nil
	}
	if subreason == ReasonModelNoStory {
		return "", ReasonModelNoStory, nil
	}
	return "", "final_validation_failed_" + subreason, nil
}
