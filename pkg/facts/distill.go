package facts

import (
	"context"
	"fmt"
	"strings"

	"geotale/pkg/llm"
	"geotale/pkg/model"
)

const (
	minDistilled = 8
	maxDistilled = 14
)

// Distill asks the model to reduce candidate sentences to atomic facts.
// The prompt forbids outside knowledge; the output is parsed, normalized
// to a terminal "." and deduplicated case-folded.
func Distill(ctx context.Context, provider llm.Provider, sentences []string, lang string) ([]model.Fact, error) {
	if len(sentences) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extract between %d and %d atomic facts from the source sentences below.\n", minDistilled, maxDistilled)
	b.WriteString("Rules:\n")
	b.WriteString("- Use ONLY information present in the source sentences. No outside knowledge.\n")
	b.WriteString("- One short sentence per fact. No duplicates.\n")
	fmt.Fprintf(&b, "- Write the facts in the language with code %q.\n", lang)
	b.WriteString(`- Respond with JSON only: {"facts": ["...", "..."]}` + "\n\n")
	b.WriteString("SOURCE SENTENCES:\n")
	for _, s := range sentences {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}

	var resp struct {
		Facts []string `json:"facts"`
	}
	if err := provider.GenerateJSON(ctx, b.String(), &resp); err != nil {
		return nil, fmt.Errorf("fact distillation failed: %w", err)
	}

	seen := make(map[string]bool, len(resp.Facts))
	out := make([]model.Fact, 0, len(resp.Facts))
	for _, text := range resp.Facts {
		text = strings.TrimSpace(text)
		if text == "" || len([]rune(text)) > maxSentenceLen {
			continue
		}
		text = normalizeTerminal(text)
		folded := strings.ToLower(text)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, model.Fact{Text: text})
	}
	return out, nil
}
