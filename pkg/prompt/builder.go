package prompt

import (
	"fmt"
	"strings"

	"geotale/pkg/model"
)

// MaxBlockFacts caps how many facts enter the FACTS block.
const MaxBlockFacts = 18

// NoStory is the sentinel the model must emit when the facts cannot
// ground a story. The validator treats it as a structured refusal.
const NoStory = "NO_STORY"

// Params collects everything a story prompt needs.
type Params struct {
	PlaceName      string
	DistanceMeters float64
	DistanceStepM  int
	Lang           string
	MinWords       int
	MaxWords       int
	Taste          model.TasteProfile
	Facts          []model.Fact
}

// FactsBlock renders the numbered ground-truth block: two header lines
// (place, approximate distance) followed by at most MaxBlockFacts facts.
func FactsBlock(p Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PLACE: %s\n", p.PlaceName)
	fmt.Fprintf(&b, "DISTANCE: %s\n", RenderDistance(p.Lang, p.DistanceMeters, p.DistanceStepM))

	facts := p.Facts
	if len(facts) > MaxBlockFacts {
		facts = facts[:MaxBlockFacts]
	}
	for i, f := range facts {
		fmt.Fprintf(&b, "FACT %d: %s\n", i+1, f.Text)
	}
	return b.String()
}

// Story builds the full generation prompt: system contract, taste
// conditioning, story shape, and the FACTS block.
func Story(p Params) string {
	var b strings.Builder

	langName := model.LanguageName(p.Lang)
	fmt.Fprintf(&b, "You are a storyteller for travelers. Write in %s.\n\n", langName)
	b.WriteString("RULES:\n")
	b.WriteString("- Use ONLY the FACTS block below. No outside knowledge, no invented details.\n")
	b.WriteString("- No filler, no superlatives, no generic driving advice, no cliche closers.\n")
	b.WriteString("- Safe for teens: if conflict appears in the facts, mention it briefly and without graphic detail.\n")
	b.WriteString("- One single paragraph. No headings, no lists.\n")
	b.WriteString("- Every sentence must contain at least one concrete fact: a year, date, number, name, event, place, body of water or route.\n")
	fmt.Fprintf(&b, "- If the facts cannot ground a story, output exactly %s.\n\n", NoStory)

	b.WriteString("SHAPE:\n")
	b.WriteString("- Sentences 1-2: anchor the place name and the distance; enter directly, no throat-clearing.\n")
	b.WriteString("- Middle sentences: one distinct concrete fact each, preferring facts with years, dates or names.\n")
	b.WriteString("- Closing sentence: reference a concrete fact from the FACTS block.\n")
	fmt.Fprintf(&b, "- Length: between %d and %d words.\n\n", p.MinWords, p.MaxWords)

	if taste := tasteDirectives(p.Taste); taste != "" {
		b.WriteString("TONE:\n")
		b.WriteString(taste)
		b.WriteString("\n")
	}

	b.WriteString(FactsBlock(p))
	return b.String()
}

// Repair builds the one-shot rewrite prompt: same FACTS block, the
// failure reason and the rejected draft.
func Repair(p Params, reason, draft string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your previous draft was rejected: %s.\n", humanReason(reason))
	b.WriteString("Rewrite it so it complies. Do not introduce any fact that is not in the FACTS block.\n")
	fmt.Fprintf(&b, "Write in %s, one single paragraph, between %d and %d words.\n", model.LanguageName(p.Lang), p.MinWords, p.MaxWords)
	fmt.Fprintf(&b, "If you cannot comply, output exactly %s.\n\n", NoStory)

	b.WriteString(FactsBlock(p))
	b.WriteString("\nREJECTED DRAFT:\n")
	b.WriteString(draft)
	b.WriteString("\n")
	return b.String()
}

func humanReason(reason string) string {
	switch reason {
	case "bad_length":
		return "the word count was outside the allowed range"
	case "banned_filler":
		return "it contained a forbidden filler phrase"
	case "not_one_paragraph":
		return "it was not a single paragraph"
	default:
		return reason
	}
}

// tasteDirectives converts profile weights to terse tone instructions.
// Mid-range weights add nothing; only strong preferences steer the model.
func tasteDirectives(t model.TasteProfile) string {
	var lines []string
	add := func(v float64, low, high string) {
		switch {
		case v >= 0.7:
			lines = append(lines, "- "+high+"\n")
		case v <= 0.2:
			lines = append(lines, "- "+low+"\n")
		}
	}
	add(t.Humor, "Keep the tone straight, no jokes.", "A light, dry touch of humor is welcome.")
	add(t.Nerdy, "Avoid technical detail.", "Lean into dates, measurements and technical detail.")
	add(t.Dramatic, "Keep the delivery calm and even.", "Let the dramatic moments land.")
	add(t.Shortness, "Use the upper end of the word range.", "Stay near the lower end of the word range.")
	return strings.Join(lines, "")
}
