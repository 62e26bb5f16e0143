package narrator

import (
	"regexp"
	"strings"

	"geotale/pkg/facts"
	"geotale/pkg/prompt"
)

// Validator failure reasons.
const (
	ReasonBadLength       = "bad_length"
	ReasonBannedFiller    = "banned_filler"
	ReasonNotOneParagraph = "not_one_paragraph"
	ReasonModelNoStory    = "model_no_story"
)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Validate checks a generated story against the hard output rules. It
// returns ok plus a machine-readable failure reason.
func Validate(story string, minWords, maxWords int, filler []string) (bool, string) {
	story = strings.TrimSpace(story)

	if story == "" || story == prompt.NoStory {
		return false, ReasonModelNoStory
	}

	words := len(strings.Fields(story))
	if words < minWords || words > maxWords {
		return false, ReasonBadLength
	}

	for _, phrase := range filler {
		if phrase != "" && facts.ContainsToken(story, phrase) {
			return false, ReasonBannedFiller
		}
	}

	if paragraphBreak.MatchString(story) {
		return false, ReasonNotOneParagraph
	}

	return true, ""
}
