package facts

import (
	"regexp"
	"strings"
)

const (
	minSentenceLen = 25
	maxSentenceLen = 260

	// fallbackSentences is how many leading sentences we keep when no
	// sentence clears the candidate rules.
	fallbackSentences = 10
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+[\s\n]+|[.!?]+$`)
	candidateYear = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)
)

// SplitSentences splits free text on sentence terminators. Terminal
// punctuation is stripped; whitespace is collapsed.
func SplitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CandidateSentences mines an encyclopedia extract for sentences worth
// distilling. A sentence qualifies by length plus any of: a plausible
// year, a number of at least 10 next to a signal token, or a signal
// token alone. When nothing qualifies, the first sentences of the
// article stand in.
func CandidateSentences(text, lang string) []string {
	sentences := SplitSentences(text)

	var candidates []string
	for _, s := range sentences {
		n := len([]rune(s))
		if n < minSentenceLen || n > maxSentenceLen {
			continue
		}
		if isCandidate(s, lang) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	if len(sentences) > fallbackSentences {
		sentences = sentences[:fallbackSentences]
	}
	return sentences
}

// isCandidate accepts a plausible year, or a signal token (with or
// without a large number next to it).
func isCandidate(s, lang string) bool {
	return candidateYear.MatchString(s) || hasSignalToken(s, lang)
}
