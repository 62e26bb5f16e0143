package facts

import (
	"strings"

	"geotale/pkg/model"
)

// signalTokens are language-specific markers that a sentence likely
// carries a concrete, narratable claim. Matching is case-insensitive for
// Latin scripts and exact otherwise.
var signalTokens = map[string][]string{
	"en": {
		"built", "founded", "opened", "established", "constructed",
		"designed", "named after", "century", "king", "queen", "emperor",
		"dynasty", "restored", "demolished", "inaugurated", "completed",
		"meters", "metres", "tallest", "oldest",
	},
	"he": {
		"נבנה", "נבנתה", "נוסד", "נוסדה", "הוקם", "הוקמה", "נחנך", "נחנכה",
		"המאה", "מלך", "מלכה", "קיסר", "שוחזר", "נהרס", "הושלם", "מטרים",
		"העתיק", "נקרא על שם",
	},
	"fr": {
		"construit", "construite", "fondé", "fondée", "inauguré",
		"inaugurée", "siècle", "roi", "reine", "empereur", "restauré",
		"démoli", "achevé", "mètres", "nommé",
	},
}

// hasSignalToken reports whether the sentence contains a signal token for
// the language; English tokens apply to every language as a floor.
func hasSignalToken(sentence, lang string) bool {
	tokens := signalTokens["en"]
	if base := model.BaseLang(lang); base != "en" {
		tokens = append(signalTokens[base], tokens...)
	}
	for _, tok := range tokens {
		if ContainsToken(sentence, tok) {
			return true
		}
	}
	return false
}

// ContainsToken matches case-insensitively for ASCII tokens and exactly
// for non-Latin scripts. Shared by the sensitive filter and the story
// validator's filler check.
func ContainsToken(s, token string) bool {
	if isASCII(token) {
		return strings.Contains(strings.ToLower(s), strings.ToLower(token))
	}
	return strings.Contains(s, token)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
