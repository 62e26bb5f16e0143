package model

import (
	"strings"
)

// NormalizeLang lowercases and truncates a client-supplied language code to
// at most 5 characters ("en", "he", "pt-br"). Empty input defaults to "en".
func NormalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "en"
	}
	if len(lang) > 5 {
		lang = lang[:5]
	}
	return lang
}

// BaseLang strips a region subtag ("he-il" -> "he", "pt-br" -> "pt").
// Denylists, signal tokens and prompt phrasing are keyed by base language,
// so every lookup must go through this, not the raw normalized code.
func BaseLang(code string) string {
	return strings.SplitN(code, "-", 2)[0]
}

// LanguageName returns the English name for a handful of languages the
// narrator has first-class prompt support for. Unknown codes fall back to
// the code itself, which the model handles fine.
func LanguageName(code string) string {
	switch BaseLang(code) {
	case "en":
		return "English"
	case "he":
		return "Hebrew"
	case "fr":
		return "French"
	case "de":
		return "German"
	case "es":
		return "Spanish"
	case "it":
		return "Italian"
	case "ru":
		return "Russian"
	case "ar":
		return "Arabic"
	default:
		return code
	}
}
