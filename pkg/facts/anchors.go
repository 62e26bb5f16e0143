package facts

import (
	"regexp"
	"strings"

	"geotale/pkg/model"
)

// Word boundaries only work for ASCII in RE2, so Latin markers use
// anchored regexes and non-Latin markers use plain substring matching.
var (
	yearAnchor = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)

	numericDate = regexp.MustCompile(`\b\d{1,2}[./]\d{1,2}[./]\d{2,4}\b`)

	monthNames = regexp.MustCompile(`(?i)\b(january|february|march|april|june|july|august|september|october|november|december` +
		`|janvier|février|mars|avril|juin|juillet|août|septembre|octobre|novembre|décembre)\b`)

	eventWords = regexp.MustCompile(`(?i)\b(battle|siege|coronation|earthquake|exhibition|olympi|revolt|uprising|renovation|restoration` +
		`|bataille|siège|couronnement|exposition|révolte|rénovation)\b`)

	personWords = regexp.MustCompile(`(?i)\b(named after|designed by|built by|founded by|commissioned by|architect` +
		`|nommé d'après|conçu par|construit par|fondé par|architecte)\b`)

	monthNamesHe  = []string{"ינואר", "פברואר", "מרץ", "אפריל", "יוני", "יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר"}
	eventWordsHe  = []string{"קרב", "מצור", "הכתרה", "רעידת אדמה", "תערוכה", "מרד", "שיקום"}
	personWordsHe = []string{"נקרא על שם", "תוכנן על ידי", "נבנה על ידי", "הוקם על ידי", "אדריכל"}
)

// Annotate sets the anchor flags on each fact in place and returns the
// slice for chaining.
func Annotate(facts []model.Fact) []model.Fact {
	for i := range facts {
		f := &facts[i]
		f.HasYear = yearAnchor.MatchString(f.Text)
		f.HasDate = numericDate.MatchString(f.Text) ||
			monthNames.MatchString(f.Text) || containsAny(f.Text, monthNamesHe)
		f.HasNamedEvent = eventWords.MatchString(f.Text) || containsAny(f.Text, eventWordsHe)
		f.HasNamedPerson = personWords.MatchString(f.Text) || containsAny(f.Text, personWordsHe)
	}
	return facts
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
