package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"geotale/pkg/model"
)

// Denylists holds the language-keyed phrase lists used by the validator
// (filler) and the fact filter (sensitive). Matching is case-insensitive
// for Latin scripts and exact for others; that distinction lives at the
// matching site, not here.
type Denylists struct {
	Filler    map[string][]string `yaml:"filler"`
	Sensitive map[string][]string `yaml:"sensitive"`
}

// DefaultDenylists returns the built-in lists. A DENYLIST_FILE can extend
// or replace individual languages.
func DefaultDenylists() Denylists {
	return Denylists{
		Filler: map[string][]string{
			"en": {
				"nestled",
				"hidden gem",
				"must-see",
				"must see",
				"breathtaking",
				"stunning",
				"rich history",
				"rich tapestry",
				"whether you",
				"in conclusion",
				"as you drive",
				"keep your eyes on the road",
				"enjoy the ride",
				"as an ai",
			},
			"he": {
				"פנינה נסתרת",
				"עוצר נשימה",
				"חובה לראות",
				"היסטוריה עשירה",
				"תהנו מהנסיעה",
				"שימו לב לכביש",
			},
			"fr": {
				"joyau caché",
				"à couper le souffle",
				"incontournable",
				"riche histoire",
			},
		},
		Sensitive: map[string][]string{
			"en": {
				"war",
				"terror",
				"massacre",
				"bombing",
				"genocide",
				"assassination",
				"atrocity",
			},
			"he": {
				"מלחמה",
				"טרור",
				"טבח",
				"פיגוע",
				"רצח",
				"אינתיפאדה",
			},
			"fr": {
				"guerre",
				"terreur",
				"massacre",
				"attentat",
			},
		},
	}
}

// LoadFile merges a yaml file over the built-in lists. Languages present in
// the file replace the built-in list for that language; absent languages
// keep their defaults.
func (d *Denylists) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Denylists
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return err
	}

	for lang, list := range override.Filler {
		d.Filler[lang] = list
	}
	for lang, list := range override.Sensitive {
		d.Sensitive[lang] = list
	}
	return nil
}

// FillerFor returns the filler list for a language plus the English list,
// which applies everywhere.
func (d *Denylists) FillerFor(lang string) []string {
	return d.combined(d.Filler, lang)
}

// SensitiveFor returns the sensitive list for a language plus the English
// list.
func (d *Denylists) SensitiveFor(lang string) []string {
	return d.combined(d.Sensitive, lang)
}

func (d *Denylists) combined(m map[string][]string, lang string) []string {
	// Lists are keyed by base language; "he-il" must hit the "he" list.
	base := model.BaseLang(lang)
	out := append([]string{}, m["en"]...)
	if base != "en" {
		out = append(out, m[base]...)
	}
	return out
}
