package facts

import (
	"fmt"
	"strings"
	"unicode"

	"geotale/pkg/model"
	"geotale/pkg/wikidata"
)

// SynthesizeGraphFacts renders structured entity statements as terse
// single-sentence facts in a stable order: description, type, inception
// year, named-after, heritage designation, notable events.
func SynthesizeGraphFacts(ef *wikidata.EntityFacts) []model.Fact {
	if ef == nil {
		return nil
	}

	var out []model.Fact
	add := func(text string) {
		if text != "" {
			out = append(out, model.Fact{Text: normalizeTerminal(text)})
		}
	}

	if ef.Description != "" {
		add(capitalize(ef.Description))
	}
	if len(ef.Types) > 0 {
		add("It is a " + strings.Join(ef.Types, ", "))
	}
	if ef.InceptionYear != 0 {
		add(fmt.Sprintf("It dates from %d", ef.InceptionYear))
	}
	if ef.NamedAfter != "" {
		add("It is named after " + ef.NamedAfter)
	}
	if ef.Heritage != "" {
		add("It holds the designation " + ef.Heritage)
	}
	for _, ev := range ef.Events {
		add("Notable event: " + ev)
	}
	return out
}

// normalizeTerminal trims and ensures the fact ends with a single ".".
func normalizeTerminal(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".!?")
	return s + "."
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
