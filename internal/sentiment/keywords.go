package sentiment

import (
	"fmt"
	"strings"
	"unicode"

	"bluerate/internal/domain"
)

type Keyword struct {
	Term     string
	Strength int
	Critical bool
}

// Bullish-for-USD entries push the local price of the dollar up.
var bullishUSD = []Keyword{
	{Term: "escasez de dolares", Strength: 70, Critical: true},
	{Term: "falta de dolares", Strength: 65, Critical: true},
	{Term: "devaluacion", Strength: 75, Critical: true},
	{Term: "corralito", Strength: 80, Critical: true},
	{Term: "reservas internacionales caen", Strength: 60},
	{Term: "caida de reservas", Strength: 60},
	{Term: "dolar paralelo sube", Strength: 55},
	{Term: "dolar sube", Strength: 50},
	{Term: "escasez de combustible", Strength: 50},
	{Term: "inflacion", Strength: 35},
	{Term: "deficit fiscal", Strength: 40},
	{Term: "bloqueo", Strength: 35},
	{Term: "crisis", Strength: 45},
	{Term: "rebaja de calificacion", Strength: 55},
	{Term: "impago", Strength: 70, Critical: true},
	{Term: "debt default", Strength: 70, Critical: true},
	{Term: "sovereign default", Strength: 70, Critical: true},
	{Term: "devaluation", Strength: 75, Critical: true},
	{Term: "dollar shortage", Strength: 70, Critical: true},
	{Term: "downgrade", Strength: 55},
	{Term: "reserves fall", Strength: 60},
	{Term: "capital flight", Strength: 60},
}

// Bearish-for-USD entries push the local price of the dollar down.
var bearishUSD = []Keyword{
	{Term: "reservas aumentan", Strength: 55},
	{Term: "aumento de reservas", Strength: 55},
	{Term: "ingreso de divisas", Strength: 50},
	{Term: "prestamo del fmi", Strength: 65, Critical: true},
	{Term: "desembolso", Strength: 45},
	{Term: "estabilidad cambiaria", Strength: 40},
	{Term: "dolar baja", Strength: 50},
	{Term: "dolar cae", Strength: 55},
	{Term: "superavit", Strength: 40},
	{Term: "inversion extranjera", Strength: 40},
	{Term: "exportaciones crecen", Strength: 45},
	{Term: "emision de bonos", Strength: 45},
	{Term: "liberacion del tipo de cambio", Strength: 70, Critical: true},
	{Term: "imf loan", Strength: 65, Critical: true},
	{Term: "dollar inflows", Strength: 50},
	{Term: "reserves rise", Strength: 55},
	{Term: "bond issuance", Strength: 45},
	{Term: "upgrade", Strength: 45},
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

// normalizeText folds accents, lowercases and splits into word tokens.
func normalizeText(title, summary string) []string {
	text := strings.ToLower(accentFolder.Replace(title + " " + summary))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsTerm reports whether the words of term appear consecutively in tokens.
// With prefix set, each token only has to start with the matching term word.
func containsTerm(tokens []string, term string, prefix bool) bool {
	words := strings.Fields(term)
	if len(words) == 0 {
		return false
	}
	for i := 0; i+len(words) <= len(tokens); i++ {
		matched := true
		for j, w := range words {
			tok := tokens[i+j]
			if tok != w && !(prefix && strings.HasPrefix(tok, w)) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

type tableScore struct {
	strength int
	matches  int
}

func scoreTable(tokens []string, table []Keyword) tableScore {
	seen := make(map[string]struct{})
	best := 0
	for _, kw := range table {
		if !containsTerm(tokens, kw.Term, false) {
			continue
		}
		if _, ok := seen[kw.Term]; ok {
			continue
		}
		seen[kw.Term] = struct{}{}
		s := kw.Strength
		if kw.Critical {
			s += 20
		}
		if s = clampStrength(s); s > best {
			best = s
		}
	}
	if len(seen) == 0 {
		return tableScore{}
	}
	return tableScore{strength: clampStrength(best + 5*(len(seen)-1)), matches: len(seen)}
}

// KeywordClassify is the deterministic fallback used when no LLM answer is available.
func KeywordClassify(title, summary string) Classification {
	tokens := normalizeText(title, summary)
	if len(tokens) == 0 {
		return neutral(ModelKeyword, "empty-text")
	}

	bull := scoreTable(tokens, bullishUSD)
	bear := scoreTable(tokens, bearishUSD)
	reason := fmt.Sprintf("keywords up=%d down=%d", bull.matches, bear.matches)

	switch {
	case bull.matches == 0 && bear.matches == 0:
		return neutral(ModelKeyword, reason)
	case bear.matches == 0:
		return Classification{Direction: domain.SentimentUp, Strength: bull.strength, Model: ModelKeyword, Reason: reason}
	case bull.matches == 0:
		return Classification{Direction: domain.SentimentDown, Strength: bear.strength, Model: ModelKeyword, Reason: reason}
	}

	winner, direction := bull, domain.SentimentUp
	switch {
	case bear.strength > bull.strength:
		winner, direction = bear, domain.SentimentDown
	case bear.strength == bull.strength:
		if bear.matches == bull.matches {
			return neutral(ModelKeyword, reason+" tie")
		}
		if bear.matches > bull.matches {
			winner, direction = bear, domain.SentimentDown
		}
	}

	strength := winner.strength - AmbiguityPenalty
	if strength < AmbiguityFloor {
		strength = AmbiguityFloor
	}
	return Classification{Direction: direction, Strength: strength, Model: ModelKeyword, Reason: reason + " ambiguous"}
}

var categoryTerms = []struct {
	category string
	terms    []string
}{
	{domain.CategoryCurrency, []string{"dolar", "tipo de cambio", "divisas", "usdt", "boliviano", "cambiario", "exchange rate", "currency", "dollar"}},
	{domain.CategoryEconomy, []string{"economia", "inflacion", "reservas", "exportaciones", "importaciones", "pib", "combustible", "fmi", "bonos", "economy", "inflation", "gdp", "imf"}},
	{domain.CategoryPolitics, []string{"gobierno", "presidente", "elecciones", "asamblea", "ministro", "protesta", "bloqueo", "government", "election", "president"}},
}

// Categorize tags a news item with the first matching category.
func Categorize(title, summary string) string {
	tokens := normalizeText(title, summary)
	for _, c := range categoryTerms {
		for _, term := range c.terms {
			if containsTerm(tokens, term, true) {
				return c.category
			}
		}
	}
	return domain.CategoryGeneral
}
