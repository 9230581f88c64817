package sentiment

import (
	"testing"

	"bluerate/internal/domain"
)

func TestKeywordClassify(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		summary   string
		direction domain.Sentiment
		strength  int
	}{
		{"bearish only", "Banco Central reporta aumento de reservas", "", domain.SentimentDown, 55},
		{"no match", "Ministro inaugura carretera", "Obra de 40 km", domain.SentimentNeutral, 0},
		{"empty", "", "  ", domain.SentimentNeutral, 0},
		{"critical and extra match", "Devaluación y escasez de dólares", "", domain.SentimentUp, 100},
		{"both tables stronger bearish", "Crisis económica pese a préstamo del FMI", "", domain.SentimentDown, 65},
		{"both tables stronger bullish", "Crisis", "aunque hay superávit comercial", domain.SentimentUp, 25},
		{"tie is neutral", "El dólar sube y el dólar baja", "", domain.SentimentNeutral, 0},
		{"english", "Central bank confirms dollar shortage", "", domain.SentimentUp, 90},
		{"term inside another word", "Informe destaca desinflación en alimentos", "", domain.SentimentNeutral, 0},
		{"unrelated english usage", "Bank keeps default settings for mobile app", "", domain.SentimentNeutral, 0},
		{"punctuation is a boundary", "Gobierno confirma: devaluación.", "", domain.SentimentUp, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeywordClassify(tt.title, tt.summary)
			if got.Direction != tt.direction || got.Strength != tt.strength {
				t.Fatalf("expected %s/%d, got %s/%d (%s)", tt.direction, tt.strength, got.Direction, got.Strength, got.Reason)
			}
			if got.Model != ModelKeyword {
				t.Fatalf("expected keyword model, got %s", got.Model)
			}
		})
	}
}

func TestKeywordClassifyAmbiguityFloor(t *testing.T) {
	origBull, origBear := bullishUSD, bearishUSD
	t.Cleanup(func() { bullishUSD, bearishUSD = origBull, origBear })
	bullishUSD = []Keyword{{Term: "alza", Strength: 15}}
	bearishUSD = []Keyword{{Term: "baja", Strength: 12}}

	got := KeywordClassify("alza y baja", "")
	if got.Direction != domain.SentimentUp || got.Strength != AmbiguityFloor {
		t.Fatalf("expected up/%d, got %s/%d", AmbiguityFloor, got.Direction, got.Strength)
	}
}

func TestKeywordClassifyTieBrokenByMatchCount(t *testing.T) {
	origBull, origBear := bullishUSD, bearishUSD
	t.Cleanup(func() { bullishUSD, bearishUSD = origBull, origBear })
	bullishUSD = []Keyword{{Term: "alza", Strength: 50}}
	bearishUSD = []Keyword{{Term: "baja", Strength: 45}, {Term: "cae", Strength: 30}}

	got := KeywordClassify("alza, baja, cae", "")
	if got.Direction != domain.SentimentDown || got.Strength != 30 {
		t.Fatalf("expected down/30, got %s/%d", got.Direction, got.Strength)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"El tipo de cambio paralelo", domain.CategoryCurrency},
		{"Inflación de septiembre", domain.CategoryEconomy},
		{"Elecciones subnacionales", domain.CategoryPolitics},
		{"Festival de cine", domain.CategoryGeneral},
		{"Escasez de dólares en bancos", domain.CategoryCurrency},
	}
	for _, tt := range tests {
		if got := Categorize(tt.title, ""); got != tt.want {
			t.Fatalf("Categorize(%q) = %s, want %s", tt.title, got, tt.want)
		}
	}
}
