package domain

import "testing"

func TestPairString(t *testing.T) {
	if PairUSD.String() != "USDT/BOB" {
		t.Fatalf("unexpected anchor pair: %s", PairUSD.String())
	}
	if PairUSDBRL.Fiat != "BRL" || PairUSDEUR.Fiat != "EUR" {
		t.Fatalf("unexpected auxiliary pairs: %+v %+v", PairUSDBRL, PairUSDEUR)
	}
}

func TestSentimentIsValid(t *testing.T) {
	for _, s := range []Sentiment{SentimentUp, SentimentDown, SentimentNeutral} {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if Sentiment("bullish").IsValid() {
		t.Error("expected unknown sentiment to be invalid")
	}
}
