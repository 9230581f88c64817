package domain

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Pair identifies a P2P market as asset/fiat, e.g. USDT/BOB.
type Pair struct {
	Asset string
	Fiat  string
}

func (p Pair) String() string {
	return p.Asset + "/" + p.Fiat
}

// LocalCurrency is the fiat every published rate is expressed in.
const LocalCurrency = "BOB"

var (
	PairUSD    = Pair{Asset: "USDT", Fiat: LocalCurrency}
	PairUSDBRL = Pair{Asset: "USDT", Fiat: "BRL"}
	PairUSDEUR = Pair{Asset: "USDT", Fiat: "EUR"}
)

// AuxiliaryCurrencies lists the currencies derived next to the USD anchor.
var AuxiliaryCurrencies = []string{"BRL", "EUR"}

type Sentiment string

const (
	SentimentUp      Sentiment = "up"
	SentimentDown    Sentiment = "down"
	SentimentNeutral Sentiment = "neutral"
)

func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentUp, SentimentDown, SentimentNeutral:
		return true
	default:
		return false
	}
}

const (
	CategoryCurrency = "currency"
	CategoryEconomy  = "economy"
	CategoryPolitics = "politics"
	CategoryGeneral  = "general"
)

// RefreshState is the last-known-good rate handed out by the rate poller.
type RefreshState struct {
	Sample     *RateSample `json:"sample"`
	LastUpdate time.Time   `json:"last_update"`
	Healthy    bool        `json:"healthy"`
	LastError  string      `json:"last_error,omitempty"`
}

type RefreshResult struct {
	Sample   *RateSample
	Official string
	Warnings []string
}
