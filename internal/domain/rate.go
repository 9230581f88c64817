package domain

import "time"

// RateSample is one immutable market observation written per refresh cycle.
type RateSample struct {
	ID             int64     `json:"id"`
	Time           time.Time `json:"t"`
	Buy            float64   `json:"buy"`
	Sell           float64   `json:"sell"`
	Mid            float64   `json:"mid"`
	OfficialBuy    *float64  `json:"official_buy,omitempty"`
	OfficialSell   *float64  `json:"official_sell,omitempty"`
	OfficialMid    *float64  `json:"official_mid,omitempty"`
	OfficialSource string    `json:"official_source,omitempty"`
	BuyBRL         *float64  `json:"buy_brl,omitempty"`
	SellBRL        *float64  `json:"sell_brl,omitempty"`
	MidBRL         *float64  `json:"mid_brl,omitempty"`
	BuyEUR         *float64  `json:"buy_eur,omitempty"`
	SellEUR        *float64  `json:"sell_eur,omitempty"`
	MidEUR         *float64  `json:"mid_eur,omitempty"`
}

// PricePoint is the (time, mid) projection of a RateSample used for backtesting.
type PricePoint struct {
	Time time.Time
	Mid  float64
}
