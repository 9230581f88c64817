package provider

import (
	"errors"
	"time"
)

// ErrMalformedPayload marks a response that decoded but did not have the expected shape.
var ErrMalformedPayload = errors.New("malformed payload")

type FeedEntry struct {
	Source      string
	URL         string
	Title       string
	Summary     string
	PublishedAt time.Time
	Channel     string
}

// OfficialQuote is a structured official buy/sell pair.
type OfficialQuote struct {
	Buy    float64
	Sell   float64
	Source string
}
