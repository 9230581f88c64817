package domain

import "time"

// NewsItem is classified once at ingestion and never re-classified in place.
type NewsItem struct {
	ID                string    `json:"id"`
	Source            string    `json:"source"`
	URL               string    `json:"url"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary"`
	PublishedAt       time.Time `json:"published_at"`
	Sentiment         Sentiment `json:"sentiment"`
	SentimentStrength *int      `json:"sentiment_strength,omitempty"`
	Category          string    `json:"category"`
	ClassifierModel   string    `json:"classifier_model,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type NewsFilter struct {
	Source string
	From   time.Time
	To     time.Time
	Limit  int
}

type NewsIngestResult struct {
	Fetched    int
	Inserted   int
	Duplicates int
	Errors     []string
}
