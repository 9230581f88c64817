package domain

import "time"

// PredictionFeedback grades one NewsItem against the realized rate moves after it.
type PredictionFeedback struct {
	ID                    int64     `json:"id"`
	NewsID                string    `json:"news_id"`
	PredictedSentiment    Sentiment `json:"predicted_sentiment"`
	PredictedStrength     int       `json:"predicted_strength"`
	PublishedAt           time.Time `json:"published_at"`
	PriceAtPrediction     float64   `json:"price_at_prediction"`
	Price1D               *float64  `json:"price_1d,omitempty"`
	Price3D               *float64  `json:"price_3d,omitempty"`
	Price7D               *float64  `json:"price_7d,omitempty"`
	Change1D              *float64  `json:"change_1d,omitempty"`
	Change3D              *float64  `json:"change_3d,omitempty"`
	Change7D              *float64  `json:"change_7d,omitempty"`
	WasCorrect1D          *bool     `json:"was_correct_1d,omitempty"`
	WasCorrect3D          *bool     `json:"was_correct_3d,omitempty"`
	WasCorrect7D          *bool     `json:"was_correct_7d,omitempty"`
	DirectionCorrect1D    *bool     `json:"direction_correct_1d,omitempty"`
	DirectionCorrect3D    *bool     `json:"direction_correct_3d,omitempty"`
	DirectionCorrect7D    *bool     `json:"direction_correct_7d,omitempty"`
	StrengthAccuracyScore *float64  `json:"strength_accuracy_score,omitempty"`
	EvaluatedAt           time.Time `json:"evaluated_at"`
}

type SentimentAccuracy struct {
	Count                   int      `json:"count"`
	Accuracy7D              *float64 `json:"accuracy_7d"`
	DirectionAccuracy7D     *float64 `json:"direction_accuracy_7d"`
	AverageStrengthAccuracy *float64 `json:"average_strength_accuracy"`
	Confidence              float64  `json:"confidence"`
	Reliable                bool     `json:"reliable"`
}

type AccuracyStats struct {
	WindowDays              int                             `json:"window_days"`
	TotalEvaluated          int                             `json:"total_evaluated"`
	Accuracy7D              *float64                        `json:"accuracy_7d"`
	DirectionAccuracy7D     *float64                        `json:"direction_accuracy_7d"`
	AverageStrengthAccuracy *float64                        `json:"average_strength_accuracy"`
	Confidence              float64                         `json:"confidence"`
	Reliable                bool                            `json:"reliable"`
	BySentiment             map[Sentiment]SentimentAccuracy `json:"by_sentiment"`
}

type FeedbackRunResult struct {
	Candidates       int
	AlreadyEvaluated int
	Evaluated        int
	Skipped          int
	Inserted         int
	Errors           []string
}
