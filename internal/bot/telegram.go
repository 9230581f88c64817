package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"bluerate/internal/domain"
	"bluerate/internal/sentiment"

	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 10 * time.Second

type RateReader interface {
	Latest(ctx context.Context) (*domain.RateSample, error)
}

type SentimentReader interface {
	SentimentScore(ctx context.Context) (sentiment.Aggregate, error)
}

type AccuracyReader interface {
	AccuracyStats(ctx context.Context, windowDays int) (domain.AccuracyStats, error)
}

type Services struct {
	Rates     RateReader
	Sentiment SentimentReader
	Accuracy  AccuracyReader
}

var newBot = tele.NewBot

// StartTelegramBot registers the read-only commands and starts long polling.
// It does nothing when token is empty.
func StartTelegramBot(token string, svc Services) {
	token = strings.TrimSpace(token)
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	b, err := newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		log.Printf("Warning: failed to create Telegram bot: %v", err)
		return
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/rate", func(c tele.Context) error {
		return c.Send(rateReply(svc.Rates))
	})
	b.Handle("/sentiment", func(c tele.Context) error {
		return c.Send(sentimentReply(svc.Sentiment))
	})
	b.Handle("/accuracy", func(c tele.Context) error {
		return c.Send(accuracyReply(svc.Accuracy))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func rateReply(rates RateReader) string {
	if rates == nil {
		return "Rates unavailable"
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	s, err := rates.Latest(ctx)
	if err != nil {
		return fmt.Sprintf("Error fetching rate: %v", err)
	}
	if s == nil {
		return "No rate sample yet"
	}
	return FormatRate(s)
}

func sentimentReply(reader SentimentReader) string {
	if reader == nil {
		return "Sentiment unavailable"
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	agg, err := reader.SentimentScore(ctx)
	if err != nil {
		return fmt.Sprintf("Error computing sentiment: %v", err)
	}
	return FormatSentiment(agg)
}

func accuracyReply(reader AccuracyReader) string {
	if reader == nil {
		return "Accuracy stats unavailable"
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	stats, err := reader.AccuracyStats(ctx, 30)
	if err != nil {
		return fmt.Sprintf("Error computing accuracy: %v", err)
	}
	return FormatAccuracy(stats)
}

func FormatRate(s *domain.RateSample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USD/%s (P2P)\nBuy: %.4f\nSell: %.4f\nMid: %.4f", domain.LocalCurrency, s.Buy, s.Sell, s.Mid)
	if s.OfficialBuy != nil && s.OfficialSell != nil {
		fmt.Fprintf(&b, "\nOfficial (%s): %.4f / %.4f", s.OfficialSource, *s.OfficialBuy, *s.OfficialSell)
	}
	if s.MidBRL != nil {
		fmt.Fprintf(&b, "\nBRL mid: %.4f", *s.MidBRL)
	}
	if s.MidEUR != nil {
		fmt.Fprintf(&b, "\nEUR mid: %.4f", *s.MidEUR)
	}
	fmt.Fprintf(&b, "\nUpdated: %s", s.Time.UTC().Format(time.RFC3339))
	return b.String()
}

func FormatSentiment(agg sentiment.Aggregate) string {
	bias := "neutral"
	switch {
	case agg.Score > 0:
		bias = "USD up"
	case agg.Score < 0:
		bias = "USD down"
	}
	return fmt.Sprintf(
		"News sentiment (24h)\nScore: %+.2f (%s)\nArticles: %d (%d directional)\nConfidence: %.0f%%",
		agg.Score, bias, agg.ArticleCount, agg.DirectionalCount, agg.Confidence*100,
	)
}

func FormatAccuracy(stats domain.AccuracyStats) string {
	if stats.TotalEvaluated == 0 {
		return fmt.Sprintf("No evaluated predictions in the last %d days", stats.WindowDays)
	}
	msg := fmt.Sprintf("Prediction accuracy (%dd, n=%d)\n7d correct: %s\n7d direction: %s",
		stats.WindowDays, stats.TotalEvaluated, pct(stats.Accuracy7D), pct(stats.DirectionAccuracy7D))
	if !stats.Reliable {
		msg += "\nSample too small to be reliable"
	}
	return msg
}

func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}
