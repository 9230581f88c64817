package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"bluerate/internal/domain"
)

// LLMClient sends one system/user prompt pair and returns the raw reply.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

const systemPrompt = `You classify news for its likely effect on the price of the US dollar in Bolivianos (BOB) on the parallel market.
Return ONLY a JSON object: {"direction": "up"|"down"|"neutral", "strength": 0-100}.
"up" means the dollar gets more expensive in BOB, "down" means cheaper.
Strength measures how market-moving the news is, not whether it mentions currency:
0-30 weak, 31-60 moderate, 61-80 strong, 81-100 extreme. Use neutral with strength 0 when there is no effect.
No markdown.`

func buildUserPrompt(title, summary string, price *PriceContext) string {
	var sb strings.Builder
	sb.WriteString("title=")
	sb.WriteString(strings.TrimSpace(title))
	sb.WriteString("\nsummary=")
	sb.WriteString(strings.TrimSpace(summary))
	if price != nil {
		if price.Change24H != nil {
			sb.WriteString(fmt.Sprintf("\nusd_change_24h=%.2f%%", *price.Change24H))
		}
		if price.Change6H != nil {
			sb.WriteString(fmt.Sprintf("\nusd_change_6h=%.2f%%", *price.Change6H))
		}
	}
	return sb.String()
}

var (
	errUnparseable   = errors.New("unparseable classifier reply")
	directionPattern = regexp.MustCompile(`\b(up|down|neutral|bullish|bearish)\b`)
	numberPattern    = regexp.MustCompile(`\b\d{1,3}\b`)
)

// parseReply tries strict JSON first and then free-text extraction.
func parseReply(raw string) (domain.Sentiment, int, error) {
	raw = trimCodeFence(raw)
	if raw == "" {
		return "", 0, errUnparseable
	}

	var parsed struct {
		Direction string          `json:"direction"`
		Strength  json.RawMessage `json:"strength"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		dir, ok := normalizeDirection(parsed.Direction)
		if strength, sok := parseStrength(parsed.Strength); ok && sok {
			return finalize(dir, strength)
		}
	}

	lower := strings.ToLower(raw)
	m := directionPattern.FindString(lower)
	if m == "" {
		return "", 0, errUnparseable
	}
	dir, _ := normalizeDirection(m)
	if dir == domain.SentimentNeutral {
		return dir, 0, nil
	}
	n := numberPattern.FindString(lower)
	if n == "" {
		return "", 0, errUnparseable
	}
	strength, err := strconv.Atoi(n)
	if err != nil {
		return "", 0, errUnparseable
	}
	return finalize(dir, strength)
}

func parseStrength(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f + 0.5), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v, true
		}
	}
	return 0, false
}

func finalize(dir domain.Sentiment, strength int) (domain.Sentiment, int, error) {
	if dir == domain.SentimentNeutral {
		return dir, 0, nil
	}
	strength = clampStrength(strength)
	if strength == 0 {
		strength = 1
	}
	return dir, strength, nil
}

func normalizeDirection(v string) (domain.Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "up", "bullish":
		return domain.SentimentUp, true
	case "down", "bearish":
		return domain.SentimentDown, true
	case "neutral":
		return domain.SentimentNeutral, true
	default:
		return "", false
	}
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimPrefix(v, "```")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSuffix(v, "```")
		v = strings.TrimSpace(v)
	}
	return v
}
