package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

var defaultNewsFeeds = []string{
	"https://www.eldeber.com.bo/rss/economia.xml",
	"https://www.la-razon.com/economia/feed/",
	"https://www.paginasiete.bo/rss/economia.xml",
}

type Config struct {
	DatabaseURL string
	RedisURL    string
	HTTPPort    int
	APIKey      string

	RatePollSecs     int
	NewsPollSecs     int
	FeedbackPollSecs int
	NewsFeeds        []string

	P2PBaseURL       string
	P2PSampleSize    int
	P2PMaxAttempts   int
	P2PBaseDelayMS   int
	P2PTimeoutSecs   int
	MinDerivedSpread float64

	OfficialAuthorityURL string
	OfficialAPIURL       string
	OfficialSpread       float64
	OfficialStaticBuy    float64
	OfficialStaticSell   float64

	LLMProvider    string
	OpenAIAPIKey   string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	LLMTimeoutSecs int

	FeedbackMinSamples int

	TelegramBotToken          string
	SSHPort                   int
	SSHHostKeyPath            string
	SSHAuthorizedFingerprints []string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		APIKey:               strings.TrimSpace(os.Getenv("API_KEY")),
		P2PBaseURL:           strings.TrimSpace(os.Getenv("P2P_BASE_URL")),
		OfficialAuthorityURL: strings.TrimSpace(os.Getenv("OFFICIAL_AUTHORITY_URL")),
		OfficialAPIURL:       strings.TrimSpace(os.Getenv("OFFICIAL_API_URL")),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, write endpoints are unauthenticated")
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)
	cfg.RatePollSecs = positiveInt("RATE_POLL_SECS", 300)
	cfg.NewsPollSecs = positiveInt("NEWS_POLL_SECS", 900)
	cfg.FeedbackPollSecs = positiveInt("FEEDBACK_POLL_SECS", 86400)

	cfg.NewsFeeds = defaultNewsFeeds
	if feeds := splitList(os.Getenv("NEWS_FEEDS")); len(feeds) > 0 {
		cfg.NewsFeeds = feeds
	}

	cfg.P2PSampleSize = positiveInt("P2P_SAMPLE_SIZE", 10)
	cfg.P2PMaxAttempts = positiveInt("P2P_MAX_ATTEMPTS", 3)
	cfg.P2PBaseDelayMS = positiveInt("P2P_BASE_DELAY_MS", 500)
	cfg.P2PTimeoutSecs = positiveInt("P2P_TIMEOUT_SECS", 10)
	cfg.MinDerivedSpread = positiveFloat("MIN_DERIVED_SPREAD", 0.01)

	cfg.OfficialSpread = positiveFloat("OFFICIAL_SPREAD", 0.0072)
	cfg.OfficialStaticBuy = positiveFloat("OFFICIAL_STATIC_BUY", 6.86)
	cfg.OfficialStaticSell = positiveFloat("OFFICIAL_STATIC_SELL", 6.96)
	if cfg.OfficialStaticSell < cfg.OfficialStaticBuy {
		log.Printf("Warning: OFFICIAL_STATIC_SELL %.4f below OFFICIAL_STATIC_BUY %.4f, using defaults", cfg.OfficialStaticSell, cfg.OfficialStaticBuy)
		cfg.OfficialStaticBuy, cfg.OfficialStaticSell = 6.86, 6.96
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "openai"
	}
	if cfg.LLMProvider != "openai" && cfg.LLMProvider != "gemini" {
		log.Printf("Warning: unsupported LLM_PROVIDER=%q, defaulting to openai", cfg.LLMProvider)
		cfg.LLMProvider = "openai"
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.5-flash"
	}
	if cfg.LLMKey() == "" {
		log.Printf("Warning: no API key for LLM_PROVIDER=%s, news will use the keyword classifier", cfg.LLMProvider)
	}
	cfg.LLMTimeoutSecs = positiveInt("LLM_TIMEOUT_SECS", 8)

	cfg.FeedbackMinSamples = positiveInt("FEEDBACK_MIN_SAMPLES", 5)

	cfg.TelegramBotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/bluerate_ed25519"
	}
	cfg.SSHAuthorizedFingerprints = splitList(os.Getenv("SSH_AUTHORIZED_FINGERPRINTS"))

	return cfg
}

// LLMKey returns the API key of the selected provider.
func (c *Config) LLMKey() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

func positiveInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
	}
	return def
}

func positiveFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %v", key, v, def)
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
