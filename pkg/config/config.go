package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the matching core.
type Config struct {
	Port string

	// Pair definitions
	PairsFile string
	Symbols   []string // fallback when no pairs file is present

	// Fees (decimal rates, e.g. 0.001 = 10 bps)
	MakerFeeRate float64
	TakerFeeRate float64

	// Mock market feed
	UseMockFeed      bool
	MockFeedInterval int // milliseconds
	MockStartPrice   float64
	MockStep         float64

	// Order journal
	EnableOrderWAL bool
	OrderWALPath   string

	// Database
	DBPath string

	// Depth snapshot default
	DefaultDepth int

	// Auth
	JWTSecret string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		PairsFile:        getEnv("PAIRS_FILE", "./pairs.yaml"),
		Symbols:          splitAndTrim(getEnv("SYMBOLS", "SOLUSDT,BTCUSDT")),
		MakerFeeRate:     getEnvFloat("MAKER_FEE_RATE", 0.00075),
		TakerFeeRate:     getEnvFloat("TAKER_FEE_RATE", 0.001),
		UseMockFeed:      getEnv("USE_MOCK_FEED", "true") == "true",
		MockFeedInterval: getEnvInt("MOCK_FEED_INTERVAL_MS", 1000),
		MockStartPrice:   getEnvFloat("MOCK_START_PRICE", 100.0),
		MockStep:         getEnvFloat("MOCK_STEP", 0.5),
		EnableOrderWAL:   getEnv("ENABLE_ORDER_WAL", "true") == "true",
		OrderWALPath:     getEnv("ORDER_WAL_PATH", "./data/order_wal"),
		DBPath:           getEnv("DB_PATH", "./data/match.db"),
		DefaultDepth:     getEnvInt("DEFAULT_DEPTH", 20),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
