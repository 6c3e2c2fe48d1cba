package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"stockbid/utils"
)

// Config is the full configuration for both the API server and the relay.
type Config struct {
	Port string

	Stock   StockConfig
	Auction AuctionConfig
	Relay   RelayConfig
	Twilio  TwilioConfig
	Storage StorageConfig

	// BotBiddingEnabled is recognized for compatibility with the original
	// demo but no bot bidder exists in this codebase.
	BotBiddingEnabled bool

	LogLevel string
}

// StockConfig describes the single simulated stock.
type StockConfig struct {
	Symbol     string
	Name       string
	StartPrice float64
}

// AuctionConfig controls the bidding session rules.
type AuctionConfig struct {
	DurationSeconds int
	MinIncrement    float64
	MaxBidAmount    float64
	MaxQuantity     int64
	MaxNotional     float64
}

// RelayConfig points at the self-hosted WhatsApp relay.
type RelayConfig struct {
	Enabled bool
	URL     string
}

// TwilioConfig is the direct-provider credential triple.
type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	WhatsAppNumber string
}

// StorageConfig selects the bid ledger backend.
type StorageConfig struct {
	// SQLiteDSN is a path or ":memory:". Empty selects the pure in-memory repo.
	SQLiteDSN string
}

// Load reads the .env file if present, then environment variables, and
// applies defaults. It never fails: misconfiguration is logged as startup
// diagnostics, not fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Stock: StockConfig{
			Symbol:     getEnv("STOCK_SYMBOL", "RELIANCE"),
			Name:       getEnv("STOCK_NAME", "Reliance Industries"),
			StartPrice: getFloat("STOCK_START_PRICE", 150.00),
		},
		Auction: AuctionConfig{
			DurationSeconds: getInt("AUCTION_DURATION_SECONDS", 300),
			MinIncrement:    getFloat("MIN_BID_INCREMENT", 1.00),
			MaxBidAmount:    getFloat("MAX_BID_AMOUNT", 100000),
			MaxQuantity:     int64(getInt("MAX_QUANTITY", 1000)),
			MaxNotional:     getFloat("MAX_NOTIONAL", 1000000),
		},
		Relay: RelayConfig{
			Enabled: getBool("RELAY_ENABLED", false),
			URL:     getEnv("RELAY_URL", ""),
		},
		Twilio: TwilioConfig{
			AccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
			WhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		},
		Storage: StorageConfig{
			SQLiteDSN: os.Getenv("SQLITE_DSN"),
		},
		BotBiddingEnabled: getBool("BOT_BIDDING_ENABLED", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	cfg.diagnose()
	return cfg
}

// AuctionDuration returns the configured session length.
func (c *Config) AuctionDuration() time.Duration {
	return time.Duration(c.Auction.DurationSeconds) * time.Second
}

// diagnose logs configuration problems that will degrade behavior at
// runtime. None of them are fatal to the servers.
func (c *Config) diagnose() {
	if c.Relay.Enabled && c.Relay.URL == "" {
		utils.Warn("relay enabled but RELAY_URL is empty; relay delivery will be skipped", nil)
	}
	if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" {
		utils.Warn("twilio credentials not set; direct WhatsApp delivery will be skipped", nil)
	}
	if c.Auction.DurationSeconds <= 0 {
		utils.Warn("non-positive auction duration, using 300s", map[string]any{
			"configured": c.Auction.DurationSeconds,
		})
		c.Auction.DurationSeconds = 300
	}
	if c.Auction.MinIncrement <= 0 {
		c.Auction.MinIncrement = 1.00
	}
	if c.BotBiddingEnabled {
		utils.Warn("BOT_BIDDING_ENABLED is set but bot bidding is not implemented", nil)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
