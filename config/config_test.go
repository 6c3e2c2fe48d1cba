package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "RELIANCE", cfg.Stock.Symbol)
	require.Equal(t, 150.00, cfg.Stock.StartPrice)
	require.Equal(t, 300, cfg.Auction.DurationSeconds)
	require.Equal(t, 1.00, cfg.Auction.MinIncrement)
	require.Equal(t, int64(1000), cfg.Auction.MaxQuantity)
	require.False(t, cfg.Relay.Enabled)
	require.Equal(t, 5*time.Minute, cfg.AuctionDuration())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STOCK_SYMBOL", "TCS")
	t.Setenv("AUCTION_DURATION_SECONDS", "120")
	t.Setenv("MIN_BID_INCREMENT", "0.50")
	t.Setenv("RELAY_ENABLED", "true")
	t.Setenv("RELAY_URL", "http://localhost:3001")
	t.Setenv("SQLITE_DSN", ":memory:")

	cfg := Load()

	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "TCS", cfg.Stock.Symbol)
	require.Equal(t, 120, cfg.Auction.DurationSeconds)
	require.Equal(t, 0.50, cfg.Auction.MinIncrement)
	require.True(t, cfg.Relay.Enabled)
	require.Equal(t, "http://localhost:3001", cfg.Relay.URL)
	require.Equal(t, ":memory:", cfg.Storage.SQLiteDSN)
	require.Equal(t, 2*time.Minute, cfg.AuctionDuration())
}

func TestLoadRepairsBadValues(t *testing.T) {
	t.Setenv("AUCTION_DURATION_SECONDS", "-5")
	t.Setenv("MIN_BID_INCREMENT", "-1")
	t.Setenv("MAX_QUANTITY", "not-a-number")

	cfg := Load()

	require.Equal(t, 300, cfg.Auction.DurationSeconds, "non-positive duration falls back")
	require.Equal(t, 1.00, cfg.Auction.MinIncrement)
	require.Equal(t, int64(1000), cfg.Auction.MaxQuantity, "unparseable value falls back")
}
