package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockbid/config"
	"stockbid/internal/auction"
	bidding "stockbid/internal/biddingService"
	"stockbid/internal/invoice"
	model "stockbid/internal/models"
	"stockbid/internal/repository"
	"stockbid/internal/server"
	"stockbid/utils"
)

func main() {
	cfg := config.Load()
	utils.SetLogLevel(cfg.LogLevel)

	bids, users, auctions, stream := buildStores(cfg)

	startTime := time.Now().UTC()
	endTime := startTime.Add(cfg.AuctionDuration())
	seedAuction(cfg, auctions, startTime, endTime)

	dispatcher := buildDispatcher(cfg)

	biddingSvc := bidding.NewBiddingService(bids, users, auctions, dispatcher, bidding.Rules{
		MinIncrement: cfg.Auction.MinIncrement,
		MaxBidAmount: cfg.Auction.MaxBidAmount,
		MaxQuantity:  cfg.Auction.MaxQuantity,
		MaxNotional:  cfg.Auction.MaxNotional,
	})

	startCountdown(cfg.Stock.Symbol, endTime, auctions)

	router := server.SetupRouter(biddingSvc, server.NewStreamHandler(bids, stream))

	addr := ":" + cfg.Port
	fmt.Printf("Starting stock bidding server on %s...\n", addr)
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// buildStores selects the durable SQLite ledger when a DSN is configured,
// otherwise a pure in-memory session store.
func buildStores(cfg *config.Config) (repository.BidStore, repository.UserStore, repository.AuctionStore, repository.BidStream) {
	if dsn := cfg.Storage.SQLiteDSN; dsn != "" {
		repo, err := repository.NewSQLiteRepo(dsn)
		if err != nil {
			utils.Fatal("failed to open sqlite store", map[string]any{"dsn": dsn, "error": err.Error()})
		}
		utils.Info("using sqlite bid ledger", map[string]any{"dsn": dsn})
		return repo, repo, repo, repo
	}

	repo := repository.NewMemoryRepo()
	return repo, repo, repo, repo
}

// seedAuction creates the single fixed-duration session for the configured
// stock.
func seedAuction(cfg *config.Config, auctions repository.AuctionStore, startTime, endTime time.Time) {
	a := model.Auction{
		StockSymbol:  cfg.Stock.Symbol,
		StockName:    cfg.Stock.Name,
		StartPrice:   cfg.Stock.StartPrice,
		CurrentPrice: cfg.Stock.StartPrice,
		StartTime:    startTime,
		EndTime:      endTime,
		IsActive:     true,
	}
	if err := auctions.CreateAuction(a); err != nil {
		utils.Fatal("failed to create auction", map[string]any{"symbol": cfg.Stock.Symbol, "error": err.Error()})
	}
	utils.Info("auction session started", map[string]any{
		"symbol":   cfg.Stock.Symbol,
		"duration": cfg.AuctionDuration().String(),
	})
}

// buildDispatcher assembles the delivery chain: relay first when configured,
// then direct Twilio, with the simulator as the terminal fallback.
func buildDispatcher(cfg *config.Config) *invoice.Dispatcher {
	var strategies []invoice.Strategy
	if cfg.Relay.Enabled && cfg.Relay.URL != "" {
		strategies = append(strategies, invoice.NewRelayClient(cfg.Relay.URL))
	}
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		strategies = append(strategies, invoice.NewTwilioDirect(
			cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WhatsAppNumber))
	}
	strategies = append(strategies, invoice.NewSimulator())
	return invoice.NewDispatcher(strategies...)
}

// startCountdown runs the session timer; when it fires, the auction is
// ended in the store and further placements are rejected.
func startCountdown(symbol string, endTime time.Time, auctions repository.AuctionStore) {
	countdown := auction.NewCountdown(endTime, func() {
		if err := auctions.EndAuction(symbol); err != nil {
			utils.Error("failed to end auction", map[string]any{"symbol": symbol, "error": err.Error()})
			return
		}
		utils.Info("auction ended", map[string]any{"symbol": symbol})
	})
	go countdown.Run(context.Background())
}
