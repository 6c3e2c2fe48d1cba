package helpers

import (
	model "stockbid/internal/models"
	"stockbid/internal/orderbook"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	UserName    string  `json:"user_name"`
	StockSymbol string  `json:"stock_symbol" binding:"required"`
	Side        string  `json:"side" binding:"required,oneof=buy sell"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Quantity    int64   `json:"quantity" binding:"omitempty,gt=0"` // defaults to 1
}

type CancelBidRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type BidResponse struct {
	BidID       string  `json:"bid_id"`
	UserID      string  `json:"user_id"`
	UserName    string  `json:"user_name"`
	StockSymbol string  `json:"stock_symbol"`
	Side        string  `json:"side"`
	Amount      float64 `json:"amount"`
	Quantity    int64   `json:"quantity"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	Local       bool    `json:"local,omitempty"`
}

type PlacementResponse struct {
	Bid               BidResponse `json:"bid"`
	ProfitLoss        float64     `json:"profit_loss"`
	ProfitLossApplied bool        `json:"profit_loss_applied"`
	Degraded          bool        `json:"degraded"`
	InvoiceText       string      `json:"invoice_text"`
	Delivery          any         `json:"delivery"`
}

type OrderBookResponse struct {
	StockSymbol string                `json:"stock_symbol"`
	Buy         []model.Bid           `json:"buy"`
	Sell        []model.Bid           `json:"sell"`
	Stats       orderbook.VolumeStats `json:"stats"`
}

type AuctionResponse struct {
	Auction          model.Auction `json:"auction"`
	Phase            string        `json:"phase"`
	RemainingSeconds int64         `json:"remaining_seconds"`
	Participants     int           `json:"participants"`
}
