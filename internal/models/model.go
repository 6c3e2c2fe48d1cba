package models

import "time"

// Side is the direction of a bid.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// BidStatus is the lifecycle state of a bid. The only legal transitions are
// active -> cancelled and active -> executed.
type BidStatus string

const (
	BidStatusActive    BidStatus = "active"
	BidStatusCancelled BidStatus = "cancelled"
	BidStatusExecuted  BidStatus = "executed"
)

// Bid represents a user's buy or sell offer on a stock
type Bid struct {
	BidID       string    `json:"bid_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	StockSymbol string    `json:"stock_symbol"`
	Side        Side      `json:"side"`
	Amount      float64   `json:"amount"`   // price per unit
	Quantity    int64     `json:"quantity"` // units, >= 1
	Status      BidStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	// Local marks a bid synthesized on the degraded path when the store
	// rejected the insert with a permission error. Local bids are not part
	// of the authoritative ledger and never reconcile with other clients.
	Local bool `json:"local,omitempty"`
}

// IsActive reports whether the bid counts toward the order book.
// An unset status is treated as active.
func (b Bid) IsActive() bool {
	return b.Status == BidStatusActive || b.Status == ""
}

// Notional is the total value of the bid.
func (b Bid) Notional() float64 {
	return b.Amount * float64(b.Quantity)
}

// UserProfile represents a participant in the auction
type UserProfile struct {
	UserID               string  `json:"user_id"`
	DisplayName          string  `json:"display_name"`
	Email                string  `json:"email"`
	PhoneNumber          string  `json:"phone_number,omitempty"`
	CumulativeProfitLoss float64 `json:"cumulative_profit_loss"`
	TotalBidCount        int64   `json:"total_bid_count"`
	ActiveBidCount       int64   `json:"active_bid_count"`
}

// Auction is the single bidding session for one stock symbol.
type Auction struct {
	StockSymbol  string              `json:"stock_symbol"`
	StockName    string              `json:"stock_name"`
	StartPrice   float64             `json:"start_price"`
	CurrentPrice float64             `json:"current_price"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
	IsActive     bool                `json:"is_active"`
	TotalBids    int64               `json:"total_bids"`
	Participants map[string]struct{} `json:"-"`
}

// ParticipantCount returns the number of distinct bidders seen so far.
func (a Auction) ParticipantCount() int {
	return len(a.Participants)
}

// Invoice is the transient, human-readable record of a completed placement.
// It is derived per bid and never persisted authoritatively.
type Invoice struct {
	BidID        string    `json:"bid_id"`
	TraderName   string    `json:"trader_name"`
	StockName    string    `json:"stock_name"`
	StockSymbol  string    `json:"stock_symbol"`
	Side         Side      `json:"side"`
	Quantity     int64     `json:"quantity"`
	PricePerUnit float64   `json:"price_per_unit"`
	ProfitLoss   float64   `json:"profit_loss"`
	Timestamp    time.Time `json:"timestamp"`
}

// TotalValue is quantity times unit price.
func (i Invoice) TotalValue() float64 {
	return i.PricePerUnit * float64(i.Quantity)
}
