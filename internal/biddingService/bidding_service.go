package bidding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"stockbid/internal/auction"
	"stockbid/internal/biderrors"
	"stockbid/internal/invoice"
	"stockbid/internal/models"
	"stockbid/internal/orderbook"
	"stockbid/internal/repository"
	"stockbid/utils"
)

// InvoiceDispatcher is the delivery side of invoice handling. Satisfied by
// *invoice.Dispatcher; faked in tests.
type InvoiceDispatcher interface {
	Dispatch(ctx context.Context, rawPhone, body string) (invoice.DeliveryResult, error)
}

// Rules are the auction business limits applied during validation.
type Rules struct {
	MinIncrement float64
	MaxBidAmount float64
	MaxQuantity  int64
	MaxNotional  float64
}

// PlaceBidRequest is a proposed bid before validation.
type PlaceBidRequest struct {
	UserID      string
	UserName    string
	StockSymbol string
	Side        models.Side
	Amount      float64
	Quantity    int64
}

// PlacementResult is the outcome of a successful (or degraded) placement.
type PlacementResult struct {
	Bid               models.Bid             `json:"bid"`
	ProfitLoss        float64                `json:"profit_loss"`
	ProfitLossApplied bool                   `json:"profit_loss_applied"`
	Degraded          bool                   `json:"degraded"`
	Invoice           models.Invoice         `json:"invoice"`
	Delivery          invoice.DeliveryResult `json:"delivery"`
}

// BiddingService orchestrates bid placement: validation, persistence,
// profit/loss update and invoice dispatch.
type BiddingService struct {
	bids     repository.BidStore
	users    repository.UserStore
	auctions repository.AuctionStore

	dispatcher InvoiceDispatcher
	rules      Rules
	now        func() time.Time
}

// NewBiddingService creates a new BiddingService instance. dispatcher may be
// nil, in which case invoices are only rendered locally.
func NewBiddingService(bids repository.BidStore, users repository.UserStore,
	auctions repository.AuctionStore, dispatcher InvoiceDispatcher, rules Rules) *BiddingService {
	return &BiddingService{
		bids:       bids,
		users:      users,
		auctions:   auctions,
		dispatcher: dispatcher,
		rules:      rules,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *BiddingService) WithClock(now func() time.Time) *BiddingService {
	s.now = now
	return s
}

// PlaceBid validates, persists and settles a bid, then dispatches the
// invoice. Validation failures return synchronously with no side effects.
// A permission-denied insert switches to the degraded local path; any other
// persistence error aborts the attempt entirely.
func (s *BiddingService) PlaceBid(ctx context.Context, req PlaceBidRequest) (PlacementResult, error) {
	auc, err := s.validate(req)
	if err != nil {
		return PlacementResult{}, err
	}

	bid := models.Bid{
		BidID:       utils.GenerateID(),
		UserID:      req.UserID,
		UserName:    req.UserName,
		StockSymbol: req.StockSymbol,
		Side:        req.Side,
		Amount:      req.Amount,
		Quantity:    req.Quantity,
		Status:      models.BidStatusActive,
		CreatedAt:   s.now().UTC(),
	}

	result := PlacementResult{}

	if err := s.bids.RecordBid(bid); err != nil {
		if !errors.Is(err, biderrors.ErrPermissionDenied) {
			return PlacementResult{}, fmt.Errorf("service: failed to record bid for %s by user %s: %w",
				req.StockSymbol, req.UserID, err)
		}

		// Degraded mode: the store refused the write, so the bid lives only
		// in this process. It is flagged on every response and will not
		// reconcile with other clients.
		bid.BidID = utils.GenerateLocalID()
		bid.Local = true
		result.Degraded = true
		utils.Warn("degraded local bid: store rejected insert, bid is not authoritative", map[string]any{
			"bid_id":  bid.BidID,
			"user_id": bid.UserID,
			"symbol":  bid.StockSymbol,
		})
	}

	result.Bid = bid
	result.ProfitLoss = ProfitLoss(bid.Side, bid.Amount, bid.Quantity, auc.CurrentPrice)

	// P&L and counters are best-effort: a failure here is surfaced but never
	// rolls back the recorded bid.
	result.ProfitLossApplied = s.settle(bid, result.ProfitLoss, result.Degraded)

	result.Invoice = models.Invoice{
		BidID:        bid.BidID,
		TraderName:   bid.UserName,
		StockName:    auc.StockName,
		StockSymbol:  bid.StockSymbol,
		Side:         bid.Side,
		Quantity:     bid.Quantity,
		PricePerUnit: bid.Amount,
		ProfitLoss:   result.ProfitLoss,
		Timestamp:    bid.CreatedAt,
	}
	result.Delivery = s.dispatchInvoice(ctx, bid.UserID, result.Invoice)

	return result, nil
}

// validate checks input validity and business rules for bidding. It returns
// the auction so placement reuses the same snapshot it validated against.
func (s *BiddingService) validate(req PlaceBidRequest) (models.Auction, error) {
	if req.UserID == "" || req.StockSymbol == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing userID or stockSymbol", biderrors.ErrInvalidBid)
	}
	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return models.Auction{}, fmt.Errorf("service: %w - side must be buy or sell", biderrors.ErrInvalidBid)
	}
	if req.Amount <= 0 {
		return models.Auction{}, fmt.Errorf("service: %w - non-positive bid amount", biderrors.ErrInvalidBid)
	}
	if req.Quantity < 1 || req.Quantity > s.rules.MaxQuantity {
		return models.Auction{}, fmt.Errorf("service: %w - quantity %d outside [1, %d]",
			biderrors.ErrInvalidQuantity, req.Quantity, s.rules.MaxQuantity)
	}

	auc, err := s.auctions.GetAuction(req.StockSymbol)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to load auction for %s: %w", req.StockSymbol, err)
	}
	if !auc.IsActive || auction.PhaseAt(s.now(), auc.EndTime) == auction.PhaseEnded {
		return models.Auction{}, fmt.Errorf("service: %w", biderrors.ErrAuctionClosed)
	}

	floor := auc.CurrentPrice + s.rules.MinIncrement
	if highest, ok := s.highestActiveBid(req.StockSymbol); ok {
		floor = highest.Amount + s.rules.MinIncrement
	}
	if req.Amount < floor {
		return models.Auction{}, fmt.Errorf("service: %w - minimum acceptable amount is %.2f",
			biderrors.ErrBidTooLow, floor)
	}

	if req.Amount > s.rules.MaxBidAmount {
		return models.Auction{}, fmt.Errorf("service: %w - ceiling is %.2f",
			biderrors.ErrBidTooHigh, s.rules.MaxBidAmount)
	}
	if notional := req.Amount * float64(req.Quantity); notional > s.rules.MaxNotional {
		return models.Auction{}, fmt.Errorf("service: %w - %.2f over ceiling %.2f",
			biderrors.ErrNotionalTooHigh, notional, s.rules.MaxNotional)
	}

	return auc, nil
}

// highestActiveBid returns the top-ranked active bid across both sides.
func (s *BiddingService) highestActiveBid(symbol string) (models.Bid, bool) {
	bids, err := s.bids.GetBidsBySymbol(symbol)
	if err != nil || len(bids) == 0 {
		return models.Bid{}, false
	}
	top := orderbook.TopN(bids, 1)
	if len(top) == 0 {
		return models.Bid{}, false
	}
	return top[0], true
}

// settle applies the P&L delta and bid counters. Returns whether the P&L
// update took. Degraded placements skip store-side bookkeeping: the store
// already refused writes.
func (s *BiddingService) settle(bid models.Bid, pl float64, degraded bool) bool {
	if err := s.users.ApplyProfitLoss(bid.UserID, pl); err != nil {
		utils.Error("failed to apply profit/loss, bid stands", map[string]any{
			"bid_id":  bid.BidID,
			"user_id": bid.UserID,
			"delta":   pl,
			"error":   err.Error(),
		})
		return false
	}

	if err := s.users.AdjustBidCounts(bid.UserID, 1, 1); err != nil {
		utils.Error("failed to update bid counters", map[string]any{
			"user_id": bid.UserID, "error": err.Error(),
		})
	}

	if !degraded {
		if err := s.auctions.TouchAuction(bid.StockSymbol, bid.UserID); err != nil {
			utils.Error("failed to update auction bookkeeping", map[string]any{
				"symbol": bid.StockSymbol, "error": err.Error(),
			})
		}
	}
	return true
}

// dispatchInvoice is always attempted after a successful or degraded
// placement. Without a registered phone number the invoice is only rendered
// locally. Delivery outcome never blocks or reverses the placement.
func (s *BiddingService) dispatchInvoice(ctx context.Context, userID string, inv models.Invoice) invoice.DeliveryResult {
	user, err := s.users.GetUser(userID)
	if err != nil || user.PhoneNumber == "" || s.dispatcher == nil {
		invoice.RenderLocal(os.Stdout, inv)
		return invoice.DeliveryResult{Success: false, Channel: "local", Error: "no registered phone number"}
	}

	// A caller disconnect must not abort an in-flight delivery attempt.
	res, err := s.dispatcher.Dispatch(context.WithoutCancel(ctx), user.PhoneNumber, invoice.Format(inv))
	if err != nil {
		utils.Warn("invoice delivery failed, placement stands", map[string]any{
			"bid_id": inv.BidID,
			"error":  err.Error(),
		})
	}
	return res
}

// CancelBid transitions a bid to cancelled and returns the cancelled bid.
// Rejected unless the requester owns the bid and it is currently active;
// failures surface verbatim with no retry and no degraded path.
func (s *BiddingService) CancelBid(bidID, requesterID string) (models.Bid, error) {
	if bidID == "" || requesterID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing bidID or requesterID", biderrors.ErrInvalidBid)
	}

	if err := s.bids.UpdateBidStatus(bidID, requesterID, models.BidStatusCancelled); err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to cancel bid %s: %w", bidID, err)
	}

	bid, err := s.bids.GetBid(bidID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to load cancelled bid %s: %w", bidID, err)
	}

	if err := s.users.AdjustBidCounts(requesterID, 0, -1); err != nil {
		utils.Error("failed to decrement active bid counter", map[string]any{
			"user_id": requesterID, "error": err.Error(),
		})
	}
	return bid, nil
}

// GetBidsForStock returns the full bid history for a symbol, cancelled bids
// included.
func (s *BiddingService) GetBidsForStock(symbol string) ([]models.Bid, error) {
	if symbol == "" {
		return nil, fmt.Errorf("service: %w - empty stock symbol", biderrors.ErrInvalidBid)
	}

	bids, err := s.bids.GetBidsBySymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for %s: %w", symbol, err)
	}
	return bids, nil
}

// GetUserProfile returns a user's profile with cumulative P&L.
func (s *BiddingService) GetUserProfile(userID string) (models.UserProfile, error) {
	if userID == "" {
		return models.UserProfile{}, fmt.Errorf("service: %w - empty user ID", biderrors.ErrInvalidBid)
	}

	user, err := s.users.GetUser(userID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("service: failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// GetAuction returns the auction session for a symbol.
func (s *BiddingService) GetAuction(symbol string) (models.Auction, error) {
	if symbol == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty stock symbol", biderrors.ErrInvalidBid)
	}

	auc, err := s.auctions.GetAuction(symbol)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", symbol, err)
	}
	return auc, nil
}

// ProfitLoss computes the settlement delta against the reference price:
// buys profit when below the current price, sells when above it.
func ProfitLoss(side models.Side, amount float64, quantity int64, currentPrice float64) float64 {
	if side == models.SideBuy {
		return (currentPrice - amount) * float64(quantity)
	}
	return (amount - currentPrice) * float64(quantity)
}
