package repository

import (
	"fmt"
	"sync"

	"stockbid/internal/biderrors"
	model "stockbid/internal/models"
)

// BidStore defines the bid ledger interface. Inserts are append-only; the
// only mutation is the owner-scoped status transition.
type BidStore interface {
	RecordBid(bid model.Bid) error
	UpdateBidStatus(bidID, ownerID string, status model.BidStatus) error
	GetBid(bidID string) (model.Bid, error)
	GetBidsBySymbol(symbol string) ([]model.Bid, error)
}

// UserStore defines the user profile interface.
type UserStore interface {
	GetUser(userID string) (model.UserProfile, error)
	CreateUser(profile model.UserProfile) error
	ApplyProfitLoss(userID string, delta float64) error
	AdjustBidCounts(userID string, totalDelta, activeDelta int64) error
}

// AuctionStore defines the per-symbol auction session interface.
type AuctionStore interface {
	GetAuction(symbol string) (model.Auction, error)
	CreateAuction(a model.Auction) error
	EndAuction(symbol string) error
	TouchAuction(symbol, bidderID string) error
}

// BidStream delivers every insert and status change for a symbol as a live
// sequence of bid records. The returned func unsubscribes.
type BidStream interface {
	Subscribe(symbol string) (<-chan model.Bid, func())
}

// streamHub fans bid events out to per-symbol subscribers. Slow subscribers
// drop events rather than block the writer.
type streamHub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan model.Bid
	next int
}

const subscriberBuffer = 64

func newStreamHub() *streamHub {
	return &streamHub{subs: make(map[string]map[int]chan model.Bid)}
}

func (h *streamHub) Subscribe(symbol string) (<-chan model.Bid, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[symbol] == nil {
		h.subs[symbol] = make(map[int]chan model.Bid)
	}
	id := h.next
	h.next++
	ch := make(chan model.Bid, subscriberBuffer)
	h.subs[symbol][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[symbol][id]; ok {
			delete(h.subs[symbol], id)
			close(sub)
		}
	}
	return ch, cancel
}

func (h *streamHub) publish(bid model.Bid) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[bid.StockSymbol] {
		select {
		case ch <- bid:
		default: // subscriber too slow, drop
		}
	}
}

// MemoryRepo is a concurrency-safe in-memory implementation of BidStore,
// UserStore, AuctionStore and BidStream.
type MemoryRepo struct {
	mu       sync.RWMutex
	bids     map[string]model.Bid   // bidID -> bid
	bySymbol map[string][]string    // symbol -> bidIDs in insertion order
	users    map[string]model.UserProfile
	auctions map[string]model.Auction

	hub *streamHub

	// denyWrites simulates a locked-down backend: inserts and status
	// updates fail with ErrPermissionDenied, exercising the degraded path.
	denyWrites bool
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		bids:     make(map[string]model.Bid),
		bySymbol: make(map[string][]string),
		users:    make(map[string]model.UserProfile),
		auctions: make(map[string]model.Auction),
		hub:      newStreamHub(),
	}
}

// DenyWrites toggles permission-denied simulation for bid writes.
func (r *MemoryRepo) DenyWrites(deny bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denyWrites = deny
}

// RecordBid appends a bid to the ledger and notifies stream subscribers.
func (r *MemoryRepo) RecordBid(bid model.Bid) error {
	r.mu.Lock()
	if r.denyWrites {
		r.mu.Unlock()
		return fmt.Errorf("record bid %s: %w", bid.BidID, biderrors.ErrPermissionDenied)
	}

	if _, exists := r.bids[bid.BidID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("record bid %s: %w - duplicate id", bid.BidID, biderrors.ErrInvalidBid)
	}

	r.bids[bid.BidID] = bid
	r.bySymbol[bid.StockSymbol] = append(r.bySymbol[bid.StockSymbol], bid.BidID)
	r.mu.Unlock()

	r.hub.publish(bid)
	return nil
}

// UpdateBidStatus transitions an active bid owned by ownerID to the given
// status. Reversals of cancelled/executed bids are rejected.
func (r *MemoryRepo) UpdateBidStatus(bidID, ownerID string, status model.BidStatus) error {
	r.mu.Lock()
	if r.denyWrites {
		r.mu.Unlock()
		return fmt.Errorf("update bid %s: %w", bidID, biderrors.ErrPermissionDenied)
	}

	bid, ok := r.bids[bidID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("update bid %s: %w", bidID, biderrors.ErrBidNotFound)
	}
	if bid.UserID != ownerID {
		r.mu.Unlock()
		return fmt.Errorf("update bid %s: %w", bidID, biderrors.ErrNotBidOwner)
	}
	if !bid.IsActive() {
		r.mu.Unlock()
		return fmt.Errorf("update bid %s: %w - status is %s", bidID, biderrors.ErrBidNotActive, bid.Status)
	}

	bid.Status = status
	r.bids[bidID] = bid
	r.mu.Unlock()

	r.hub.publish(bid)
	return nil
}

// GetBid returns a single bid by id.
func (r *MemoryRepo) GetBid(bidID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bid, ok := r.bids[bidID]
	if !ok {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, biderrors.ErrBidNotFound)
	}
	return bid, nil
}

// GetBidsBySymbol returns every bid for a symbol, cancelled ones included,
// in insertion order.
func (r *MemoryRepo) GetBidsBySymbol(symbol string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bySymbol[symbol]
	bids := make([]model.Bid, 0, len(ids))
	for _, id := range ids {
		bids = append(bids, r.bids[id])
	}
	return bids, nil
}

// Subscribe returns a live stream of bid records for a symbol.
func (r *MemoryRepo) Subscribe(symbol string) (<-chan model.Bid, func()) {
	return r.hub.Subscribe(symbol)
}

// GetUser returns a user profile by id.
func (r *MemoryRepo) GetUser(userID string) (model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.UserProfile{}, fmt.Errorf("get user %s: %w", userID, biderrors.ErrUserNotFound)
	}
	return user, nil
}

// CreateUser stores a profile. Creating an existing user is an error.
func (r *MemoryRepo) CreateUser(profile model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[profile.UserID]; exists {
		return fmt.Errorf("create user %s: %w - already exists", profile.UserID, biderrors.ErrInvalidBid)
	}
	r.users[profile.UserID] = profile
	return nil
}

// ApplyProfitLoss adds delta to the user's cumulative P&L.
func (r *MemoryRepo) ApplyProfitLoss(userID string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("apply p&l for user %s: %w", userID, biderrors.ErrUserNotFound)
	}
	user.CumulativeProfitLoss += delta
	r.users[userID] = user
	return nil
}

// AdjustBidCounts shifts the user's total and active bid counters.
func (r *MemoryRepo) AdjustBidCounts(userID string, totalDelta, activeDelta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("adjust counts for user %s: %w", userID, biderrors.ErrUserNotFound)
	}
	user.TotalBidCount += totalDelta
	user.ActiveBidCount += activeDelta
	if user.ActiveBidCount < 0 {
		user.ActiveBidCount = 0
	}
	r.users[userID] = user
	return nil
}

// GetAuction returns the session for a symbol.
func (r *MemoryRepo) GetAuction(symbol string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[symbol]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", symbol, biderrors.ErrAuctionNotFound)
	}
	// Copy the participant set so callers never share the live map with
	// TouchAuction.
	participants := make(map[string]struct{}, len(a.Participants))
	for id := range a.Participants {
		participants[id] = struct{}{}
	}
	a.Participants = participants
	return a, nil
}

// CreateAuction stores the session for its symbol, replacing any prior one.
func (r *MemoryRepo) CreateAuction(a model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.Participants == nil {
		a.Participants = make(map[string]struct{})
	}
	r.auctions[a.StockSymbol] = a
	return nil
}

// EndAuction flips the session inactive. Ending an already-ended auction is
// a no-op.
func (r *MemoryRepo) EndAuction(symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[symbol]
	if !ok {
		return fmt.Errorf("end auction %s: %w", symbol, biderrors.ErrAuctionNotFound)
	}
	a.IsActive = false
	r.auctions[symbol] = a
	return nil
}

// TouchAuction records bookkeeping after a placed bid: total count and the
// participant set.
func (r *MemoryRepo) TouchAuction(symbol, bidderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[symbol]
	if !ok {
		return fmt.Errorf("touch auction %s: %w", symbol, biderrors.ErrAuctionNotFound)
	}
	a.TotalBids++
	if a.Participants == nil {
		a.Participants = make(map[string]struct{})
	}
	a.Participants[bidderID] = struct{}{}
	r.auctions[symbol] = a
	return nil
}
