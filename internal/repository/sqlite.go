package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"stockbid/internal/biderrors"
	model "stockbid/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS bids (
    bid_id       TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    user_name    TEXT NOT NULL DEFAULT '',
    stock_symbol TEXT NOT NULL,
    side         TEXT NOT NULL,
    amount       REAL NOT NULL,
    quantity     INTEGER NOT NULL,
    status       TEXT NOT NULL DEFAULT 'active',
    created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    user_id      TEXT PRIMARY KEY,
    display_name TEXT NOT NULL DEFAULT '',
    email        TEXT NOT NULL DEFAULT '',
    phone_number TEXT NOT NULL DEFAULT '',
    cumulative_pl REAL NOT NULL DEFAULT 0,
    total_bids   INTEGER NOT NULL DEFAULT 0,
    active_bids  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS auctions (
    stock_symbol  TEXT PRIMARY KEY,
    stock_name    TEXT NOT NULL DEFAULT '',
    start_price   REAL NOT NULL,
    current_price REAL NOT NULL,
    start_time    DATETIME NOT NULL,
    end_time      DATETIME NOT NULL,
    is_active     INTEGER NOT NULL DEFAULT 1,
    total_bids    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS auction_participants (
    stock_symbol TEXT NOT NULL,
    user_id      TEXT NOT NULL,
    PRIMARY KEY (stock_symbol, user_id)
);

CREATE INDEX IF NOT EXISTS idx_bids_symbol ON bids(stock_symbol, created_at);
CREATE INDEX IF NOT EXISTS idx_bids_user   ON bids(user_id);
`

// SQLiteRepo is a durable implementation of BidStore, UserStore,
// AuctionStore and BidStream on a single-file SQLite database (pure Go
// driver, no CGo). Streaming stays in-process: subscribers are notified
// from the same writer that committed the row.
type SQLiteRepo struct {
	db  *sql.DB
	hub *streamHub
}

// NewSQLiteRepo opens (or creates) the database at the given DSN and applies
// the schema.
func NewSQLiteRepo(dsn string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository.NewSQLiteRepo: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository.NewSQLiteRepo: apply schema: %w", err)
	}

	return &SQLiteRepo{db: db, hub: newStreamHub()}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// RecordBid inserts a bid row and notifies stream subscribers.
func (r *SQLiteRepo) RecordBid(bid model.Bid) error {
	_, err := r.db.Exec(`
		INSERT INTO bids (bid_id, user_id, user_name, stock_symbol, side, amount, quantity, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bid.BidID, bid.UserID, bid.UserName, bid.StockSymbol, string(bid.Side),
		bid.Amount, bid.Quantity, string(bid.Status), bid.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record bid %s: %w", bid.BidID, err)
	}

	r.hub.publish(bid)
	return nil
}

// UpdateBidStatus applies the owner-scoped status transition. The WHERE
// clause enforces ownership and the active-only precondition in one
// statement; a zero row count is disambiguated by re-reading the bid.
func (r *SQLiteRepo) UpdateBidStatus(bidID, ownerID string, status model.BidStatus) error {
	res, err := r.db.Exec(`
		UPDATE bids SET status = ?
		WHERE bid_id = ? AND user_id = ? AND status IN ('active', '')`,
		string(status), bidID, ownerID)
	if err != nil {
		return fmt.Errorf("update bid %s: %w", bidID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bid %s: %w", bidID, err)
	}
	if n == 0 {
		bid, getErr := r.GetBid(bidID)
		switch {
		case getErr != nil:
			return fmt.Errorf("update bid %s: %w", bidID, biderrors.ErrBidNotFound)
		case bid.UserID != ownerID:
			return fmt.Errorf("update bid %s: %w", bidID, biderrors.ErrNotBidOwner)
		default:
			return fmt.Errorf("update bid %s: %w - status is %s", bidID, biderrors.ErrBidNotActive, bid.Status)
		}
	}

	bid, err := r.GetBid(bidID)
	if err == nil {
		r.hub.publish(bid)
	}
	return nil
}

// GetBid returns a single bid by id.
func (r *SQLiteRepo) GetBid(bidID string) (model.Bid, error) {
	row := r.db.QueryRow(`
		SELECT bid_id, user_id, user_name, stock_symbol, side, amount, quantity, status, created_at
		FROM bids WHERE bid_id = ?`, bidID)

	bid, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, biderrors.ErrBidNotFound)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, err)
	}
	return bid, nil
}

// GetBidsBySymbol returns every bid for a symbol in insertion order.
func (r *SQLiteRepo) GetBidsBySymbol(symbol string) ([]model.Bid, error) {
	rows, err := r.db.Query(`
		SELECT bid_id, user_id, user_name, stock_symbol, side, amount, quantity, status, created_at
		FROM bids WHERE stock_symbol = ? ORDER BY created_at, bid_id`, symbol)
	if err != nil {
		return nil, fmt.Errorf("get bids for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("get bids for %s: %w", symbol, err)
		}
		bids = append(bids, bid)
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	return bids, rows.Err()
}

// Subscribe returns a live stream of bid records for a symbol.
func (r *SQLiteRepo) Subscribe(symbol string) (<-chan model.Bid, func()) {
	return r.hub.Subscribe(symbol)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBid(row rowScanner) (model.Bid, error) {
	var bid model.Bid
	var side, status string
	var created time.Time
	err := row.Scan(&bid.BidID, &bid.UserID, &bid.UserName, &bid.StockSymbol,
		&side, &bid.Amount, &bid.Quantity, &status, &created)
	if err != nil {
		return model.Bid{}, err
	}
	bid.Side = model.Side(side)
	bid.Status = model.BidStatus(status)
	bid.CreatedAt = created.UTC()
	return bid, nil
}

// GetUser returns a user profile by id.
func (r *SQLiteRepo) GetUser(userID string) (model.UserProfile, error) {
	var u model.UserProfile
	err := r.db.QueryRow(`
		SELECT user_id, display_name, email, phone_number, cumulative_pl, total_bids, active_bids
		FROM users WHERE user_id = ?`, userID).
		Scan(&u.UserID, &u.DisplayName, &u.Email, &u.PhoneNumber,
			&u.CumulativeProfitLoss, &u.TotalBidCount, &u.ActiveBidCount)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, fmt.Errorf("get user %s: %w", userID, biderrors.ErrUserNotFound)
	}
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}

// CreateUser inserts a profile row.
func (r *SQLiteRepo) CreateUser(profile model.UserProfile) error {
	_, err := r.db.Exec(`
		INSERT INTO users (user_id, display_name, email, phone_number, cumulative_pl, total_bids, active_bids)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		profile.UserID, profile.DisplayName, profile.Email, profile.PhoneNumber,
		profile.CumulativeProfitLoss, profile.TotalBidCount, profile.ActiveBidCount)
	if err != nil {
		return fmt.Errorf("create user %s: %w", profile.UserID, err)
	}
	return nil
}

// ApplyProfitLoss adds delta to the user's cumulative P&L.
func (r *SQLiteRepo) ApplyProfitLoss(userID string, delta float64) error {
	return r.updateUser(userID, `UPDATE users SET cumulative_pl = cumulative_pl + ? WHERE user_id = ?`, delta)
}

// AdjustBidCounts shifts the user's bid counters, clamping active at zero.
func (r *SQLiteRepo) AdjustBidCounts(userID string, totalDelta, activeDelta int64) error {
	res, err := r.db.Exec(`
		UPDATE users SET total_bids = total_bids + ?,
		                 active_bids = MAX(0, active_bids + ?)
		WHERE user_id = ?`, totalDelta, activeDelta, userID)
	if err != nil {
		return fmt.Errorf("adjust counts for user %s: %w", userID, err)
	}
	return requireRow(res, userID)
}

func (r *SQLiteRepo) updateUser(userID, query string, arg any) error {
	res, err := r.db.Exec(query, arg, userID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", userID, err)
	}
	return requireRow(res, userID)
}

func requireRow(res sql.Result, userID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, biderrors.ErrUserNotFound)
	}
	return nil
}

// GetAuction returns the session for a symbol, participants included.
func (r *SQLiteRepo) GetAuction(symbol string) (model.Auction, error) {
	var a model.Auction
	var isActive int
	err := r.db.QueryRow(`
		SELECT stock_symbol, stock_name, start_price, current_price, start_time, end_time, is_active, total_bids
		FROM auctions WHERE stock_symbol = ?`, symbol).
		Scan(&a.StockSymbol, &a.StockName, &a.StartPrice, &a.CurrentPrice,
			&a.StartTime, &a.EndTime, &isActive, &a.TotalBids)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", symbol, biderrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", symbol, err)
	}
	a.IsActive = isActive != 0
	a.StartTime = a.StartTime.UTC()
	a.EndTime = a.EndTime.UTC()

	a.Participants = make(map[string]struct{})
	rows, err := r.db.Query(`SELECT user_id FROM auction_participants WHERE stock_symbol = ?`, symbol)
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", symbol, err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return model.Auction{}, fmt.Errorf("get auction %s: %w", symbol, err)
		}
		a.Participants[uid] = struct{}{}
	}
	return a, rows.Err()
}

// CreateAuction upserts the session row for its symbol.
func (r *SQLiteRepo) CreateAuction(a model.Auction) error {
	_, err := r.db.Exec(`
		INSERT INTO auctions (stock_symbol, stock_name, start_price, current_price, start_time, end_time, is_active, total_bids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(stock_symbol) DO UPDATE SET
		    stock_name = excluded.stock_name,
		    start_price = excluded.start_price,
		    current_price = excluded.current_price,
		    start_time = excluded.start_time,
		    end_time = excluded.end_time,
		    is_active = excluded.is_active,
		    total_bids = excluded.total_bids`,
		a.StockSymbol, a.StockName, a.StartPrice, a.CurrentPrice,
		a.StartTime.UTC(), a.EndTime.UTC(), boolToInt(a.IsActive), a.TotalBids)
	if err != nil {
		return fmt.Errorf("create auction %s: %w", a.StockSymbol, err)
	}
	return nil
}

// EndAuction flips the session inactive.
func (r *SQLiteRepo) EndAuction(symbol string) error {
	res, err := r.db.Exec(`UPDATE auctions SET is_active = 0 WHERE stock_symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("end auction %s: %w", symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("end auction %s: %w", symbol, biderrors.ErrAuctionNotFound)
	}
	return nil
}

// TouchAuction records bid-count and participant bookkeeping.
func (r *SQLiteRepo) TouchAuction(symbol, bidderID string) error {
	res, err := r.db.Exec(`UPDATE auctions SET total_bids = total_bids + 1 WHERE stock_symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("touch auction %s: %w", symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("touch auction %s: %w", symbol, biderrors.ErrAuctionNotFound)
	}

	_, err = r.db.Exec(`
		INSERT INTO auction_participants (stock_symbol, user_id) VALUES (?, ?)
		ON CONFLICT(stock_symbol, user_id) DO NOTHING`, symbol, bidderID)
	if err != nil {
		return fmt.Errorf("touch auction %s: %w", symbol, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
