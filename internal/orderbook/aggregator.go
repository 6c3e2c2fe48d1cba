package orderbook

import (
	"sort"

	"stockbid/internal/models"
)

// The aggregator derives ranked views from a bid set. Every function here is
// a pure function of its input: no hidden state, input slices are never
// mutated, and identical inputs always produce identical outputs. The server
// recomputes these views on every bid stream event.

// VolumeStats summarizes the active side of the book.
type VolumeStats struct {
	TotalQuantity  int64   `json:"total_quantity"`
	TotalNotional  float64 `json:"total_notional"`
	DistinctBidder int     `json:"distinct_bidders"`
	BestBuy        float64 `json:"best_buy"`
	BestSell       float64 `json:"best_sell"`
	Spread         float64 `json:"spread"`
	HasSpread      bool    `json:"has_spread"`
}

// LeaderboardEntry is one ranked bid plus its volume share within the result.
type LeaderboardEntry struct {
	Bid         models.Bid `json:"bid"`
	VolumeShare float64    `json:"volume_share"`
}

// DefaultLeaderboardLimit bounds the leaderboard when callers pass no limit.
const DefaultLeaderboardLimit = 15

// active filters to bids that count toward the book.
func active(bids []models.Bid) []models.Bid {
	out := make([]models.Bid, 0, len(bids))
	for _, b := range bids {
		if b.IsActive() {
			out = append(out, b)
		}
	}
	return out
}

// Rank returns the active bids of one side, price-ordered: buy side highest
// amount first, sell side lowest amount first. Ties go to the earlier bid.
func Rank(bids []models.Bid, side models.Side) []models.Bid {
	ranked := make([]models.Bid, 0, len(bids))
	for _, b := range active(bids) {
		if b.Side == side {
			ranked = append(ranked, b)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			if side == models.SideBuy {
				return ranked[i].Amount > ranked[j].Amount
			}
			return ranked[i].Amount < ranked[j].Amount
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})
	return ranked
}

// TopN ranks active bids of both sides by amount descending, ties earlier
// first, truncated to n. n <= 0 returns an empty slice.
func TopN(bids []models.Bid, n int) []models.Bid {
	if n <= 0 {
		return []models.Bid{}
	}

	ranked := active(bids)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ComputeVolumeStats totals the active book and derives best prices and
// spread. With either side empty the spread is undefined (HasSpread false).
// The spread is bestSell - bestBuy and may be negative; it is not clamped.
func ComputeVolumeStats(bids []models.Bid) VolumeStats {
	var stats VolumeStats
	bidders := make(map[string]struct{})

	var haveBuy, haveSell bool
	for _, b := range active(bids) {
		stats.TotalQuantity += b.Quantity
		stats.TotalNotional += b.Notional()
		bidders[b.UserID] = struct{}{}

		switch b.Side {
		case models.SideBuy:
			if !haveBuy || b.Amount > stats.BestBuy {
				stats.BestBuy = b.Amount
				haveBuy = true
			}
		case models.SideSell:
			if !haveSell || b.Amount < stats.BestSell {
				stats.BestSell = b.Amount
				haveSell = true
			}
		}
	}

	stats.DistinctBidder = len(bidders)
	if haveBuy && haveSell {
		stats.Spread = stats.BestSell - stats.BestBuy
		stats.HasSpread = true
	}
	return stats
}

// Leaderboard returns the top bids with each entry's share of the quantity
// inside the result. limit <= 0 uses DefaultLeaderboardLimit.
func Leaderboard(bids []models.Bid, limit int) []LeaderboardEntry {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	top := TopN(bids, limit)

	var totalQty int64
	for _, b := range top {
		totalQty += b.Quantity
	}

	entries := make([]LeaderboardEntry, len(top))
	for i, b := range top {
		share := 0.0
		if totalQty > 0 {
			share = float64(b.Quantity) / float64(totalQty)
		}
		entries[i] = LeaderboardEntry{Bid: b, VolumeShare: share}
	}
	return entries
}
