package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	bidding "stockbid/internal/biddingService"
	"stockbid/internal/invoice"
	model "stockbid/internal/models"
	"stockbid/internal/orderbook"
	repository "stockbid/internal/repository"
)

// noopDispatcher short-circuits invoice delivery so benchmarks measure the
// placement path, not simulated network delay.
type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, string, string) (invoice.DeliveryResult, error) {
	return invoice.DeliveryResult{Success: true, Channel: "noop"}, nil
}

func benchRules() bidding.Rules {
	return bidding.Rules{
		MinIncrement: 1,
		MaxBidAmount: 1e12,
		MaxQuantity:  1000,
		MaxNotional:  1e15,
	}
}

func seedAuction(repo *repository.MemoryRepo, symbol string) {
	now := time.Now().UTC()
	repo.CreateAuction(model.Auction{
		StockSymbol:  symbol,
		StockName:    symbol,
		StartPrice:   150,
		CurrentPrice: 150,
		StartTime:    now,
		EndTime:      now.Add(time.Hour),
		IsActive:     true,
	})
}

func seedUsers(repo *repository.MemoryRepo, n int) {
	for i := 0; i < n; i++ {
		repo.CreateUser(model.UserProfile{
			UserID:      fmt.Sprintf("user_%d", i),
			DisplayName: fmt.Sprintf("User %d", i),
			PhoneNumber: "9876543210",
		})
	}
}

// Benchmark 1: PlaceBid - Isolated Symbols (Low Contention - Micro Benchmark)
func Benchmark_PlaceBid_IsolatedSymbols(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo, repo, repo, noopDispatcher{}, benchRules())

	for i := 0; i < b.N; i++ {
		seedAuction(repo, fmt.Sprintf("SYM_%d", i))
	}
	seedUsers(repo, 64)

	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := bidding.PlaceBidRequest{
			UserID:      fmt.Sprintf("user_%d", i%64),
			StockSymbol: fmt.Sprintf("SYM_%d", i),
			Side:        model.SideBuy,
			Amount:      151,
			Quantity:    1,
		}
		if _, err := svc.PlaceBid(ctx, req); err != nil {
			b.Fatalf("failed to place bid: %v", err)
		}
	}
}

// Benchmark 2: PlaceBid - Shared Symbol (High Contention - Concurrency Benchmark)
func Benchmark_PlaceBid_ConcurrentSharedSymbol(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo, repo, repo, noopDispatcher{}, benchRules())

	seedAuction(repo, "SHARED")
	seedUsers(repo, 64)

	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	// amounts climb monotonically so each bid clears the increment floor
	var lastAmount int64 = 150

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			next := atomic.AddInt64(&lastAmount, int64(rnd.Intn(5)+1))
			_, _ = svc.PlaceBid(ctx, bidding.PlaceBidRequest{
				UserID:      fmt.Sprintf("user_%d", rnd.Intn(64)),
				StockSymbol: "SHARED",
				Side:        model.SideBuy,
				Amount:      float64(next),
				Quantity:    1,
			})
		}
	})
}

// Benchmark 3: Order book aggregation - Single-Threaded (Low Contention)
func Benchmark_OrderBook_SingleThreaded(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo, repo, repo, noopDispatcher{}, benchRules())

	seedAuction(repo, "SHARED")
	seedUsers(repo, 100)

	ctx := context.Background()
	for j := 0; j < 100; j++ {
		_, _ = svc.PlaceBid(ctx, bidding.PlaceBidRequest{
			UserID:      fmt.Sprintf("user_%d", j),
			StockSymbol: "SHARED",
			Side:        model.SideBuy,
			Amount:      float64(151 + j),
			Quantity:    1,
		})
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		bids, err := svc.GetBidsForStock("SHARED")
		if err != nil {
			b.Fatalf("failed to get bids: %v", err)
		}
		orderbook.Rank(bids, model.SideBuy)
		orderbook.ComputeVolumeStats(bids)
		orderbook.Leaderboard(bids, orderbook.DefaultLeaderboardLimit)
	}
}

// Benchmark 4: Order book aggregation - Concurrent (High Contention)
func Benchmark_OrderBook_Concurrent(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo, repo, repo, noopDispatcher{}, benchRules())

	seedAuction(repo, "SHARED")
	seedUsers(repo, 100)

	ctx := context.Background()
	for j := 0; j < 100; j++ {
		_, _ = svc.PlaceBid(ctx, bidding.PlaceBidRequest{
			UserID:      fmt.Sprintf("user_%d", j),
			StockSymbol: "SHARED",
			Side:        model.SideBuy,
			Amount:      float64(151 + j),
			Quantity:    1,
		})
	}

	b.ReportAllocs()
	b.ResetTimer()

	var counter int64

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			bids, err := svc.GetBidsForStock("SHARED")
			if err != nil {
				b.Fatalf("failed to get bids: %v", err)
			}
			orderbook.Leaderboard(bids, orderbook.DefaultLeaderboardLimit)
			atomic.AddInt64(&counter, 1)
		}
	})
}

// Benchmark 5: Mixed Workload (Readers + Writers concurrently)
func Benchmark_MixedWorkload_SharedSymbol(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo, repo, repo, noopDispatcher{}, benchRules())

	seedAuction(repo, "SHARED")
	seedUsers(repo, 64)

	ctx := context.Background()
	for j := 0; j < 50; j++ {
		_, _ = svc.PlaceBid(ctx, bidding.PlaceBidRequest{
			UserID:      fmt.Sprintf("user_%d", j%64),
			StockSymbol: "SHARED",
			Side:        model.SideBuy,
			Amount:      float64(151 + j*2),
			Quantity:    1,
		})
	}

	b.ReportAllocs()
	b.ResetTimer()

	var lastAmount int64 = 300
	var counter int64

	// Ratio: 70% readers, 30% writers
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			opType := rnd.Intn(10)
			switch {
			case opType < 3:
				next := atomic.AddInt64(&lastAmount, int64(rnd.Intn(5)+1))
				_, _ = svc.PlaceBid(ctx, bidding.PlaceBidRequest{
					UserID:      fmt.Sprintf("user_%d", rnd.Intn(64)),
					StockSymbol: "SHARED",
					Side:        model.SideBuy,
					Amount:      float64(next),
					Quantity:    1,
				})
			default:
				bids, _ := svc.GetBidsForStock("SHARED")
				orderbook.ComputeVolumeStats(bids)
			}
			atomic.AddInt64(&counter, 1)
		}
	})
}
