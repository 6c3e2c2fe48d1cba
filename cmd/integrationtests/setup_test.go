package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	bidding "stockbid/internal/biddingService"
	model "stockbid/internal/models"
	"stockbid/internal/repository"
	"stockbid/internal/server"
)

func testRules() bidding.Rules {
	return bidding.Rules{
		MinIncrement: 1.00,
		MaxBidAmount: 100000,
		MaxQuantity:  1000,
		MaxNotional:  1000000,
	}
}

func testAuction() model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		StockSymbol:  "RELIANCE",
		StockName:    "Reliance Industries",
		StartPrice:   150.00,
		CurrentPrice: 150.00,
		StartTime:    now,
		EndTime:      now.Add(10 * time.Minute),
		IsActive:     true,
	}
}

// SetupTestRouter initializes the full router over an in-memory repository
// seeded with a ten-minute auction session, and returns the repo for
// test-side inspection.
func SetupTestRouter(t *testing.T, auctions ...model.Auction) (*gin.Engine, *repository.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	if len(auctions) == 0 {
		auctions = []model.Auction{testAuction()}
	}
	for _, a := range auctions {
		if err := repo.CreateAuction(a); err != nil {
			t.Fatalf("failed to seed auction: %v", err)
		}
	}

	service := bidding.NewBiddingService(repo, repo, repo, nil, testRules())
	stream := server.NewStreamHandler(repo, repo)
	return server.SetupRouter(service, stream), repo
}

// ExecuteRequestAndParse executes an HTTP request on the given router and
// parses the JSON response envelope.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// placeBid posts one bid and returns the placement payload from the data
// envelope.
func placeBid(t *testing.T, router *gin.Engine, payload map[string]any) map[string]any {
	t.Helper()

	resp, w := ExecuteRequestAndParse(t, router, "POST", "/bids", payload)
	if w.Code != 201 {
		t.Fatalf("expected 201 placing bid, got %d: %s", w.Code, w.Body.String())
	}
	return resp["data"].(map[string]any)
}
