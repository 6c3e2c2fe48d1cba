package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	model "stockbid/internal/models"
	"stockbid/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func dialStream(t *testing.T, repo *repository.MemoryRepo, symbol string) *websocket.Conn {
	t.Helper()

	router := gin.New()
	h := NewStreamHandler(repo, repo)
	router.GET("/stocks/:symbol/stream", h.Serve)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stocks/" + symbol + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) BookSnapshot {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var snap BookSnapshot
	require.NoError(t, conn.ReadJSON(&snap))
	return snap
}

func streamBid(id, userID string, amount float64) model.Bid {
	return model.Bid{
		BidID:       id,
		UserID:      userID,
		UserName:    "Trader " + userID,
		StockSymbol: "RELIANCE",
		Side:        model.SideBuy,
		Amount:      amount,
		Quantity:    10,
		Status:      model.BidStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestStream_InitialSnapshot(t *testing.T) {
	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.RecordBid(streamBid("b1", "user-1", 151)))

	conn := dialStream(t, repo, "RELIANCE")

	snap := readSnapshot(t, conn)
	require.Equal(t, "RELIANCE", snap.StockSymbol)
	require.Len(t, snap.Buy, 1)
	require.Equal(t, "b1", snap.Buy[0].BidID)
	require.Len(t, snap.Leaderboard, 1)
	require.False(t, snap.GeneratedAt.IsZero())
}

func TestStream_PushesFrameOnNewBid(t *testing.T) {
	repo := repository.NewMemoryRepo()
	conn := dialStream(t, repo, "RELIANCE")

	first := readSnapshot(t, conn)
	require.Empty(t, first.Buy)

	require.NoError(t, repo.RecordBid(streamBid("b1", "user-1", 151)))

	second := readSnapshot(t, conn)
	require.Len(t, second.Buy, 1)
	require.Equal(t, "b1", second.Buy[0].BidID)
	require.InDelta(t, 151, second.Stats.BestBuy, 1e-9)
}

func TestStream_RanksFrameAcrossBids(t *testing.T) {
	repo := repository.NewMemoryRepo()
	conn := dialStream(t, repo, "RELIANCE")
	readSnapshot(t, conn) // initial

	require.NoError(t, repo.RecordBid(streamBid("b1", "user-1", 151)))
	readSnapshot(t, conn)

	require.NoError(t, repo.RecordBid(streamBid("b2", "user-2", 153)))
	snap := readSnapshot(t, conn)

	require.Len(t, snap.Buy, 2)
	require.Equal(t, "b2", snap.Buy[0].BidID, "highest buy ranks first")
	require.Equal(t, int64(20), snap.Stats.TotalQuantity)
}

func TestStream_IgnoresOtherSymbols(t *testing.T) {
	repo := repository.NewMemoryRepo()
	conn := dialStream(t, repo, "RELIANCE")
	readSnapshot(t, conn) // initial

	other := streamBid("b1", "user-1", 151)
	other.StockSymbol = "TCS"
	require.NoError(t, repo.RecordBid(other))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var snap BookSnapshot
	err := conn.ReadJSON(&snap)
	require.Error(t, err, "no frame expected for another symbol")
}
