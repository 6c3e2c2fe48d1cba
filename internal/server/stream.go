package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"stockbid/internal/metrics"
	model "stockbid/internal/models"
	"stockbid/internal/orderbook"
	"stockbid/internal/repository"
	"stockbid/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The demo UI is served from arbitrary origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// BookSnapshot is one order-book frame pushed over the stream.
type BookSnapshot struct {
	StockSymbol string                       `json:"stock_symbol"`
	Buy         []model.Bid                  `json:"buy"`
	Sell        []model.Bid                  `json:"sell"`
	Stats       orderbook.VolumeStats        `json:"stats"`
	Leaderboard []orderbook.LeaderboardEntry `json:"leaderboard"`
	GeneratedAt time.Time                    `json:"generated_at"`
}

// StreamHandler upgrades the connection and pushes a freshly recomputed
// order-book snapshot on every bid event for the symbol. The recompute is a
// full pass over the bid set per event; the subscription is torn down when
// the client disconnects.
type StreamHandler struct {
	bids   repository.BidStore
	stream repository.BidStream
}

// NewStreamHandler wires the live order-book stream.
func NewStreamHandler(bids repository.BidStore, stream repository.BidStream) *StreamHandler {
	return &StreamHandler{bids: bids, stream: stream}
}

// Serve handles GET /stocks/:symbol/stream.
func (h *StreamHandler) Serve(c *gin.Context) {
	symbol := c.Param("symbol")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("stream upgrade failed", map[string]any{"symbol": symbol, "error": err.Error()})
		return
	}
	defer conn.Close()

	events, cancel := h.stream.Subscribe(symbol)
	defer cancel()

	metrics.StreamSubscribers.WithLabelValues(symbol).Inc()
	defer metrics.StreamSubscribers.WithLabelValues(symbol).Dec()

	// Reader goroutine: we never expect client messages, but reading is how
	// close frames are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Initial snapshot so the client renders without waiting for a bid.
	if err := h.push(conn, symbol); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			if err := h.push(conn, symbol); err != nil {
				return
			}
		}
	}
}

// push recomputes the aggregated views and writes one frame.
func (h *StreamHandler) push(conn *websocket.Conn, symbol string) error {
	bids, err := h.bids.GetBidsBySymbol(symbol)
	if err != nil {
		utils.Error("stream snapshot failed", map[string]any{"symbol": symbol, "error": err.Error()})
		return err
	}

	snapshot := BookSnapshot{
		StockSymbol: symbol,
		Buy:         orderbook.Rank(bids, model.SideBuy),
		Sell:        orderbook.Rank(bids, model.SideSell),
		Stats:       orderbook.ComputeVolumeStats(bids),
		Leaderboard: orderbook.Leaderboard(bids, 0),
		GeneratedAt: time.Now().UTC(),
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snapshot)
}
