package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"stockbid/internal/auction"
	bidding "stockbid/internal/biddingService"
	"stockbid/internal/invoice"
	"stockbid/internal/metrics"
	model "stockbid/internal/models"
	"stockbid/internal/orderbook"
	"stockbid/services/bidding/helpers"
	"stockbid/utils"

	"github.com/gin-gonic/gin"
)

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, req bidding.PlaceBidRequest) (bidding.PlacementResult, error)
	CancelBid(bidID, requesterID string) (model.Bid, error)
	GetBidsForStock(symbol string) ([]model.Bid, error)
	GetUserProfile(userID string) (model.UserProfile, error)
	GetAuction(symbol string) (model.Auction, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

var timeNow = time.Now

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PlaceBidHandler handles POST /bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.service.PlaceBid(c.Request.Context(), bidding.PlaceBidRequest{
		UserID:      req.UserID,
		UserName:    req.UserName,
		StockSymbol: req.StockSymbol,
		Side:        model.Side(req.Side),
		Amount:      req.Amount,
		Quantity:    req.Quantity,
	})
	if err != nil {
		metrics.BidsRejectedTotal.WithLabelValues(req.StockSymbol, helpers.RejectionReason(err)).Inc()
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"handler": "PlaceBidHandler",
			"symbol":  req.StockSymbol,
			"user_id": req.UserID,
			"error":   err.Error(),
		})
		return
	}

	metrics.BidsPlacedTotal.WithLabelValues(
		result.Bid.StockSymbol, string(result.Bid.Side), strconv.FormatBool(result.Degraded)).Inc()
	metrics.InvoicesDispatchedTotal.WithLabelValues(
		result.Delivery.Channel, deliveryOutcome(result.Delivery.Success)).Inc()

	resp := helpers.PlacementResponse{
		Bid:               helpers.ToBidResponse(result.Bid),
		ProfitLoss:        result.ProfitLoss,
		ProfitLossApplied: result.ProfitLossApplied,
		Degraded:          result.Degraded,
		InvoiceText:       invoice.Format(result.Invoice),
		Delivery:          result.Delivery,
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":   result.Bid.BidID,
		"symbol":   result.Bid.StockSymbol,
		"user_id":  req.UserID,
		"amount":   result.Bid.Amount,
		"degraded": result.Degraded,
	})
}

func deliveryOutcome(success bool) string {
	if success {
		return "delivered"
	}
	return "local"
}

// CancelBidHandler handles DELETE /bids/:bid_id
func (h *BiddingHandler) CancelBidHandler(c *gin.Context) {
	bidID := c.Param("bid_id")

	var req helpers.CancelBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CancelBidHandler", err)
		return
	}

	bid, err := h.service.CancelBid(bidID, req.UserID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CancelBidHandler: cancel rejected", map[string]any{
			"bid_id":  bidID,
			"user_id": req.UserID,
			"error":   err.Error(),
		})
		return
	}

	metrics.BidsCancelledTotal.WithLabelValues(bid.StockSymbol).Inc()
	utils.JSONResponse(c, http.StatusOK, gin.H{"bid_id": bidID}, "bid cancelled successfully")
	helpers.LogSuccess("CancelBidHandler", "bid cancelled successfully", map[string]any{
		"bid_id":  bidID,
		"user_id": req.UserID,
	})
}

// GetBidHistoryHandler handles GET /stocks/:symbol/bids. Cancelled bids stay
// visible here; they are only excluded from the ranked views.
func (h *BiddingHandler) GetBidHistoryHandler(c *gin.Context) {
	symbol := c.Param("symbol")
	bids, err := h.service.GetBidsForStock(symbol)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBidHistoryHandler: error retrieving bids", map[string]any{"symbol": symbol, "error": err.Error()})
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetBidHistoryHandler", "bids retrieved successfully", map[string]any{
		"symbol": symbol,
		"count":  len(bids),
	})
}

// GetOrderBookHandler handles GET /stocks/:symbol/orderbook
func (h *BiddingHandler) GetOrderBookHandler(c *gin.Context) {
	symbol := c.Param("symbol")
	bids, err := h.service.GetBidsForStock(symbol)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	resp := helpers.OrderBookResponse{
		StockSymbol: symbol,
		Buy:         orderbook.Rank(bids, model.SideBuy),
		Sell:        orderbook.Rank(bids, model.SideSell),
		Stats:       orderbook.ComputeVolumeStats(bids),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "order book retrieved successfully")
}

// GetLeaderboardHandler handles GET /stocks/:symbol/leaderboard
func (h *BiddingHandler) GetLeaderboardHandler(c *gin.Context) {
	symbol := c.Param("symbol")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	bids, err := h.service.GetBidsForStock(symbol)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	entries := orderbook.Leaderboard(bids, limit)
	utils.JSONResponse(c, http.StatusOK, entries, "leaderboard retrieved successfully")
}

// GetAuctionHandler handles GET /stocks/:symbol/auction
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	symbol := c.Param("symbol")
	auc, err := h.service.GetAuction(symbol)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: auction error", map[string]any{"symbol": symbol, "error": err.Error()})
		return
	}

	now := timeNow()
	resp := helpers.AuctionResponse{
		Auction:          auc,
		Phase:            string(auction.PhaseAt(now, auc.EndTime)),
		RemainingSeconds: int64(auction.Remaining(now, auc.EndTime).Seconds()),
		Participants:     auc.ParticipantCount(),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auction retrieved successfully")
}

// GetUserHandler handles GET /users/:user_id
func (h *BiddingHandler) GetUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	user, err := h.service.GetUserProfile(userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetUserHandler: error retrieving user", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, user, "user retrieved successfully")
}
