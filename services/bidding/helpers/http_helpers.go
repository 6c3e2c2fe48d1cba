package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"stockbid/internal/biderrors"
	model "stockbid/internal/models"
	"stockbid/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biderrors.ErrBidNotFound),
		errors.Is(err, biderrors.ErrUserNotFound),
		errors.Is(err, biderrors.ErrAuctionNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, biderrors.ErrInvalidBid),
		errors.Is(err, biderrors.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biderrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biderrors.ErrBidTooHigh),
		errors.Is(err, biderrors.ErrNotionalTooHigh):
		return http.StatusConflict, "bid exceeds ceiling"
	case errors.Is(err, biderrors.ErrAuctionClosed):
		return http.StatusConflict, "auction not active"
	case errors.Is(err, biderrors.ErrNotBidOwner),
		errors.Is(err, biderrors.ErrPermissionDenied):
		return http.StatusForbidden, "not allowed"
	case errors.Is(err, biderrors.ErrBidNotActive):
		return http.StatusConflict, "bid is not active"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RejectionReason labels a validation error for metrics.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, biderrors.ErrAuctionClosed):
		return "auction_closed"
	case errors.Is(err, biderrors.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, biderrors.ErrBidTooHigh):
		return "too_high"
	case errors.Is(err, biderrors.ErrNotionalTooHigh):
		return "notional"
	case errors.Is(err, biderrors.ErrInvalidQuantity):
		return "quantity"
	case errors.Is(err, biderrors.ErrInvalidBid):
		return "invalid"
	default:
		return "other"
	}
}

// ToBidResponse converts a bid to its wire shape.
func ToBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:       bid.BidID,
		UserID:      bid.UserID,
		UserName:    bid.UserName,
		StockSymbol: bid.StockSymbol,
		Side:        string(bid.Side),
		Amount:      bid.Amount,
		Quantity:    bid.Quantity,
		Status:      string(bid.Status),
		CreatedAt:   bid.CreatedAt.UTC().Format(time.RFC3339),
		Local:       bid.Local,
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
