package biderrors

import "errors"

// Repository-level errors
var (
	ErrBidNotFound      = errors.New("bid not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrPermissionDenied = errors.New("permission denied by store")
)

// Business logic errors
var (
	ErrInvalidBid      = errors.New("invalid bid")
	ErrBidTooLow       = errors.New("bid amount too low")
	ErrBidTooHigh      = errors.New("bid amount exceeds ceiling")
	ErrInvalidQuantity = errors.New("quantity out of range")
	ErrNotionalTooHigh = errors.New("total bid value exceeds ceiling")
	ErrAuctionClosed   = errors.New("auction not active")
)

// Ownership and state errors
var (
	ErrNotBidOwner  = errors.New("requester does not own bid")
	ErrBidNotActive = errors.New("bid is not active")
)

// Delivery errors
var (
	ErrInvalidPhone   = errors.New("invalid phone number")
	ErrDeliveryFailed = errors.New("invoice delivery failed")
)
