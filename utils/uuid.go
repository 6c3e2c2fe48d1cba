package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateLocalID returns an identifier for bids created on the degraded
// local path. The prefix keeps them distinguishable from store-issued ids.
func GenerateLocalID() string {
	return "local-" + uuid.New().String()
}
