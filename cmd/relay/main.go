package main

import (
	"fmt"
	"os"

	"stockbid/config"
	"stockbid/internal/relay"
	"stockbid/utils"
)

func main() {
	cfg := config.Load()
	utils.SetLogLevel(cfg.LogLevel)

	srv := relay.NewServer(cfg.Twilio)
	router := srv.SetupRouter()

	port := os.Getenv("RELAY_PORT")
	if port == "" {
		port = "3001"
	}

	addr := ":" + port
	fmt.Printf("Starting WhatsApp relay on %s...\n", addr)
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start relay: %v\n", err)
		os.Exit(1)
	}
}
