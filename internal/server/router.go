package server

import (
	handler "stockbid/services/bidding/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService handler.BiddingServiceInterface, stream *StreamHandler) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(PrometheusMiddleware)

	biddingHandler := handler.NewBiddingHandler(biddingService)

	bids := router.Group("/bids")
	{
		bids.POST("", biddingHandler.PlaceBidHandler)
		bids.DELETE("/:bid_id", biddingHandler.CancelBidHandler)
	}

	stocks := router.Group("/stocks")
	{
		stocks.GET("/:symbol/bids", biddingHandler.GetBidHistoryHandler)
		stocks.GET("/:symbol/orderbook", biddingHandler.GetOrderBookHandler)
		stocks.GET("/:symbol/leaderboard", biddingHandler.GetLeaderboardHandler)
		stocks.GET("/:symbol/auction", biddingHandler.GetAuctionHandler)
		if stream != nil {
			stocks.GET("/:symbol/stream", stream.Serve)
		}
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id", biddingHandler.GetUserHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
