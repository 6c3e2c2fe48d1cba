// Package relay is the self-hosted WhatsApp relay: a stateless HTTP process
// that forwards formatted messages to Twilio. Each request is independent;
// there is no session state and no queue.
package relay

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sfreiberg/gotwilio"

	"stockbid/config"
	"stockbid/utils"
)

const serviceName = "stockbid-whatsapp-relay"

// TwilioSender is the slice of the Twilio client the relay needs; satisfied
// by *gotwilio.Twilio and faked in tests.
type TwilioSender interface {
	SendWhatsApp(from, to, body, statusCallback, applicationSid string) (*gotwilio.SmsResponse, *gotwilio.Exception, error)
}

// Server handles the relay's three endpoints.
type Server struct {
	sender     TwilioSender
	accountSID string
	from       string
	now        func() time.Time
}

// NewServer creates a relay server from the Twilio credential triple.
func NewServer(cfg config.TwilioConfig) *Server {
	return &Server{
		sender:     gotwilio.NewTwilioClient(cfg.AccountSID, cfg.AuthToken),
		accountSID: cfg.AccountSID,
		from:       cfg.WhatsAppNumber,
		now:        time.Now,
	}
}

// NewServerWithSender creates a relay server with an injected sender. Tests only.
func NewServerWithSender(sender TwilioSender, accountSID, from string) *Server {
	return &Server{sender: sender, accountSID: accountSID, from: from, now: time.Now}
}

// SetupRouter configures the relay's Gin routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger)

	api := router.Group("/api")
	{
		api.GET("/health", s.HealthHandler)
		api.POST("/send-whatsapp", s.SendWhatsAppHandler)
		api.POST("/test-whatsapp", s.TestWhatsAppHandler)
	}

	return router
}

// requestLogger logs incoming relay requests with timing.
func requestLogger(c *gin.Context) {
	start := time.Now()

	c.Next()

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// HealthHandler handles GET /api/health. The account sid is truncated to a
// prefix so the health page never leaks the full credential.
func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":              "ok",
		"service":             serviceName,
		"timestamp":           s.now().UTC().Format(time.RFC3339),
		"twilioAccountPrefix": accountPrefix(s.accountSID),
		"whatsappNumber":      s.from,
	})
}

func accountPrefix(sid string) string {
	if len(sid) <= 6 {
		return sid
	}
	return sid[:6] + "..."
}
