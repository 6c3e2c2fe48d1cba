package relay

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockbid/utils"
)

// SendRequest is the body of POST /api/send-whatsapp.
type SendRequest struct {
	To   string `json:"to" binding:"required"`
	Body string `json:"body" binding:"required"`
}

// TestRequest is the body of POST /api/test-whatsapp.
type TestRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

const testMessageBody = "StockBid relay verification: your WhatsApp channel is working."

// SendWhatsAppHandler handles POST /api/send-whatsapp
func (s *Server) SendWhatsAppHandler(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("invalid request payload: %v", err),
			"code":    "invalid-request",
		})
		return
	}

	s.send(c, req.To, req.Body)
}

// TestWhatsAppHandler handles POST /api/test-whatsapp by sending a canned
// verification message.
func (s *Server) TestWhatsAppHandler(c *gin.Context) {
	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("invalid request payload: %v", err),
			"code":    "invalid-request",
		})
		return
	}

	s.send(c, req.PhoneNumber, testMessageBody)
}

// send forwards one message to Twilio and writes the relay response shape.
func (s *Server) send(c *gin.Context, to, body string) {
	to = strings.TrimPrefix(to, "whatsapp:")

	resp, exc, err := s.sender.SendWhatsApp(s.from, to, body, "", "")
	if err != nil {
		utils.Error("twilio request failed", map[string]any{"to": to, "error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "provider-unreachable",
		})
		return
	}
	if exc != nil {
		code := mapTwilioCode(int(exc.Code))
		utils.Error("twilio rejected message", map[string]any{
			"to": to, "twilio_code": exc.Code, "code": code, "error": exc.Message,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   exc.Message,
			"code":    code,
		})
		return
	}

	utils.Info("whatsapp message accepted", map[string]any{
		"to": to, "message_id": resp.Sid, "status": resp.Status,
	})
	c.JSON(http.StatusAccepted, gin.H{
		"success":   true,
		"messageId": resp.Sid,
		"status":    resp.Status,
		"to":        to,
	})
}

// mapTwilioCode folds Twilio error codes into the relay's stable error
// vocabulary.
func mapTwilioCode(code int) string {
	switch code {
	case 21211, 21614:
		return "invalid-number"
	case 63007, 63016:
		return "whatsapp-not-enabled"
	case 20003:
		return "auth-failed"
	default:
		return "provider-error"
	}
}
