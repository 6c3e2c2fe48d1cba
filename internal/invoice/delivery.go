package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sfreiberg/gotwilio"

	"stockbid/internal/biderrors"
	"stockbid/utils"
)

// DeliveryResult reports the outcome of one dispatch attempt.
type DeliveryResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Strategy is one delivery channel. Deliver receives an already-normalized
// +-prefixed destination.
type Strategy interface {
	Name() string
	Deliver(ctx context.Context, to, body string) (DeliveryResult, error)
}

// Dispatcher tries its strategies in order and stops at the first success.
// The caller is expected to put the simulator last so dispatch always
// terminates with a result.
type Dispatcher struct {
	strategies []Strategy
}

// NewDispatcher builds a dispatcher over the given ordered strategies.
func NewDispatcher(strategies ...Strategy) *Dispatcher {
	return &Dispatcher{strategies: strategies}
}

// Dispatch normalizes the destination and walks the strategy chain with
// fallthrough on failure. An invalid number fails before any network call.
func (d *Dispatcher) Dispatch(ctx context.Context, rawPhone, body string) (DeliveryResult, error) {
	to, err := NormalizePhone(rawPhone)
	if err != nil {
		return DeliveryResult{Success: false, Error: err.Error()}, err
	}

	var lastErr error
	for _, s := range d.strategies {
		res, err := s.Deliver(ctx, to, body)
		if err == nil && res.Success {
			res.Channel = s.Name()
			return res, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: %w", s.Name(), biderrors.ErrDeliveryFailed)
		}
		lastErr = err
		utils.Warn("invoice delivery strategy failed, falling through", map[string]any{
			"channel": s.Name(),
			"error":   err.Error(),
		})
	}

	if lastErr == nil {
		lastErr = biderrors.ErrDeliveryFailed
	}
	return DeliveryResult{Success: false, Error: lastErr.Error()}, lastErr
}

// RelayClient posts to the self-hosted relay's /api/send-whatsapp endpoint.
type RelayClient struct {
	baseURL string
	client  *http.Client
}

// NewRelayClient creates a client for the relay at baseURL.
func NewRelayClient(baseURL string) *RelayClient {
	return &RelayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *RelayClient) Name() string { return "relay" }

type relaySendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type relaySendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// Deliver forwards the message to the relay server.
func (r *RelayClient) Deliver(ctx context.Context, to, body string) (DeliveryResult, error) {
	payload, err := json.Marshal(relaySendRequest{To: to, Body: body})
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("relay: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/api/send-whatsapp", bytes.NewReader(payload))
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("relay: %w", err)
	}
	defer resp.Body.Close()

	var parsed relaySendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return DeliveryResult{}, fmt.Errorf("relay: decode response: %w", err)
	}
	if !parsed.Success {
		return DeliveryResult{}, fmt.Errorf("relay: %w - %s", biderrors.ErrDeliveryFailed, parsed.Error)
	}

	return DeliveryResult{Success: true, MessageID: parsed.MessageID}, nil
}

// whatsAppSender is the slice of the Twilio client the direct strategy
// needs; *gotwilio.Twilio satisfies it.
type whatsAppSender interface {
	SendWhatsApp(from, to, body, statusCallback, applicationSid string) (*gotwilio.SmsResponse, *gotwilio.Exception, error)
}

// TwilioDirect calls the messaging provider's API directly with the
// configured credential triple.
type TwilioDirect struct {
	sender whatsAppSender
	from   string
}

// NewTwilioDirect creates the direct strategy from the credential triple.
func NewTwilioDirect(accountSID, authToken, from string) *TwilioDirect {
	return &TwilioDirect{
		sender: gotwilio.NewTwilioClient(accountSID, authToken),
		from:   from,
	}
}

func (t *TwilioDirect) Name() string { return "twilio-direct" }

// Deliver sends the message through Twilio's WhatsApp channel.
func (t *TwilioDirect) Deliver(_ context.Context, to, body string) (DeliveryResult, error) {
	resp, exc, err := t.sender.SendWhatsApp(t.from, to, body, "", "")
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("twilio: %w", err)
	}
	if exc != nil {
		return DeliveryResult{}, fmt.Errorf("twilio: %w - code %d: %s",
			biderrors.ErrDeliveryFailed, exc.Code, exc.Message)
	}
	return DeliveryResult{Success: true, MessageID: resp.Sid}, nil
}

// Simulator is the terminal strategy: it logs the content and returns a
// synthetic success after a short artificial delay, keeping the demo
// visibly working with no provider at all.
type Simulator struct {
	out   io.Writer
	delay time.Duration
}

// NewSimulator creates the simulated channel writing to stdout.
func NewSimulator() *Simulator {
	return &Simulator{out: os.Stdout, delay: 300 * time.Millisecond}
}

// NewSimulatorWriter creates a simulator for tests.
func NewSimulatorWriter(w io.Writer, delay time.Duration) *Simulator {
	return &Simulator{out: w, delay: delay}
}

func (s *Simulator) Name() string { return "simulated" }

// Deliver logs the message and fabricates a message id.
func (s *Simulator) Deliver(ctx context.Context, to, body string) (DeliveryResult, error) {
	select {
	case <-ctx.Done():
		return DeliveryResult{}, ctx.Err()
	case <-time.After(s.delay):
	}

	fmt.Fprintf(s.out, "--- simulated WhatsApp to %s ---\n%s\n", to, body)
	return DeliveryResult{Success: true, MessageID: "sim-" + utils.GenerateID()}, nil
}
