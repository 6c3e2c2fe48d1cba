package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sfreiberg/gotwilio"
	"github.com/stretchr/testify/require"

	"stockbid/internal/biderrors"
)

type stubStrategy struct {
	name   string
	result DeliveryResult
	err    error
	calls  int
	gotTo  string
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Deliver(_ context.Context, to, _ string) (DeliveryResult, error) {
	s.calls++
	s.gotTo = to
	return s.result, s.err
}

func TestDispatcher_FirstSuccessWins(t *testing.T) {
	t.Parallel()

	first := &stubStrategy{name: "first", result: DeliveryResult{Success: true, MessageID: "m1"}}
	second := &stubStrategy{name: "second", result: DeliveryResult{Success: true, MessageID: "m2"}}

	d := NewDispatcher(first, second)
	res, err := d.Dispatch(context.Background(), "9876543210", "hello")

	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "m1", res.MessageID)
	require.Equal(t, "first", res.Channel)
	require.Equal(t, 1, first.calls)
	require.Zero(t, second.calls)
}

func TestDispatcher_FallsThroughOnFailure(t *testing.T) {
	t.Parallel()

	failing := &stubStrategy{name: "relay", err: errors.New("connection refused")}
	fallback := &stubStrategy{name: "simulated", result: DeliveryResult{Success: true, MessageID: "sim-1"}}

	d := NewDispatcher(failing, fallback)
	res, err := d.Dispatch(context.Background(), "9876543210", "hello")

	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "simulated", res.Channel)
	require.Equal(t, 1, failing.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestDispatcher_AllStrategiesFail(t *testing.T) {
	t.Parallel()

	a := &stubStrategy{name: "a", err: errors.New("down")}
	b := &stubStrategy{name: "b", err: errors.New("also down")}

	d := NewDispatcher(a, b)
	res, err := d.Dispatch(context.Background(), "9876543210", "hello")

	require.Error(t, err)
	require.False(t, res.Success)
}

func TestDispatcher_InvalidPhoneRejectedBeforeAnyAttempt(t *testing.T) {
	t.Parallel()

	s := &stubStrategy{name: "relay", result: DeliveryResult{Success: true}}
	d := NewDispatcher(s)

	_, err := d.Dispatch(context.Background(), "12345", "hello")

	require.Error(t, err)
	require.True(t, errors.Is(err, biderrors.ErrInvalidPhone))
	require.Zero(t, s.calls, "no network attempt for an invalid number")
}

func TestDispatcher_NormalizesDestination(t *testing.T) {
	t.Parallel()

	s := &stubStrategy{name: "relay", result: DeliveryResult{Success: true}}
	d := NewDispatcher(s)

	_, err := d.Dispatch(context.Background(), "98765 43210", "hello")

	require.NoError(t, err)
	require.Equal(t, "+919876543210", s.gotTo)
}

func TestRelayClient_Deliver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		response    any
		wantSuccess bool
	}{
		{
			name:        "accepted",
			status:      http.StatusAccepted,
			response:    map[string]any{"success": true, "messageId": "SM123"},
			wantSuccess: true,
		},
		{
			name:        "provider_error",
			status:      http.StatusInternalServerError,
			response:    map[string]any{"success": false, "error": "auth failed", "code": "auth-failed"},
			wantSuccess: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/api/send-whatsapp", r.URL.Path)

				var body relaySendRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				require.Equal(t, "+919876543210", body.To)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(tc.response)
			}))
			defer srv.Close()

			client := NewRelayClient(srv.URL)
			res, err := client.Deliver(context.Background(), "+919876543210", "invoice text")

			if tc.wantSuccess {
				require.NoError(t, err)
				require.True(t, res.Success)
				require.Equal(t, "SM123", res.MessageID)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestRelayClient_Unreachable(t *testing.T) {
	t.Parallel()

	client := NewRelayClient("http://127.0.0.1:1") // nothing listens here

	_, err := client.Deliver(context.Background(), "+919876543210", "invoice text")
	require.Error(t, err)
}

type fakeWhatsAppSender struct {
	resp *gotwilio.SmsResponse
	exc  *gotwilio.Exception
	err  error
}

func (f *fakeWhatsAppSender) SendWhatsApp(_, _, _, _, _ string) (*gotwilio.SmsResponse, *gotwilio.Exception, error) {
	return f.resp, f.exc, f.err
}

func TestTwilioDirect_Deliver(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		td := &TwilioDirect{
			sender: &fakeWhatsAppSender{resp: &gotwilio.SmsResponse{Sid: "SM42", Status: "queued"}},
			from:   "+14155238886",
		}

		res, err := td.Deliver(context.Background(), "+919876543210", "invoice text")
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Equal(t, "SM42", res.MessageID)
	})

	t.Run("provider_exception", func(t *testing.T) {
		t.Parallel()

		td := &TwilioDirect{
			sender: &fakeWhatsAppSender{exc: &gotwilio.Exception{Code: 63007, Message: "channel not found"}},
			from:   "+14155238886",
		}

		_, err := td.Deliver(context.Background(), "+919876543210", "invoice text")
		require.Error(t, err)
		require.ErrorIs(t, err, biderrors.ErrDeliveryFailed)
	})
}

func TestSimulator_Deliver(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sim := NewSimulatorWriter(&buf, time.Millisecond)

	res, err := sim.Deliver(context.Background(), "+919876543210", "invoice text")

	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, strings.HasPrefix(res.MessageID, "sim-"))
	require.Contains(t, buf.String(), "+919876543210")
	require.Contains(t, buf.String(), "invoice text")
}

func TestSimulator_RespectsContextCancel(t *testing.T) {
	t.Parallel()

	sim := NewSimulatorWriter(&bytes.Buffer{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Deliver(ctx, "+919876543210", "invoice text")
	require.ErrorIs(t, err, context.Canceled)
}
