package invoice

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	model "stockbid/internal/models"
)

func sampleInvoice() model.Invoice {
	return model.Invoice{
		BidID:        "bid-42",
		TraderName:   "Ravi Kumar",
		StockName:    "Reliance Industries",
		StockSymbol:  "RELIANCE",
		Side:         model.SideBuy,
		Quantity:     10,
		PricePerUnit: 151.00,
		ProfitLoss:   -10.00,
		Timestamp:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormat_ContainsContractFields(t *testing.T) {
	t.Parallel()

	text := Format(sampleInvoice())

	require.Contains(t, text, "Ravi Kumar")
	require.Contains(t, text, "Reliance Industries")
	require.Contains(t, text, "RELIANCE")
	require.Contains(t, text, "BUY")
	require.Contains(t, text, "Quantity : 10")
	require.Contains(t, text, "₹151.00 / unit")
	require.Contains(t, text, "₹1510.00")
	require.Contains(t, text, "-₹10.00")
	require.Contains(t, text, "bid-42")
}

func TestFormat_TimestampRenderedInIST(t *testing.T) {
	t.Parallel()

	// 12:00 UTC is 17:30 IST.
	text := Format(sampleInvoice())

	require.Contains(t, text, "05:30 PM IST")
	require.Contains(t, text, "01 Aug 2026")
}

func TestFormatProfitLoss_Sign(t *testing.T) {
	t.Parallel()

	require.Equal(t, "+₹10.00", FormatProfitLoss(10))
	require.Equal(t, "-₹10.00", FormatProfitLoss(-10))
	require.Equal(t, "+₹0.00", FormatProfitLoss(0))
}

func TestRenderLocal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	RenderLocal(&buf, sampleInvoice())

	require.Contains(t, buf.String(), "STOCK BID INVOICE")
	require.Contains(t, buf.String(), "Ravi Kumar")
}
