package invoice

import (
	"fmt"
	"io"
	"strings"
	"time"

	model "stockbid/internal/models"
)

// Invoices are rendered in Indian Standard Time regardless of server
// locale, matching the demo's fixed-locale contract.
var ist = time.FixedZone("IST", 5*3600+1800)

const timeLayout = "02 Jan 2006, 03:04 PM"

// Format renders the fixed-layout invoice text. The wording is presentation
// detail; the contract is the field set: trader name, stock symbol/name,
// side, quantity, unit price, total value, signed P&L and an IST timestamp.
func Format(inv model.Invoice) string {
	var sb strings.Builder

	sb.WriteString("*STOCK BID INVOICE*\n")
	sb.WriteString("----------------------------\n")
	fmt.Fprintf(&sb, "Trader   : %s\n", inv.TraderName)
	fmt.Fprintf(&sb, "Stock    : %s (%s)\n", inv.StockName, inv.StockSymbol)
	fmt.Fprintf(&sb, "Side     : %s\n", strings.ToUpper(string(inv.Side)))
	fmt.Fprintf(&sb, "Quantity : %d\n", inv.Quantity)
	fmt.Fprintf(&sb, "Price    : ₹%.2f / unit\n", inv.PricePerUnit)
	fmt.Fprintf(&sb, "Total    : ₹%.2f\n", inv.TotalValue())
	fmt.Fprintf(&sb, "P&L      : %s\n", FormatProfitLoss(inv.ProfitLoss))
	fmt.Fprintf(&sb, "Time     : %s IST\n", inv.Timestamp.In(ist).Format(timeLayout))
	fmt.Fprintf(&sb, "Bid ID   : %s\n", inv.BidID)

	return sb.String()
}

// FormatProfitLoss renders a signed rupee amount, sign before the symbol.
func FormatProfitLoss(pl float64) string {
	if pl < 0 {
		return fmt.Sprintf("-₹%.2f", -pl)
	}
	return fmt.Sprintf("+₹%.2f", pl)
}

// RenderLocal writes the invoice to the given writer. Used as the display
// fallback when the user has no registered phone number.
func RenderLocal(w io.Writer, inv model.Invoice) {
	fmt.Fprintln(w, Format(inv))
}
