package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonkit/thermal-print-server/escpos"
)

// Paper geometry for 80mm thermal paper in the standard font.
const (
	paperWidth  = 32
	amountStart = 24 // column where the amount field begins on total lines
)

var separator = strings.Repeat("-", paperWidth)

// rs renders a monetary amount with the fixed "Rs" token and exactly two
// decimals. Not locale-aware.
func rs(d decimal.Decimal) string {
	return "Rs " + d.StringFixed(2)
}

// amountLine pads the label so the amount column lines up down the totals
// block.
func amountLine(label string, d decimal.Decimal) string {
	return fmt.Sprintf("%-*s%s", amountStart, label, rs(d))
}

// Render expands a document into one complete print job: initialize
// first, full cut last. The line order is the physical receipt layout and
// must not be reordered. Validation failures return before a single byte
// is produced.
func Render(doc *Document) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	b := escpos.NewBuilder().Initialize()

	// Header: business identity, centered.
	b.Align(escpos.AlignCenter).
		Style(escpos.StyleDoubleSize).
		Line(doc.BusinessName).
		Style(escpos.StyleNormal)
	if doc.Address != "" {
		b.Line(doc.Address)
	}
	if doc.Phone != "" {
		b.Line("Ph: " + doc.Phone)
	}
	if doc.TaxID != "" {
		b.Line("GST: " + doc.TaxID)
	}
	b.Feed(1)

	// Invoice metadata.
	b.Align(escpos.AlignLeft).
		Line(separator).
		Line("Invoice: " + doc.InvoiceNumber).
		Line(fmt.Sprintf("Date: %s %s", doc.Date, doc.Time))
	if doc.ClientName != "" {
		b.Line("Client: " + doc.ClientName)
	}
	if doc.ClientPhone != "" {
		b.Line("Ph: " + doc.ClientPhone)
	}
	if doc.StaffName != "" {
		b.Line("Staff: " + doc.StaffName)
	}
	b.Line(separator)

	// Line items, document order.
	for _, it := range doc.Items {
		b.Line(it.Name)
		b.Line(fmt.Sprintf("  %d x %s = %s", it.Quantity, rs(it.Price), rs(it.Total)))
	}
	b.Line(separator)

	// Totals block. Zero discount/tax lines are omitted, not zero-printed.
	b.Line(amountLine("Subtotal:", doc.Subtotal))
	if doc.Discount.IsPositive() {
		b.Line(amountLine("Discount:", doc.Discount))
	}
	if doc.Tax.IsPositive() {
		b.Line(amountLine("Tax (GST):", doc.Tax))
	}
	b.Line(separator)

	b.Style(escpos.StyleBold).
		Line(amountLine("TOTAL:", doc.Total)).
		Style(escpos.StyleNormal).
		Line(separator)

	// Payment.
	b.Line("Payment: " + doc.PaymentMethod)
	b.Line(amountLine("Paid:", doc.Paid))
	if doc.Change.IsPositive() {
		b.Line(amountLine("Change:", doc.Change))
	}

	// Footer.
	b.Feed(1).Align(escpos.AlignCenter)
	if doc.Footer != "" {
		b.Line(doc.Footer)
	}
	b.Line("Thank You! Visit Again").Feed(2)

	b.Cut()
	return b.Bytes()
}

// TestPage builds the fixed connectivity test job. Self-contained: it
// initializes and cuts like a receipt but bypasses the layout template.
func TestPage(now time.Time) ([]byte, error) {
	return escpos.NewBuilder().
		Initialize().
		Align(escpos.AlignCenter).
		Line("** PRINTER TEST **").
		Line("Printer is working").
		Line("Printed: " + now.Format("2006-01-02 15:04:05")).
		Feed(2).
		Cut().
		Bytes()
}

// DrawerPulse is the standalone cash-drawer action: the bare 5-byte kick,
// no initialize, no cut.
func DrawerPulse() []byte {
	return escpos.DrawerKick()
}
