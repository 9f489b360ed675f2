package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertOrdered checks that each fragment appears in buf after the
// previous one.
func assertOrdered(t *testing.T, buf []byte, fragments ...[]byte) {
	t.Helper()
	offset := 0
	for _, frag := range fragments {
		i := bytes.Index(buf[offset:], frag)
		require.GreaterOrEqual(t, i, 0, "fragment %q not found after offset %d", frag, offset)
		offset += i + len(frag)
	}
}

func TestRenderDeterministic(t *testing.T) {
	first, err := Render(validDocument())
	require.NoError(t, err)
	second, err := Render(validDocument())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderFraming(t *testing.T) {
	buf, err := Render(validDocument())
	require.NoError(t, err)

	assert.Equal(t, []byte{0x1B, 0x40}, buf[:2], "job starts with initialize")
	assert.Equal(t, []byte{0x1D, 0x56, 0x00}, buf[len(buf)-3:], "job ends with full cut")
}

func TestRenderEndToEnd(t *testing.T) {
	buf, err := Render(validDocument())
	require.NoError(t, err)

	assertOrdered(t, buf,
		[]byte{0x1B, 0x40},       // initialize
		[]byte{0x1B, 0x61, 0x01}, // center
		[]byte{0x1B, 0x21, 0x30}, // double size
		[]byte("Glow Salon\n"),
		[]byte{0x1B, 0x21, 0x00}, // back to normal
		[]byte{0x1B, 0x61, 0x00}, // left
		[]byte(strings.Repeat("-", 32) + "\n"),
		[]byte("Invoice: INV-1001\n"),
		[]byte("Date: 2024-01-15 14:30\n"),
		[]byte("Haircut\n"),
		[]byte("  1 x Rs 500.00 = Rs 500.00\n"),
		[]byte("Subtotal:               Rs 500.00\n"),
		[]byte("Tax (GST):              Rs 90.00\n"),
		[]byte{0x1B, 0x21, 0x08}, // bold
		[]byte("TOTAL:                  Rs 590.00\n"),
		[]byte{0x1B, 0x21, 0x00},
		[]byte("Payment: CASH\n"),
		[]byte("Paid:                   Rs 600.00\n"),
		[]byte("Change:                 Rs 10.00\n"),
		[]byte("Thank You! Visit Again\n"),
		[]byte{0x1D, 0x56, 0x00}, // cut
	)
}

func TestRenderDiscountLine(t *testing.T) {
	doc := validDocument()
	buf, err := Render(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(buf), "Discount:", "zero discount is omitted")

	doc = validDocument()
	doc.Discount = dec("5.00")
	doc.Total = dec("585.00")
	doc.Change = dec("15.00")
	buf, err = Render(doc)
	require.NoError(t, err)

	line := "Discount:" + strings.Repeat(" ", 15) + "Rs 5.00"
	assert.Equal(t, 1, strings.Count(string(buf), "Discount:"))
	assert.Contains(t, string(buf), line + "\n")
}

func TestRenderTaxLineOmittedWhenZero(t *testing.T) {
	doc := validDocument()
	doc.Tax = dec("0")
	doc.Total = dec("500.00")
	doc.Change = dec("100.00")
	buf, err := Render(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(buf), "Tax (GST):")
}

func TestRenderChangeLineOmittedWhenZero(t *testing.T) {
	doc := validDocument()
	doc.Paid = dec("590.00")
	doc.Change = dec("0")
	buf, err := Render(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(buf), "Change:")
}

func TestRenderOptionalHeaderLines(t *testing.T) {
	doc := validDocument()
	doc.Address = "12 MG Road, Pune"
	doc.Phone = "9800012345"
	doc.TaxID = "27AAAPL1234C1ZV"
	doc.ClientName = "Asha"
	doc.StaffName = "Meena"
	doc.Footer = "No refunds on services"

	buf, err := Render(doc)
	require.NoError(t, err)

	assertOrdered(t, buf,
		[]byte("Glow Salon\n"),
		[]byte("12 MG Road, Pune\n"),
		[]byte("Ph: 9800012345\n"),
		[]byte("GST: 27AAAPL1234C1ZV\n"),
		[]byte("Client: Asha\n"),
		[]byte("Staff: Meena\n"),
		[]byte("No refunds on services\n"),
		[]byte("Thank You! Visit Again\n"),
	)
}

func TestRenderEmptyItems(t *testing.T) {
	doc := validDocument()
	doc.Items = nil
	doc.Subtotal = dec("0")
	doc.Tax = dec("0")
	doc.Total = dec("0")
	doc.Paid = dec("0")
	doc.Change = dec("0")

	buf, err := Render(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(buf), " x Rs ")
}

func TestRenderInvalidDocumentProducesNoBytes(t *testing.T) {
	doc := validDocument()
	doc.Total = dec("591.00")

	buf, err := Render(doc)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.Nil(t, buf)
}

func TestRenderLineItemOrder(t *testing.T) {
	doc := validDocument()
	doc.Items = []LineItem{
		{Name: "Haircut", Quantity: 1, Price: dec("500.00"), Total: dec("500.00")},
		{Name: "Head Massage", Quantity: 2, Price: dec("150.00"), Total: dec("300.00")},
		{Name: "Shampoo", Quantity: 1, Price: dec("200.00"), Total: dec("200.00")},
	}
	doc.Subtotal = dec("1000.00")
	doc.Tax = dec("180.00")
	doc.Total = dec("1180.00")
	doc.Paid = dec("1200.00")
	doc.Change = dec("20.00")

	buf, err := Render(doc)
	require.NoError(t, err)

	assertOrdered(t, buf,
		[]byte("Haircut\n"),
		[]byte("  1 x Rs 500.00 = Rs 500.00\n"),
		[]byte("Head Massage\n"),
		[]byte("  2 x Rs 150.00 = Rs 300.00\n"),
		[]byte("Shampoo\n"),
		[]byte("  1 x Rs 200.00 = Rs 200.00\n"),
	)
}

func TestTestPage(t *testing.T) {
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	buf, err := TestPage(now)
	require.NoError(t, err)

	assert.Equal(t, []byte{0x1B, 0x40}, buf[:2])
	assert.Equal(t, []byte{0x1D, 0x56, 0x00}, buf[len(buf)-3:])
	assertOrdered(t, buf,
		[]byte("** PRINTER TEST **\n"),
		[]byte("Printer is working\n"),
		[]byte("Printed: 2024-01-15 14:30:00\n"),
	)
}

func TestDrawerPulse(t *testing.T) {
	assert.Equal(t, []byte{0x1B, 0x70, 0x00, 0x19, 0xFA}, DrawerPulse())
}
