// Package receipt turns a structured salon receipt into an ESC/POS print
// job. The layout is a fixed 32-column template; all monetary arithmetic
// uses decimals with a 0.01 rounding tolerance.
package receipt

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidDocument reports a document that violates the receipt
// invariants. Validation always runs before any bytes are produced.
var ErrInvalidDocument = errors.New("receipt: invalid document")

// tolerance covers float-sourced rounding drift in monetary identities.
var tolerance = decimal.New(1, -2) // 0.01

// LineItem is one billed service or product.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

// Document is the structured input for one receipt. It is constructed per
// print request, consumed once and never persisted here. Optional fields
// left empty are omitted from the printed receipt rather than blank-lined.
type Document struct {
	BusinessName string `json:"businessName"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
	TaxID        string `json:"taxId,omitempty"`

	InvoiceNumber string `json:"invoiceNumber"`
	Date          string `json:"date"`
	Time          string `json:"time"`

	ClientName  string `json:"clientName,omitempty"`
	ClientPhone string `json:"clientPhone,omitempty"`
	StaffName   string `json:"staffName,omitempty"`

	Items []LineItem `json:"items"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`

	PaymentMethod string          `json:"paymentMethod"`
	Paid          decimal.Decimal `json:"paid"`
	Change        decimal.Decimal `json:"change"`

	Footer string `json:"footer,omitempty"`
}

// Validate checks every document invariant. An empty items list is legal.
func (d *Document) Validate() error {
	if d.BusinessName == "" {
		return fmt.Errorf("%w: business name is required", ErrInvalidDocument)
	}
	if d.InvoiceNumber == "" {
		return fmt.Errorf("%w: invoice number is required", ErrInvalidDocument)
	}
	if d.PaymentMethod == "" {
		return fmt.Errorf("%w: payment method is required", ErrInvalidDocument)
	}

	for i, it := range d.Items {
		if it.Name == "" {
			return fmt.Errorf("%w: item %d has no name", ErrInvalidDocument, i)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %q quantity %d", ErrInvalidDocument, it.Name, it.Quantity)
		}
		if it.Price.IsNegative() || it.Total.IsNegative() {
			return fmt.Errorf("%w: item %q has a negative amount", ErrInvalidDocument, it.Name)
		}
		lineTotal := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		if lineTotal.Sub(it.Total).Abs().GreaterThan(tolerance) {
			return fmt.Errorf("%w: item %q total %s != %d x %s",
				ErrInvalidDocument, it.Name, it.Total, it.Quantity, it.Price)
		}
	}

	for _, amt := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"subtotal", d.Subtotal},
		{"discount", d.Discount},
		{"tax", d.Tax},
		{"total", d.Total},
		{"paid", d.Paid},
		{"change", d.Change},
	} {
		if amt.value.IsNegative() {
			return fmt.Errorf("%w: negative %s %s", ErrInvalidDocument, amt.name, amt.value)
		}
	}

	// total = subtotal - discount + tax
	expected := d.Subtotal.Sub(d.Discount).Add(d.Tax)
	if expected.Sub(d.Total).Abs().GreaterThan(tolerance) {
		return fmt.Errorf("%w: total %s, expected %s", ErrInvalidDocument, d.Total, expected)
	}

	// change = max(0, paid - total)
	expectedChange := d.Paid.Sub(d.Total)
	if expectedChange.IsNegative() {
		expectedChange = decimal.Zero
	}
	if expectedChange.Sub(d.Change).Abs().GreaterThan(tolerance) {
		return fmt.Errorf("%w: change %s, expected %s", ErrInvalidDocument, d.Change, expectedChange)
	}

	return nil
}
