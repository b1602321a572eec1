// Package payment talks to the card processor: it opens hosted checkout
// sessions and verifies the webhooks that confirm them.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

const EventCheckoutCompleted = "checkout.session.completed"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrInvalidPayload marks a correctly signed event whose body could not be decoded.
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

type CheckoutItem struct {
	ItemID      string
	Title       string
	Description string
	ImageURL    string
	Price       decimal.Decimal
}

type CheckoutSession struct {
	ID            string
	URL           string
	PaymentIntent string
}

// PaymentReference identifies the payment across checkout and webhook:
// the payment intent when the processor has created one, the session id
// otherwise.
func (s CheckoutSession) PaymentReference() string {
	if s.PaymentIntent != "" {
		return s.PaymentIntent
	}
	return s.ID
}

type Event struct {
	ID            string
	Type          string
	SessionID     string
	PaymentIntent string
	ItemID        string
}

// References lists the identifiers an order may have been stored under.
func (e Event) References() []string {
	refs := make([]string, 0, 2)
	if e.PaymentIntent != "" {
		refs = append(refs, e.PaymentIntent)
	}
	if e.SessionID != "" && e.SessionID != e.PaymentIntent {
		refs = append(refs, e.SessionID)
	}
	return refs
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, item CheckoutItem, successURL, cancelURL string) (*CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}

// ToCents converts a decimal amount to the smallest currency unit.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
