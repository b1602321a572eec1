// Package paymenttest provides a scriptable payment.Gateway.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	"thriftgram/pkg/payment"
)

type Gateway struct {
	mu sync.Mutex

	// CreateErr fails CreateCheckoutSession when set.
	CreateErr error
	// WithoutPaymentIntent makes sessions carry no payment intent.
	WithoutPaymentIntent bool
	// Events maps a signature to the event VerifyWebhook returns for it.
	Events map[string]*payment.Event
	// Rejections maps a signature to the error VerifyWebhook returns for it.
	Rejections map[string]error

	sessions []payment.CheckoutItem
}

func NewGateway() *Gateway {
	return &Gateway{Events: make(map[string]*payment.Event), Rejections: make(map[string]error)}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, item payment.CheckoutItem, successURL, cancelURL string) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.sessions = append(g.sessions, item)
	n := len(g.sessions)

	s := &payment.CheckoutSession{
		ID:  fmt.Sprintf("cs_test_%d", n),
		URL: fmt.Sprintf("https://checkout.example.com/pay/cs_test_%d", n),
	}
	if !g.WithoutPaymentIntent {
		s.PaymentIntent = fmt.Sprintf("pi_test_%d", n)
	}
	return s, nil
}

func (g *Gateway) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.Rejections[signature]; ok {
		return nil, err
	}
	evt, ok := g.Events[signature]
	if !ok {
		return nil, payment.ErrInvalidSignature
	}
	copied := *evt
	return &copied, nil
}

// Sign registers evt under a new signature and returns it.
func (g *Gateway) Sign(evt *payment.Event) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	sig := fmt.Sprintf("sig_%d", len(g.Events)+1)
	g.Events[sig] = evt
	return sig
}

// Reject registers a signature that VerifyWebhook fails with err.
func (g *Gateway) Reject(err error) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	sig := fmt.Sprintf("sig_rejected_%d", len(g.Rejections)+1)
	g.Rejections[sig] = err
	return sig
}

func (g *Gateway) Sessions() []payment.CheckoutItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]payment.CheckoutItem(nil), g.sessions...)
}
