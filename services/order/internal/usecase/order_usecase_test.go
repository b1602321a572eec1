package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/eco"
	"thriftgram/pkg/eco/ecotest"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/mailer/mailertest"
	"thriftgram/pkg/models"
	"thriftgram/pkg/notify"
	"thriftgram/pkg/notify/notifytest"
	"thriftgram/pkg/payment"
	"thriftgram/pkg/payment/paymenttest"
	"thriftgram/services/order/internal/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sellerID = "seller-1"
	buyerID  = "buyer-1"
	itemID   = "item-1"
)

type orderFixture struct {
	uc      OrderUseCase
	orders  *memoryOrders
	gateway *paymenttest.Gateway
	ledger  *ecotest.Repository
	notes   *notifytest.Repository
	mail    *mailertest.Sender
	events  *memoryEvents
}

func newOrderFixture(t *testing.T, withEventLog bool) *orderFixture {
	t.Helper()
	log := logger.New()

	f := &orderFixture{
		orders:  newMemoryOrders(),
		gateway: paymenttest.NewGateway(),
		ledger:  ecotest.NewRepository(sellerID, buyerID),
		notes:   notifytest.NewRepository(),
		mail:    &mailertest.Sender{},
	}
	f.orders.addUser(sellerID, "alice", "alice@example.com")
	f.orders.addUser(buyerID, "bob", "bob@example.com")
	f.orders.addProduct(&entity.Product{
		ID:       itemID,
		SellerID: sellerID,
		Title:    "Denim jacket",
		Price:    decimal.RequireFromString("45.00"),
	})

	deps := Deps{
		Orders:       f.orders,
		Gateway:      f.gateway,
		Ledger:       eco.NewLedger(f.ledger, log),
		Notifier:     notify.NewNotifier(f.notes, nil, time.Second, log),
		Mailer:       f.mail,
		FrontendURL:  "http://localhost:3000",
		EmailTimeout: time.Second,
		Logger:       log,
	}
	if withEventLog {
		f.events = &memoryEvents{}
		deps.Events = f.events
	}
	f.uc = NewOrderUseCase(deps)
	return f
}

func (f *orderFixture) checkout(t *testing.T) *entity.Checkout {
	t.Helper()
	co, err := f.uc.Checkout(context.Background(), buyerID, itemID)
	require.NoError(t, err)
	return co
}

func (f *orderFixture) completed(co *entity.Checkout, eventID string) string {
	return f.gateway.Sign(&payment.Event{
		ID:            eventID,
		Type:          payment.EventCheckoutCompleted,
		SessionID:     co.SessionID,
		PaymentIntent: co.Order.PaymentReference,
		ItemID:        itemID,
	})
}

func TestCheckout_CreatesPendingOrder(t *testing.T) {
	f := newOrderFixture(t, false)

	co := f.checkout(t)

	assert.Equal(t, entity.StatusPending, co.Order.Status)
	assert.Equal(t, "pi_test_1", co.Order.PaymentReference)
	assert.Equal(t, "cs_test_1", co.SessionID)
	assert.NotEmpty(t, co.CheckoutURL)
	assert.True(t, co.Order.TotalAmount.Equal(decimal.RequireFromString("45.00")))
	assert.Equal(t, entity.StatusPending, f.orders.status(co.Order.ID))
	assert.Empty(t, f.notes.For(sellerID))
	assert.Empty(t, f.mail.Sent())
}

func TestCheckout_ReferenceFallsBackToSessionID(t *testing.T) {
	f := newOrderFixture(t, false)
	f.gateway.WithoutPaymentIntent = true

	co := f.checkout(t)

	assert.Equal(t, "cs_test_1", co.Order.PaymentReference)
}

func TestCheckout_Rejections(t *testing.T) {
	f := newOrderFixture(t, false)

	_, err := f.uc.Checkout(context.Background(), sellerID, itemID)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	_, err = f.uc.Checkout(context.Background(), buyerID, "missing")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))

	f.orders.products[itemID].IsSold = true
	_, err = f.uc.Checkout(context.Background(), buyerID, itemID)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	assert.Empty(t, f.gateway.Sessions())
}

func TestCheckout_GatewayFailure(t *testing.T) {
	f := newOrderFixture(t, false)

	f.gateway.CreateErr = errors.New("card processor unavailable")
	_, err := f.uc.Checkout(context.Background(), buyerID, itemID)
	assert.True(t, apperr.Is(err, apperr.ErrExternal))

	f.gateway.CreateErr = context.DeadlineExceeded
	_, err = f.uc.Checkout(context.Background(), buyerID, itemID)
	assert.True(t, apperr.Is(err, apperr.ErrTimeout))

	assert.Empty(t, f.orders.orders)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	f := newOrderFixture(t, false)
	co := f.checkout(t)

	err := f.uc.HandleWebhook(context.Background(), []byte(`{}`), "forged")

	assert.True(t, apperr.Is(err, apperr.ErrValidation))
	assert.Equal(t, entity.StatusPending, f.orders.status(co.Order.ID))
}

func TestHandleWebhook_InvalidPayloadIsReportedSeparately(t *testing.T) {
	f := newOrderFixture(t, false)
	co := f.checkout(t)

	err := f.uc.HandleWebhook(context.Background(), []byte(`{}`), "forged")
	assert.Equal(t, "Invalid webhook signature", apperr.PublicMessage(err))

	sig := f.gateway.Reject(fmt.Errorf("%w: decode checkout session", payment.ErrInvalidPayload))
	err = f.uc.HandleWebhook(context.Background(), []byte(`{}`), sig)

	assert.True(t, apperr.Is(err, apperr.ErrValidation))
	assert.Equal(t, "Invalid webhook payload", apperr.PublicMessage(err))
	assert.Equal(t, entity.StatusPending, f.orders.status(co.Order.ID))
}

func TestHandleWebhook_UnknownReference(t *testing.T) {
	f := newOrderFixture(t, false)
	co := f.checkout(t)

	sig := f.gateway.Sign(&payment.Event{ID: "evt_x", Type: payment.EventCheckoutCompleted, SessionID: "cs_other", PaymentIntent: "pi_other"})
	err := f.uc.HandleWebhook(context.Background(), []byte(`{}`), sig)

	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, f.orders.status(co.Order.ID))
	assert.False(t, f.orders.products[itemID].IsSold)
	assert.Equal(t, 0, f.ledger.EntriesFor(buyerID, eco.ActionItemPurchased))
}

func TestHandleWebhook_IgnoresOtherEventTypes(t *testing.T) {
	f := newOrderFixture(t, false)
	co := f.checkout(t)

	sig := f.gateway.Sign(&payment.Event{ID: "evt_2", Type: "payment_intent.created", PaymentIntent: co.Order.PaymentReference})
	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte(`{}`), sig))

	assert.Equal(t, entity.StatusPending, f.orders.status(co.Order.ID))
}

func TestHandleWebhook_MatchesSessionID(t *testing.T) {
	f := newOrderFixture(t, false)
	co := f.checkout(t)

	sig := f.gateway.Sign(&payment.Event{ID: "evt_3", Type: payment.EventCheckoutCompleted, SessionID: co.SessionID})
	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte(`{}`), sig))

	assert.Equal(t, entity.StatusPaid, f.orders.status(co.Order.ID))
}

func TestHandleWebhook_ConcurrentDeliveries(t *testing.T) {
	f := newOrderFixture(t, false)
	co := f.checkout(t)
	sig := f.completed(co, "evt_1")

	const deliveries = 16
	var wg sync.WaitGroup
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.uc.HandleWebhook(context.Background(), []byte(`{}`), sig)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.orders.transitions)
	assert.Equal(t, 1, f.orders.sold[sellerID])
	assert.Equal(t, 1, f.orders.bought[buyerID])
	assert.Equal(t, 1, f.ledger.EntriesFor(buyerID, eco.ActionItemPurchased))
	assert.Equal(t, eco.PurchasePoints, f.ledger.Balance(buyerID).Points)
	assert.Len(t, f.notes.For(sellerID), 1)
	assert.Len(t, f.mail.To("bob@example.com"), 1)
	assert.Len(t, f.mail.To("alice@example.com"), 1)
}

func TestHandleWebhook_EventLogSkipsProcessedEvents(t *testing.T) {
	f := newOrderFixture(t, true)
	co := f.checkout(t)
	sig := f.completed(co, "evt_1")

	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte(`{}`), sig))
	_, seen, _ := f.events.Get(context.Background(), "webhook:event:evt_1")
	assert.True(t, seen)

	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte(`{}`), sig))
	assert.Equal(t, 1, f.orders.transitions)
	assert.Equal(t, eco.PurchasePoints, f.ledger.Balance(buyerID).Points)
}

func TestHandleWebhook_RedeliveryHealsMissingAward(t *testing.T) {
	f := newOrderFixture(t, true)
	f.ledger = ecotest.NewRepository(sellerID)
	log := logger.New()
	f.uc = NewOrderUseCase(Deps{
		Orders:   f.orders,
		Gateway:  f.gateway,
		Ledger:   eco.NewLedger(f.ledger, log),
		Notifier: notify.NewNotifier(f.notes, nil, time.Second, log),
		Mailer:   f.mail,
		Events:   f.events,
		Logger:   log,
	})
	co := f.checkout(t)
	sig := f.completed(co, "evt_1")

	err := f.uc.HandleWebhook(context.Background(), []byte(`{}`), sig)
	require.Error(t, err)
	assert.Equal(t, entity.StatusPaid, f.orders.status(co.Order.ID))
	_, seen, _ := f.events.Get(context.Background(), "webhook:event:evt_1")
	assert.False(t, seen)

	f.ledger.AddUser(buyerID, 0)
	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte(`{}`), sig))

	assert.Equal(t, 1, f.orders.transitions)
	assert.Equal(t, eco.PurchasePoints, f.ledger.Balance(buyerID).Points)
	assert.Len(t, f.notes.For(sellerID), 1)
}

func TestPurchaseScenario(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()
	ledger := eco.NewLedger(f.ledger, logger.New())

	listed, err := ledger.AwardListing(ctx, sellerID, itemID, "Denim jacket", "clothing")
	require.NoError(t, err)
	require.True(t, listed.Applied)
	sellerPoints := f.ledger.Balance(sellerID).Points

	co := f.checkout(t)
	require.NoError(t, f.uc.HandleWebhook(ctx, []byte(`{}`), f.completed(co, "evt_1")))

	order, err := f.uc.GetOrder(ctx, buyerID, co.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, order.Status)
	assert.True(t, f.orders.products[itemID].IsSold)

	buyer := f.ledger.Balance(buyerID)
	assert.Equal(t, 20, buyer.Points)
	assert.Equal(t, models.TierBronze, buyer.Tier)
	assert.Equal(t, sellerPoints, f.ledger.Balance(sellerID).Points)

	require.Len(t, f.mail.To("bob@example.com"), 1)
	require.Len(t, f.mail.To("alice@example.com"), 1)
	assert.Contains(t, f.mail.To("bob@example.com")[0].Subject, "Order Confirmation")
	assert.Contains(t, f.mail.To("alice@example.com")[0].Text, "45.00")
}

func TestUpdateStatus_Transitions(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()
	co := f.checkout(t)
	id := co.Order.ID

	_, err := f.uc.UpdateStatus(ctx, sellerID, id, entity.StatusShipped)
	assert.True(t, apperr.Is(err, apperr.ErrConflict), "cannot ship before payment")

	f.orders.setStatus(id, entity.StatusPaid)

	_, err = f.uc.UpdateStatus(ctx, buyerID, id, entity.StatusShipped)
	assert.True(t, apperr.Is(err, apperr.ErrForbidden))

	order, err := f.uc.UpdateStatus(ctx, sellerID, id, entity.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShipped, order.Status)

	order, err = f.uc.UpdateStatus(ctx, sellerID, id, entity.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShipped, order.Status)

	_, err = f.uc.UpdateStatus(ctx, sellerID, id, entity.StatusPaid)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	order, err = f.uc.UpdateStatus(ctx, sellerID, id, entity.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDelivered, order.Status)

	_, err = f.uc.UpdateStatus(ctx, sellerID, id, entity.StatusCancelled)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	_, err = f.uc.UpdateStatus(ctx, sellerID, id, entity.Status("LOST"))
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}

func TestUpdateStatus_CancelPending(t *testing.T) {
	f := newOrderFixture(t, false)
	co := f.checkout(t)

	order, err := f.uc.UpdateStatus(context.Background(), sellerID, co.Order.ID, entity.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, order.Status)

	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte(`{}`), f.completed(co, "evt_late")))
	assert.Equal(t, entity.StatusCancelled, f.orders.status(co.Order.ID))
	assert.Equal(t, 0, f.ledger.EntriesFor(buyerID, eco.ActionItemPurchased))
}

func TestGetOrder_HiddenFromStrangers(t *testing.T) {
	f := newOrderFixture(t, false)
	co := f.checkout(t)

	_, err := f.uc.GetOrder(context.Background(), "someone-else", co.Order.ID)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))

	order, err := f.uc.GetOrder(context.Background(), sellerID, co.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", order.Buyer.Username)
}

func TestListOrders_ByRole(t *testing.T) {
	f := newOrderFixture(t, false)
	f.checkout(t)
	ctx := context.Background()

	mine, total, err := f.uc.ListOrders(ctx, buyerID, "", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, mine, 1)

	sales, _, err := f.uc.ListOrders(ctx, sellerID, entity.RoleSeller, 50, 0)
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	_, _, err = f.uc.ListOrders(ctx, buyerID, entity.Role("admin"), 50, 0)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}
