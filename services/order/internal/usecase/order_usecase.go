package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/eco"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/mailer"
	"thriftgram/pkg/notify"
	"thriftgram/pkg/payment"
	"thriftgram/services/order/internal/entity"
	"thriftgram/services/order/internal/repo/persistent"
)

const processedEventTTL = 72 * time.Hour

type OrderUseCase interface {
	Checkout(ctx context.Context, buyerID, itemID string) (*entity.Checkout, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Confirm(ctx context.Context, refs ...string) (*entity.Order, error)
	ListOrders(ctx context.Context, userID string, role entity.Role, limit, offset int) ([]*entity.Order, int64, error)
	GetOrder(ctx context.Context, userID, orderID string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, sellerID, orderID string, status entity.Status) (*entity.Order, error)
}

// EventLog remembers webhook event ids that were processed successfully.
type EventLog interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Deps struct {
	Orders       persistent.OrderRepository
	Gateway      payment.Gateway
	Ledger       *eco.Ledger
	Notifier     *notify.Notifier
	Mailer       mailer.Sender
	Events       EventLog
	FrontendURL  string
	EmailTimeout time.Duration
	Logger       *logger.Logger
}

type orderUseCase struct {
	orders       persistent.OrderRepository
	gateway      payment.Gateway
	ledger       *eco.Ledger
	notifier     *notify.Notifier
	mailer       mailer.Sender
	events       EventLog
	frontendURL  string
	emailTimeout time.Duration
	logger       *logger.Logger
}

func NewOrderUseCase(deps Deps) OrderUseCase {
	if deps.EmailTimeout <= 0 {
		deps.EmailTimeout = 10 * time.Second
	}
	return &orderUseCase{
		orders:       deps.Orders,
		gateway:      deps.Gateway,
		ledger:       deps.Ledger,
		notifier:     deps.Notifier,
		mailer:       deps.Mailer,
		events:       deps.Events,
		frontendURL:  deps.FrontendURL,
		emailTimeout: deps.EmailTimeout,
		logger:       deps.Logger,
	}
}

func (uc *orderUseCase) Checkout(ctx context.Context, buyerID, itemID string) (*entity.Checkout, error) {
	if itemID == "" {
		return nil, apperr.Validation("item_id is required")
	}

	product, err := uc.orders.GetProduct(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if product.SellerID == buyerID {
		return nil, apperr.Validation("You cannot buy your own item")
	}
	if product.IsSold {
		return nil, apperr.Validation("Item is already sold")
	}

	session, err := uc.gateway.CreateCheckoutSession(ctx, payment.CheckoutItem{
		ItemID:      product.ID,
		Title:       product.Title,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Price:       product.Price,
	},
		uc.frontendURL+"/orders/success?session_id={CHECKOUT_SESSION_ID}",
		fmt.Sprintf("%s/items/%s", uc.frontendURL, product.ID),
	)
	if err != nil {
		uc.logger.Error("[ORDER] checkout session for item %s failed: %v", product.ID, err)
		return nil, apperr.External("create checkout session", err)
	}

	order := &entity.Order{
		Status:            entity.StatusPending,
		Buyer:             entity.Party{ID: buyerID},
		Seller:            entity.Party{ID: product.SellerID},
		Item:              entity.OrderItem{ID: product.ID, Title: product.Title, ImageURL: product.ImageURL},
		TotalAmount:       product.Price,
		PaymentReference:  session.PaymentReference(),
		CheckoutSessionID: session.ID,
	}
	if err := uc.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	uc.logger.Info("[ORDER] order %s pending for item %s (ref=%s)", order.ID, product.ID, order.PaymentReference)
	return &entity.Checkout{Order: order, CheckoutURL: session.URL, SessionID: session.ID}, nil
}

func (uc *orderUseCase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := uc.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		uc.logger.Warn("[ORDER] rejected webhook: %v", err)
		if errors.Is(err, payment.ErrInvalidPayload) {
			return apperr.Validation("Invalid webhook payload")
		}
		return apperr.Validation("Invalid webhook signature")
	}

	if evt.Type != payment.EventCheckoutCompleted {
		uc.logger.Debug("[ORDER] ignoring webhook event %s of type %s", evt.ID, evt.Type)
		return nil
	}

	key := "webhook:event:" + evt.ID
	if uc.events != nil && evt.ID != "" {
		if _, seen, err := uc.events.Get(ctx, key); err != nil {
			uc.logger.Warn("[ORDER] event log lookup failed for %s: %v", evt.ID, err)
		} else if seen {
			uc.logger.Info("[ORDER] webhook event %s already processed", evt.ID)
			return nil
		}
	}

	if _, err := uc.Confirm(ctx, evt.References()...); err != nil {
		return err
	}

	if uc.events != nil && evt.ID != "" {
		if err := uc.events.Set(ctx, key, "1", processedEventTTL); err != nil {
			uc.logger.Warn("[ORDER] failed to record webhook event %s: %v", evt.ID, err)
		}
	}
	return nil
}

// Confirm records payment for the order stored under refs. Unknown
// references are logged and return a nil order. The purchase award is
// re-applied on every delivery and deduplicated by the ledger; the
// notification and emails go out only on the PENDING to PAID transition.
func (uc *orderUseCase) Confirm(ctx context.Context, refs ...string) (*entity.Order, error) {
	order, transitioned, err := uc.orders.MarkPaid(ctx, refs)
	if apperr.Is(err, apperr.ErrNotFound) {
		uc.logger.Warn("[ORDER] no order found for payment reference %v", refs)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}

	if !order.Status.Settled() {
		uc.logger.Warn("[ORDER] payment confirmed for order %s in status %s", order.ID, order.Status)
		return order, nil
	}

	if transitioned {
		uc.logger.Info("[ORDER] order %s paid by %s", order.ID, order.Buyer.ID)
		if _, err := uc.notifier.OrderPlaced(ctx, order.Buyer.ID, order.Buyer.Username, order.Seller.ID, order.Item.Title); err != nil {
			uc.logger.Error("[ORDER] failed to notify seller of order %s: %v", order.ID, err)
		}
		uc.sendOrderEmails(ctx, order)
	} else {
		uc.logger.Info("[ORDER] order %s already %s", order.ID, order.Status)
	}

	if _, err := uc.ledger.AwardPurchase(ctx, order.Buyer.ID, order.ID, order.Item.Title); err != nil {
		return nil, fmt.Errorf("failed to award purchase points: %w", err)
	}
	return order, nil
}

func (uc *orderUseCase) sendOrderEmails(ctx context.Context, order *entity.Order) {
	details := mailer.OrderDetails{
		OrderID:   order.ID,
		ItemTitle: order.Item.Title,
		Total:     order.TotalAmount.StringFixed(2),
		Buyer:     mailer.Recipient{Username: order.Buyer.Username, Email: order.Buyer.Email},
		Seller:    mailer.Recipient{Username: order.Seller.Username, Email: order.Seller.Email},
	}

	for _, build := range []func(mailer.OrderDetails) (mailer.Email, error){mailer.OrderConfirmation, mailer.NewOrderNotice} {
		email, err := build(details)
		if err != nil {
			uc.logger.Error("[ORDER] failed to render email for order %s: %v", order.ID, err)
			continue
		}
		mailer.Deliver(ctx, uc.mailer, email, uc.emailTimeout, uc.logger)
	}
}

func (uc *orderUseCase) ListOrders(ctx context.Context, userID string, role entity.Role, limit, offset int) ([]*entity.Order, int64, error) {
	if role == "" {
		role = entity.RoleBuyer
	}
	if role != entity.RoleBuyer && role != entity.RoleSeller {
		return nil, 0, apperr.Validation("role must be buyer or seller")
	}
	return uc.orders.List(ctx, userID, role, limit, offset)
}

func (uc *orderUseCase) GetOrder(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Buyer.ID != userID && order.Seller.ID != userID {
		return nil, apperr.NotFound("Order not found")
	}
	return order, nil
}

func (uc *orderUseCase) UpdateStatus(ctx context.Context, sellerID, orderID string, status entity.Status) (*entity.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Invalid status %q", status)
	}

	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Seller.ID != sellerID {
		return nil, apperr.Forbidden("Only the seller can update this order")
	}
	if order.Status == status {
		return order, nil
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, apperr.Conflict("Cannot change order status from %s to %s", order.Status, status)
	}

	if err := uc.orders.UpdateStatus(ctx, order.ID, order.Status, status); err != nil {
		return nil, err
	}
	uc.logger.Info("[ORDER] order %s %s -> %s by seller %s", order.ID, order.Status, status, sellerID)

	return uc.orders.GetByID(ctx, order.ID)
}
