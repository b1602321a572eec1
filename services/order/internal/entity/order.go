package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status]Status{
	StatusPaid:    StatusShipped,
	StatusShipped: StatusDelivered,
	StatusPending: StatusCancelled,
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a seller may move an order from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	return transitions[s] == next
}

// Settled reports whether payment has been confirmed for the order.
func (s Status) Settled() bool {
	return s == StatusPaid || s == StatusShipped || s == StatusDelivered
}

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

type Party struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"-"`
}

type OrderItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
}

type Order struct {
	ID                string          `json:"id"`
	Status            Status          `json:"status"`
	Buyer             Party           `json:"buyer"`
	Seller            Party           `json:"seller"`
	Item              OrderItem       `json:"item"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaymentReference  string          `json:"-"`
	CheckoutSessionID string          `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Product is the purchasable view of an item at checkout time.
type Product struct {
	ID          string
	SellerID    string
	Title       string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	IsSold      bool
}

type Checkout struct {
	Order       *Order `json:"order"`
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}
