package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"thriftgram/pkg/apperr"
	"thriftgram/services/order/internal/entity"
)

type memoryOrders struct {
	mu          sync.Mutex
	products    map[string]*entity.Product
	users       map[string]entity.Party
	orders      map[string]*entity.Order
	sold        map[string]int
	bought      map[string]int
	transitions int
	seq         int
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{
		products: map[string]*entity.Product{},
		users:    map[string]entity.Party{},
		orders:   map[string]*entity.Order{},
		sold:     map[string]int{},
		bought:   map[string]int{},
	}
}

func (r *memoryOrders) addUser(id, username, email string) {
	r.users[id] = entity.Party{ID: id, Username: username, Email: email}
}

func (r *memoryOrders) addProduct(p *entity.Product) {
	r.products[p.ID] = p
}

func (r *memoryOrders) GetProduct(ctx context.Context, itemID string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[itemID]
	if !ok {
		return nil, apperr.NotFound("Item not found")
	}
	out := *p
	return &out, nil
}

func (r *memoryOrders) Create(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	order.ID = fmt.Sprintf("order-%d", r.seq)
	order.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	stored := *order
	r.orders[order.ID] = &stored
	return nil
}

func (r *memoryOrders) detailed(o *entity.Order) *entity.Order {
	out := *o
	out.Buyer = r.users[o.Buyer.ID]
	out.Seller = r.users[o.Seller.ID]
	return &out
}

func (r *memoryOrders) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	return r.detailed(o), nil
}

func (r *memoryOrders) List(ctx context.Context, userID string, role entity.Role, limit, offset int) ([]*entity.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if (role == entity.RoleSeller && o.Seller.ID == userID) || (role == entity.RoleBuyer && o.Buyer.ID == userID) {
			out = append(out, r.detailed(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *memoryOrders) MarkPaid(ctx context.Context, refs []string) (*entity.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		for _, ref := range refs {
			if o.PaymentReference != ref && o.CheckoutSessionID != ref {
				continue
			}
			if o.Status != entity.StatusPending {
				return r.detailed(o), false, nil
			}
			o.Status = entity.StatusPaid
			r.products[o.Item.ID].IsSold = true
			r.sold[o.Seller.ID]++
			r.bought[o.Buyer.ID]++
			r.transitions++
			return r.detailed(o), true, nil
		}
	}
	return nil, false, apperr.NotFound("Order not found")
}

func (r *memoryOrders) UpdateStatus(ctx context.Context, id string, from, to entity.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return apperr.Conflict("Order status changed, reload and try again")
	}
	o.Status = to
	return nil
}

func (r *memoryOrders) status(id string) entity.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status
}

func (r *memoryOrders) setStatus(id string, s entity.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[id].Status = s
}

type memoryEvents struct {
	mu   sync.Mutex
	seen map[string]string
}

func (e *memoryEvents) Get(ctx context.Context, key string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.seen[key]
	return v, ok, nil
}

func (e *memoryEvents) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seen == nil {
		e.seen = map[string]string{}
	}
	e.seen[key] = value
	return nil
}
