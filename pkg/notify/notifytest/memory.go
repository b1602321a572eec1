// Package notifytest provides in-memory notify collaborators for tests.
package notifytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/notify"
)

type Repository struct {
	mu    sync.Mutex
	items []*notify.Notification
	seq   int
}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Create(ctx context.Context, n *notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	n.ID = fmt.Sprintf("notification-%d", r.seq)
	n.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	stored := *n
	r.items = append(r.items, &stored)
	return nil
}

func (r *Repository) List(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*notify.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*notify.Notification
	for _, n := range r.items {
		if n.RecipientID == recipientID && (!unreadOnly || !n.Read) {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := int64(len(out))
	if offset >= len(out) {
		return []*notify.Notification{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *Repository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.RecipientID == recipientID && !item.Read {
			n++
		}
	}
	return n, nil
}

func (r *Repository) MarkRead(ctx context.Context, recipientID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == id && item.RecipientID == recipientID {
			item.Read = true
			return nil
		}
	}
	return apperr.NotFound("notification not found")
}

func (r *Repository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.RecipientID == recipientID && !item.Read {
			item.Read = true
			n++
		}
	}
	return n, nil
}

// For returns every stored notification addressed to recipientID.
func (r *Repository) For(recipientID string) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notification
	for _, item := range r.items {
		if item.RecipientID == recipientID {
			out = append(out, *item)
		}
	}
	return out
}

type Published struct {
	Channel string
	Payload []byte
}

// Publisher records published payloads and fails with Err when set.
type Publisher struct {
	mu   sync.Mutex
	Err  error
	sent []Published
}

func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.sent = append(p.sent, Published{Channel: channel, Payload: payload})
	return nil
}

func (p *Publisher) Sent() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.sent...)
}
