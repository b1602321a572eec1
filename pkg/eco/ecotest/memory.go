// Package ecotest provides an in-memory eco.Repository for tests.
package ecotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"thriftgram/pkg/eco"
	"thriftgram/pkg/models"
)

type Repository struct {
	mu       sync.Mutex
	balances map[string]*eco.Balance
	entries  []*eco.Entry
	seq      int
}

func NewRepository(userIDs ...string) *Repository {
	r := &Repository{balances: make(map[string]*eco.Balance)}
	for _, id := range userIDs {
		r.AddUser(id, 0)
	}
	return r
}

func (r *Repository) AddUser(userID string, points int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] = &eco.Balance{UserID: userID, Points: points, Tier: eco.TierFor(points)}
}

func (r *Repository) Apply(ctx context.Context, userID, reference string, fn func(b *eco.Balance) (*eco.Entry, error)) (*eco.Balance, *eco.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.balances[userID]
	if !ok {
		return nil, nil, eco.ErrUserNotFound
	}
	if reference != "" {
		for _, e := range r.entries {
			if e.UserID == userID && e.Reference == reference {
				return nil, nil, eco.ErrAlreadyApplied
			}
		}
	}

	working := *current
	entry, err := fn(&working)
	if err != nil {
		return nil, nil, err
	}

	r.seq++
	entry.ID = fmt.Sprintf("entry-%d", r.seq)
	entry.Reference = reference
	entry.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	r.entries = append(r.entries, entry)
	*current = working

	out := working
	return &out, entry, nil
}

func (r *Repository) History(ctx context.Context, userID string, limit, offset int) ([]*eco.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mine []*eco.Entry
	for _, e := range r.entries {
		if e.UserID == userID {
			mine = append(mine, e)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })

	total := int64(len(mine))
	if offset >= len(mine) {
		return []*eco.Entry{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

func (r *Repository) Balance(userID string) eco.Balance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.balances[userID]; ok {
		return *b
	}
	return eco.Balance{UserID: userID, Tier: models.TierBronze}
}

func (r *Repository) EntriesFor(userID string, action eco.Action) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.UserID == userID && e.Action == action {
			n++
		}
	}
	return n
}
