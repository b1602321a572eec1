package eco

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thriftgram/pkg/logger"
)

var (
	// ErrAlreadyApplied is returned by a Repository when the reference has
	// already been recorded for the user.
	ErrAlreadyApplied = errors.New("eco award already applied")
	ErrUserNotFound   = errors.New("user not found")
)

type Balance struct {
	UserID     string  `json:"user_id"`
	Points     int     `json:"eco_points"`
	Tier       Tier    `json:"eco_tier"`
	CO2Saved   float64 `json:"co2_saved"`
	WaterSaved float64 `json:"water_saved"`
}

type Entry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Action      Action    `json:"action"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	Reference   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository persists balances and history. Apply must hold an exclusive
// lock on the user's balance for the whole read-modify-write and store the
// mutated balance and the returned entry atomically.
type Repository interface {
	Apply(ctx context.Context, userID, reference string, fn func(b *Balance) (*Entry, error)) (*Balance, *Entry, error)
	History(ctx context.Context, userID string, limit, offset int) ([]*Entry, int64, error)
}

type AwardRequest struct {
	UserID      string
	Action      Action
	Impact      Impact
	Description string
	// Reference makes the award idempotent; an empty reference never dedups.
	Reference string
}

type Result struct {
	Balance *Balance
	Entry   *Entry
	Applied bool
}

type Ledger struct {
	repo   Repository
	logger *logger.Logger
}

func NewLedger(repo Repository, logger *logger.Logger) *Ledger {
	return &Ledger{repo: repo, logger: logger}
}

func (l *Ledger) Award(ctx context.Context, req AwardRequest) (*Result, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("award %s: empty user id", req.Action)
	}

	balance, entry, err := l.repo.Apply(ctx, req.UserID, req.Reference, func(b *Balance) (*Entry, error) {
		b.Points += req.Impact.Points
		if b.Points < 0 {
			b.Points = 0
		}
		b.CO2Saved += req.Impact.CO2SavedKg
		b.WaterSaved += req.Impact.WaterSavedLiters
		b.Tier = TierFor(b.Points)

		return &Entry{
			UserID:      req.UserID,
			Action:      req.Action,
			Points:      req.Impact.Points,
			Description: req.Description,
			Reference:   req.Reference,
		}, nil
	})
	if errors.Is(err, ErrAlreadyApplied) {
		l.logger.Info("[ECO] award %s for user %s already applied (ref=%s)", req.Action, req.UserID, req.Reference)
		return &Result{Applied: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("award %s to user %s: %w", req.Action, req.UserID, err)
	}

	l.logger.Info("[ECO] user %s +%d points for %s, total=%d tier=%s", req.UserID, req.Impact.Points, req.Action, balance.Points, balance.Tier)
	return &Result{Balance: balance, Entry: entry, Applied: true}, nil
}

func (l *Ledger) AwardListing(ctx context.Context, sellerID, itemID, title, category string) (*Result, error) {
	return l.Award(ctx, AwardRequest{
		UserID:      sellerID,
		Action:      ActionItemListed,
		Impact:      CalculateImpact(category),
		Description: fmt.Sprintf("Listed: %s", title),
		Reference:   fmt.Sprintf("item:%s:listed", itemID),
	})
}

func (l *Ledger) AwardPurchase(ctx context.Context, buyerID, orderID, title string) (*Result, error) {
	return l.Award(ctx, AwardRequest{
		UserID:      buyerID,
		Action:      ActionItemPurchased,
		Impact:      Impact{Points: PurchasePoints},
		Description: fmt.Sprintf("Purchased: %s", title),
		Reference:   fmt.Sprintf("order:%s:PAID", orderID),
	})
}

func (l *Ledger) AwardProfileCompletion(ctx context.Context, userID string) (*Result, error) {
	return l.Award(ctx, AwardRequest{
		UserID:      userID,
		Action:      ActionProfileCompleted,
		Impact:      Impact{Points: ProfileCompletionPoints},
		Description: "Profile completed",
		Reference:   "profile:completed",
	})
}

func (l *Ledger) History(ctx context.Context, userID string, limit, offset int) ([]*Entry, int64, error) {
	return l.repo.History(ctx, userID, limit, offset)
}
