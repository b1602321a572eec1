package eco

import (
	"context"
	"errors"

	"thriftgram/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Apply(ctx context.Context, userID, reference string, fn func(b *Balance) (*Entry, error)) (*Balance, *Entry, error) {
	var (
		balance *Balance
		entry   *Entry
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "eco_points", "eco_tier", "co2_saved", "water_saved").
			Where("id = ?", userID).
			Take(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if reference != "" {
			var count int64
			if err := tx.Model(&models.EcoPointsHistory{}).
				Where("user_id = ? AND reference = ?", userID, reference).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyApplied
			}
		}

		b := &Balance{
			UserID:     user.ID,
			Points:     user.EcoPoints,
			Tier:       user.EcoTier,
			CO2Saved:   user.CO2Saved,
			WaterSaved: user.WaterSaved,
		}
		e, err := fn(b)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"eco_points":  b.Points,
			"eco_tier":    b.Tier,
			"co2_saved":   b.CO2Saved,
			"water_saved": b.WaterSaved,
		}).Error; err != nil {
			return err
		}

		row := &models.EcoPointsHistory{
			UserID:      userID,
			Action:      string(e.Action),
			Points:      e.Points,
			Description: e.Description,
			Reference:   reference,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}

		e.ID = row.ID
		e.CreatedAt = row.CreatedAt
		balance, entry = b, e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return balance, entry, nil
}

func (r *gormRepository) History(ctx context.Context, userID string, limit, offset int) ([]*Entry, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.EcoPointsHistory{}).Where("user_id = ?", userID)

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.EcoPointsHistory
	if err := db.Session(&gorm.Session{}).Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*Entry, len(rows))
	for i := range rows {
		entries[i] = &Entry{
			ID:          rows[i].ID,
			UserID:      rows[i].UserID,
			Action:      Action(rows[i].Action),
			Points:      rows[i].Points,
			Description: rows[i].Description,
			Reference:   rows[i].Reference,
			CreatedAt:   rows[i].CreatedAt,
		}
	}
	return entries, total, nil
}
