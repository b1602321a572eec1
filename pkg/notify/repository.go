package notify

import (
	"context"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/models"

	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, n *Notification) error {
	row := &models.Notification{
		RecipientID: n.RecipientID,
		Type:        string(n.Type),
		Message:     n.Message,
	}
	if n.SenderID != "" {
		sender := n.SenderID
		row.SenderID = &sender
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	*n = *toNotification(row)
	return nil
}

func (r *gormRepository) List(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*Notification, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		db = db.Where("read = ?", false)
	}

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Notification
	if err := db.Session(&gorm.Session{}).Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*Notification, len(rows))
	for i := range rows {
		out[i] = toNotification(&rows[i])
	}
	return out, total, nil
}

func (r *gormRepository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (r *gormRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func toNotification(m *models.Notification) *Notification {
	n := &Notification{
		ID:          m.ID,
		RecipientID: m.RecipientID,
		Type:        Type(m.Type),
		Message:     m.Message,
		Read:        m.Read,
		CreatedAt:   m.CreatedAt,
	}
	if m.SenderID != nil {
		n.SenderID = *m.SenderID
	}
	return n
}
