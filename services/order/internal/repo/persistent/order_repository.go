package persistent

import (
	"context"
	"errors"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/models"
	"thriftgram/services/order/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	GetProduct(ctx context.Context, itemID string) (*entity.Product, error)
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, userID string, role entity.Role, limit, offset int) ([]*entity.Order, int64, error)
	// MarkPaid moves the order stored under any of refs from PENDING to PAID
	// and reports whether this call made the transition.
	MarkPaid(ctx context.Context, refs []string) (*entity.Order, bool, error)
	// UpdateStatus writes to only if the stored status still equals from.
	UpdateStatus(ctx context.Context, id string, from, to entity.Status) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetProduct(ctx context.Context, itemID string) (*entity.Product, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", itemID).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Item not found")
	}
	if err != nil {
		return nil, err
	}
	return ToProduct(&item), nil
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	row := ToOrderModel(order)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	order.ID = row.ID
	order.Status = entity.Status(row.Status)
	order.CreatedAt = row.CreatedAt
	order.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *orderRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Buyer").
		Preload("Item").
		Preload("Item.Seller").
		Preload("Item.Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var row models.Order
	err := r.withDetails(r.db.WithContext(ctx)).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	return ToOrderEntity(&row), nil
}

func (r *orderRepository) List(ctx context.Context, userID string, role entity.Role, limit, offset int) ([]*entity.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if role == entity.RoleSeller {
		query = query.Joins("JOIN items ON items.id = orders.item_id").Where("items.seller_id = ?", userID)
	} else {
		query = query.Where("orders.buyer_id = ?", userID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	if err := r.withDetails(query.Session(&gorm.Session{})).
		Select("orders.*").
		Order("orders.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*entity.Order, len(rows))
	for i := range rows {
		orders[i] = ToOrderEntity(&rows[i])
	}
	return orders, total, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, refs []string) (*entity.Order, bool, error) {
	if len(refs) == 0 {
		return nil, false, apperr.NotFound("Order not found")
	}

	var (
		orderID      string
		transitioned bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_reference IN ? OR checkout_session_id IN ?", refs, refs).
			Order("created_at ASC").
			Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Order not found")
			}
			return err
		}
		orderID = row.ID
		if row.Status != models.OrderPending {
			return nil
		}

		var item models.Item
		if err := tx.Select("id", "seller_id").Where("id = ?", row.ItemID).Take(&item).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", row.ID).Update("status", models.OrderPaid).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).Update("is_sold", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", item.SellerID).
			UpdateColumn("items_sold_count", gorm.Expr("items_sold_count + ?", 1)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", row.BuyerID).
			UpdateColumn("items_bought_count", gorm.Expr("items_bought_count + ?", 1)).Error; err != nil {
			return err
		}

		transitioned = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	order, err := r.GetByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	return order, transitioned, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to entity.Status) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatus(from)).
		Update("status", models.OrderStatus(to))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("Order status changed, reload and try again")
	}
	return nil
}
