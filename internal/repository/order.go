package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/cottonstyle/internal/models"
)

// OrderFilter narrows ListByUser.
type OrderFilter struct {
	Status string
	Limit  int
	Offset int
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Order, error)
	ClaimForCharge(ctx context.Context, id uuid.UUID, at, staleBefore time.Time) (*models.Order, error)
	ReleaseClaim(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkPaid(ctx context.Context, id uuid.UUID, confirmation string, at time.Time) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter OrderFilter) ([]models.Order, int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{db: db}
}

// Create inserts the order together with its items.
func (r *orderRepoImpl) Create(ctx context.Context, order *models.Order) error {
	return wrap(r.db.WithContext(ctx).Create(order).Error, "create order")
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "find order")
	}
	return &order, nil
}

func (r *orderRepoImpl) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, wrap(err, "find order for user")
	}
	return &order, nil
}

// ClaimForCharge moves a pending order to charging so exactly one caller
// talks to the gateway. A charging claim last touched before staleBefore
// is treated as abandoned and may be taken over.
func (r *orderRepoImpl) ClaimForCharge(ctx context.Context, id uuid.UUID, at, staleBefore time.Time) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Order{}).
			Where("id = ? AND (status = ? OR (status = ? AND updated_at < ?))",
				id, models.OrderStatusPending, models.OrderStatusCharging, staleBefore).
			Updates(map[string]interface{}{
				"status":     models.OrderStatusCharging,
				"updated_at": at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateConflict
		}
		return tx.Preload("Items").First(&order, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, ErrStateConflict) {
			return nil, err
		}
		return nil, wrap(err, "claim order")
	}
	return &order, nil
}

// ReleaseClaim returns a charging order to pending after a failed charge.
func (r *orderRepoImpl) ReleaseClaim(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusCharging).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusPending,
			"updated_at": at,
		})
	if result.Error != nil {
		return wrap(result.Error, "release order claim")
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

// MarkPaid moves a claimed order to paid. A paid order is never touched again.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, id uuid.UUID, confirmation string, at time.Time) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, models.OrderStatusCharging).
			Updates(map[string]interface{}{
				"status":               models.OrderStatusPaid,
				"payment_confirmation": confirmation,
				"paid_at":              at,
				"updated_at":           at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateConflict
		}
		return tx.Preload("Items").First(&order, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, ErrStateConflict) {
			return nil, err
		}
		return nil, wrap(err, "mark order paid")
	}
	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID uuid.UUID, filter OrderFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "count orders")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(limit).Offset(filter.Offset).
		Find(&orders).Error; err != nil {
		return nil, 0, wrap(err, "list orders")
	}
	return orders, total, nil
}
