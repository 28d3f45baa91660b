package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/cottonstyle/internal/models"
)

type AddressRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error)
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.UserAddress, error)
	Create(ctx context.Context, address *models.UserAddress) error
	Update(ctx context.Context, address *models.UserAddress) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type addressRepoImpl struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepoImpl{db: db}
}

func (r *addressRepoImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error) {
	var addresses []models.UserAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&addresses).Error
	if err != nil {
		return nil, wrap(err, "list addresses")
	}
	return addresses, nil
}

func (r *addressRepoImpl) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.UserAddress, error) {
	var address models.UserAddress
	err := r.db.WithContext(ctx).First(&address, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, wrap(err, "find address")
	}
	return &address, nil
}

// Create returns ErrDuplicate when the user already has an address of
// the same type.
func (r *addressRepoImpl) Create(ctx context.Context, address *models.UserAddress) error {
	return wrap(r.db.WithContext(ctx).Create(address).Error, "create address")
}

// Update writes every column of address, scoped to its owner.
func (r *addressRepoImpl) Update(ctx context.Context, address *models.UserAddress) error {
	result := r.db.WithContext(ctx).Model(&models.UserAddress{}).
		Where("id = ? AND user_id = ?", address.ID, address.UserID).
		Updates(map[string]interface{}{
			"address_type": address.AddressType,
			"address1":     address.Address1,
			"address2":     address.Address2,
			"zip_code":     address.ZipCode,
			"country":      address.Country,
			"city":         address.City,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return wrap(result.Error, "update address")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *addressRepoImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.UserAddress{})
	if result.Error != nil {
		return wrap(result.Error, "delete address")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
