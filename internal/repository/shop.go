package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/cottonstyle/internal/models"
)

type ShopRepository interface {
	Create(ctx context.Context, shop *models.Shop) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Shop, error)
}

type shopRepoImpl struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepoImpl{db: db}
}

func (r *shopRepoImpl) Create(ctx context.Context, shop *models.Shop) error {
	return wrap(r.db.WithContext(ctx).Create(shop).Error, "create shop")
}

func (r *shopRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).First(&shop, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "find shop")
	}
	return &shop, nil
}

func (r *shopRepoImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Shop, error) {
	var shops []models.Shop
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&shops).Error
	if err != nil {
		return nil, wrap(err, "list shops")
	}
	return shops, nil
}

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.Coupon, error)
	Delete(ctx context.Context, shopID, couponID uuid.UUID) error
}

type couponRepoImpl struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepoImpl{db: db}
}

func (r *couponRepoImpl) Create(ctx context.Context, coupon *models.Coupon) error {
	return wrap(r.db.WithContext(ctx).Create(coupon).Error, "create coupon")
}

func (r *couponRepoImpl) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, wrap(err, "find coupon by code")
	}
	return &coupon, nil
}

func (r *couponRepoImpl) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at desc").
		Find(&coupons).Error
	if err != nil {
		return nil, wrap(err, "list coupons")
	}
	return coupons, nil
}

func (r *couponRepoImpl) Delete(ctx context.Context, shopID, couponID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", couponID, shopID).
		Delete(&models.Coupon{})
	if result.Error != nil {
		return wrap(result.Error, "delete coupon")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
