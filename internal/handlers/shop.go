package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/example/cottonstyle/internal/models"
	"github.com/example/cottonstyle/internal/repository"
)

// ShopHandler manages shops and the coupons their owners issue.
type ShopHandler struct {
	shops   repository.ShopRepository
	coupons repository.CouponRepository
}

func NewShopHandler(shops repository.ShopRepository, coupons repository.CouponRepository) *ShopHandler {
	return &ShopHandler{shops: shops, coupons: coupons}
}

type createShopRequest struct {
	Name string `json:"name"`
}

// CreateShop opens a shop owned by the signed-in user.
func (h *ShopHandler) CreateShop(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req createShopRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	shop := models.Shop{Name: req.Name, OwnerID: userID}
	if err := h.shops.Create(c.UserContext(), &shop); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": shop})
}

// ownedShop loads the :id shop and checks the caller owns it.
func (h *ShopHandler) ownedShop(c *fiber.Ctx) (*models.Shop, error) {
	userID, err := requireUser(c)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	shop, err := h.shops.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "shop not found")
		}
		return nil, err
	}
	if shop.OwnerID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "not the owner of this shop")
	}
	return shop, nil
}

func (h *ShopHandler) ListCoupons(c *fiber.Ctx) error {
	shop, err := h.ownedShop(c)
	if err != nil {
		return err
	}

	coupons, err := h.coupons.ListByShop(c.UserContext(), shop.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": coupons})
}

type createCouponRequest struct {
	Name            string           `json:"name"`
	Value           decimal.Decimal  `json:"value"`
	MinAmount       *decimal.Decimal `json:"minAmount"`
	MaxAmount       *decimal.Decimal `json:"maxAmount"`
	SelectedProduct string           `json:"selectedProduct"`
	ExpiresAt       *time.Time       `json:"expiresAt"`
}

// CreateCoupon issues a percentage coupon for the shop. Codes are unique
// across all shops.
func (h *ShopHandler) CreateCoupon(c *fiber.Ctx) error {
	shop, err := h.ownedShop(c)
	if err != nil {
		return err
	}

	var req createCouponRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if !req.Value.IsPositive() || req.Value.GreaterThan(decimal.NewFromInt(100)) {
		return fiber.NewError(fiber.StatusBadRequest, "value must be a percentage between 0 and 100")
	}

	coupon := models.Coupon{
		Code:              req.Name,
		ShopID:            shop.ID,
		Value:             req.Value,
		SelectedProductID: req.SelectedProduct,
		ExpiresAt:         req.ExpiresAt,
	}
	if req.MinAmount != nil {
		coupon.MinAmount = decimal.NewNullDecimal(*req.MinAmount)
	}
	if req.MaxAmount != nil {
		coupon.MaxAmount = decimal.NewNullDecimal(*req.MaxAmount)
	}
	if err := h.coupons.Create(c.UserContext(), &coupon); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fiber.NewError(fiber.StatusConflict, "coupon code already exists")
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": coupon})
}

func (h *ShopHandler) DeleteCoupon(c *fiber.Ctx) error {
	shop, err := h.ownedShop(c)
	if err != nil {
		return err
	}

	couponID, err := uuid.Parse(c.Params("couponId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coupon id")
	}

	if err := h.coupons.Delete(c.UserContext(), shop.ID, couponID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "coupon not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
