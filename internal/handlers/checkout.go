package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/cottonstyle/internal/apperr"
	"github.com/example/cottonstyle/internal/checkout"
	"github.com/example/cottonstyle/internal/pricing"
)

// CheckoutHandler exposes the checkout session of the signed-in user.
type CheckoutHandler struct {
	checkout *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc}
}

type draftView struct {
	*checkout.Draft
	Totals pricing.Totals `json:"totals"`
}

func draftResponse(c *fiber.Ctx, status int, draft *checkout.Draft) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    draftView{Draft: draft, Totals: draft.Totals()},
	})
}

type startCheckoutRequest struct {
	Items []pricing.CartItem `json:"items"`
	Quote pricing.Quote      `json:"quote"`
}

// Start opens a new checkout for the posted cart, replacing any open one.
func (h *CheckoutHandler) Start(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req startCheckoutRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	draft, err := h.checkout.Start(c.UserContext(), userID, req.Items, req.Quote)
	if err != nil {
		return err
	}
	return draftResponse(c, fiber.StatusCreated, draft)
}

func (h *CheckoutHandler) Get(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	draft, err := h.checkout.Get(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return draftResponse(c, fiber.StatusOK, draft)
}

func (h *CheckoutHandler) Abandon(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.checkout.Abandon(c.UserContext(), userID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type setAddressRequest struct {
	checkout.ShippingAddress
	AddressID string `json:"addressId"`
}

// SetAddress stores the shipping address, either posted in full or picked
// from the user's saved addresses by addressId.
func (h *CheckoutHandler) SetAddress(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req setAddressRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var draft *checkout.Draft
	if req.AddressID != "" {
		addressID, perr := uuid.Parse(req.AddressID)
		if perr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid addressId")
		}
		draft, err = h.checkout.UseSavedAddress(c.UserContext(), userID, addressID)
	} else {
		draft, err = h.checkout.SetAddress(c.UserContext(), userID, req.ShippingAddress)
	}
	if err != nil {
		return err
	}
	return draftResponse(c, fiber.StatusOK, draft)
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon applies a coupon code to the checkout. Every response tells
// the client to clear its code input, whatever the outcome. An unknown
// code is a 400 here rather than a 404.
func (h *CheckoutHandler) ApplyCoupon(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req applyCouponRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	draft, err := h.checkout.ApplyCoupon(c.UserContext(), userID, req.Code)
	if err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			return err
		}
		status := apperr.HTTPStatus(appErr.Kind)
		if errors.Is(err, checkout.ErrCouponNotFound) {
			status = fiber.StatusBadRequest
		}
		return writeAppError(c, status, appErr, fiber.Map{"clearCode": true})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"discount":  draft.Coupon.Discount,
		"clearCode": true,
		"data":      draftView{Draft: draft, Totals: draft.Totals()},
	})
}

func (h *CheckoutHandler) RemoveCoupon(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	draft, err := h.checkout.RemoveCoupon(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return draftResponse(c, fiber.StatusOK, draft)
}

// Submit pays for the checkout and returns the placed order.
func (h *CheckoutHandler) Submit(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	receipt, err := h.checkout.Submit(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    receipt,
	})
}
