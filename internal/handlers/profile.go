package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/example/cottonstyle/internal/checkout"
	"github.com/example/cottonstyle/internal/models"
	"github.com/example/cottonstyle/internal/repository"
)

// ProfileHandler manages the user's profile and saved addresses.
type ProfileHandler struct {
	users     repository.UserRepository
	addresses repository.AddressRepository
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(users repository.UserRepository, addresses repository.AddressRepository) *ProfileHandler {
	return &ProfileHandler{users: users, addresses: addresses}
}

// GetProfile returns authenticated user profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}
	addresses, err := h.addresses.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":          user.ID,
			"name":        user.Name,
			"email":       user.Email,
			"phoneNumber": user.PhoneNumber,
			"addresses":   addresses,
			"createdAt":   user.CreatedAt,
			"updatedAt":   user.UpdatedAt,
		},
	})
}

type updateProfileRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Name == "" && req.PhoneNumber == "" {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	ctx := c.UserContext()
	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if err := h.users.Save(ctx, user); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated", "data": user})
}

// Address endpoints

// ListAddresses returns user addresses.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	addresses, err := h.addresses.ListByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": addresses})
}

type createAddressRequest struct {
	AddressType string `json:"addressType"`
	checkout.ShippingAddress
}

// CreateAddress saves a new address. A user keeps one address per type.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req createAddressRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.AddressType = strings.TrimSpace(req.AddressType)
	if req.AddressType == "" {
		return fiber.NewError(fiber.StatusBadRequest, "addressType is required")
	}
	if err := req.ShippingAddress.Validate(); err != nil {
		return err
	}

	address := models.UserAddress{
		UserID:      userID,
		AddressType: req.AddressType,
		Address1:    req.Address1,
		Address2:    req.Address2,
		ZipCode:     req.ZipCode,
		Country:     req.Country,
		City:        req.City,
	}
	if err := h.addresses.Create(c.UserContext(), &address); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fiber.NewError(fiber.StatusConflict, address.AddressType+" address already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": address})
}

type updateAddressRequest struct {
	AddressType *string `json:"addressType"`
	Address1    *string `json:"address1"`
	Address2    *string `json:"address2"`
	ZipCode     *string `json:"zipCode"`
	Country     *string `json:"country"`
	City        *string `json:"city"`
}

func (r updateAddressRequest) empty() bool {
	return r.AddressType == nil && r.Address1 == nil && r.Address2 == nil &&
		r.ZipCode == nil && r.Country == nil && r.City == nil
}

// UpdateAddress changes the given fields of a saved address. The result
// must still be a complete address.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateAddressRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.empty() {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	ctx := c.UserContext()
	address, err := h.addresses.FindForUser(ctx, userID, addrID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "address not found")
		}
		return err
	}

	if req.AddressType != nil {
		address.AddressType = strings.TrimSpace(*req.AddressType)
	}
	if req.Address1 != nil {
		address.Address1 = *req.Address1
	}
	if req.Address2 != nil {
		address.Address2 = *req.Address2
	}
	if req.ZipCode != nil {
		address.ZipCode = *req.ZipCode
	}
	if req.Country != nil {
		address.Country = *req.Country
	}
	if req.City != nil {
		address.City = *req.City
	}
	if address.AddressType == "" {
		return fiber.NewError(fiber.StatusBadRequest, "addressType is required")
	}
	if err := checkout.AddressFromSaved(address).Validate(); err != nil {
		return err
	}

	if err := h.addresses.Update(ctx, address); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return fiber.NewError(fiber.StatusConflict, address.AddressType+" address already exists")
		case errors.Is(err, repository.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "address not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": address})
}

// DeleteAddress removes a user address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.addresses.Delete(c.UserContext(), userID, addrID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "address not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "address deleted"})
}
