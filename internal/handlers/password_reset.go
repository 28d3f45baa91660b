package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/cottonstyle/internal/otp"
)

// PasswordResetHandler manages forgot-password and change-password endpoints.
type PasswordResetHandler struct {
	otp *otp.Service
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(svc *otp.Service) *PasswordResetHandler {
	return &PasswordResetHandler{otp: svc}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword mails a one-time code to the account's address.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	if err := h.otp.Request(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent to your email",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP exchanges a valid code for a reset ticket.
func (h *PasswordResetHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.OTP == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and otp are required")
	}

	ticket, err := h.otp.Verify(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "OTP verified",
		"resetToken": ticket.Token,
		"expiresAt":  ticket.ExpiresAt,
	})
}

type resetPasswordRequest struct {
	Email           string `json:"email"`
	ResetToken      string `json:"resetToken"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword sets a new password using the ticket from VerifyOTP.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.ResetToken == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email, resetToken and newPassword are required")
	}

	err := h.otp.Reset(c.UserContext(), otp.ResetRequest{
		Email:           req.Email,
		Token:           req.ResetToken,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password reset successfully",
	})
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePassword updates the signed-in user's password.
func (h *PasswordResetHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.otp.ChangePassword(c.UserContext(), userID, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password updated successfully",
	})
}
