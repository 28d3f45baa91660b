package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"html"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/example/cottonstyle/internal/apperr"
	"github.com/example/cottonstyle/internal/logging"
	"github.com/example/cottonstyle/internal/models"
	"github.com/example/cottonstyle/internal/repository"
	"github.com/example/cottonstyle/internal/services"
	"github.com/example/cottonstyle/internal/utils"
)

const (
	DefaultCodeTTL   = 5 * time.Minute
	DefaultTicketTTL = 10 * time.Minute

	mailFailedMessage = "error sending OTP email"
)

var (
	ErrUserNotFound  = apperr.NotFound("user not found")
	ErrInvalidCode   = apperr.InvalidToken("invalid or expired OTP")
	ErrInvalidTicket = apperr.InvalidToken("invalid or expired reset token")
)

type Users interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

type Tickets interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	FindByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	ExpireUnusedForUser(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type Mailer interface {
	Send(ctx context.Context, mail services.Mail) error
}

type Config struct {
	CodeTTL   time.Duration
	TicketTTL time.Duration
}

// Ticket is handed to the client after a successful code check and must
// accompany the password reset.
type Ticket struct {
	Token     string    `json:"resetToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service runs the emailed one-time-code password reset and password change.
type Service struct {
	users   Users
	tickets Tickets
	mailer  Mailer
	cfg     Config
	now     func() time.Time
	newCode func() (string, error)
	logger  *log.Entry
}

func NewService(users Users, tickets Tickets, mailer Mailer, cfg Config) *Service {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = DefaultCodeTTL
	}
	if cfg.TicketTTL <= 0 {
		cfg.TicketTTL = DefaultTicketTTL
	}
	return &Service{
		users:   users,
		tickets: tickets,
		mailer:  mailer,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		newCode: generateCode,
		logger:  logging.Component("otp"),
	}
}

// Request issues a fresh code for email and mails it. A newer request
// replaces any code still outstanding. When the mail cannot be sent the
// code is withdrawn again.
func (s *Service) Request(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expiry := s.now().Add(s.cfg.CodeTTL)
	user.SetOTP(code, expiry)
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	if err := s.mailer.Send(ctx, codeMail(user, code, s.cfg.CodeTTL)); err != nil {
		s.logger.WithError(err).WithField("user", user.ID).Error("otp mail failed")
		user.ClearOTP()
		if saveErr := s.users.Save(ctx, user); saveErr != nil {
			s.logger.WithError(saveErr).WithField("user", user.ID).Error("clear otp after mail failure")
		}
		return apperr.Transport(mailFailedMessage, err)
	}
	return nil
}

// Verify checks code for email. A wrong code and an expired code fail the
// same way. On success the code is consumed and a reset ticket issued.
func (s *Service) Verify(ctx context.Context, email, code string) (*Ticket, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !user.HasOTP() || !now.Before(*user.OTPExpiry) ||
		subtle.ConstantTimeCompare([]byte(user.OTPCode), []byte(strings.TrimSpace(code))) != 1 {
		return nil, ErrInvalidCode
	}

	user.ClearOTP()
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("clear otp: %w", err)
	}

	if err := s.tickets.ExpireUnusedForUser(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("expire reset tickets: %w", err)
	}
	token, err := generateTicket()
	if err != nil {
		return nil, fmt.Errorf("generate reset ticket: %w", err)
	}
	record := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.cfg.TicketTTL),
	}
	if err := s.tickets.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create reset ticket: %w", err)
	}
	return &Ticket{Token: token, ExpiresAt: record.ExpiresAt}, nil
}

// ResetRequest carries the new password and the ticket issued by Verify.
type ResetRequest struct {
	Email           string
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// Reset sets a new password. The ticket is redeemed once; the password
// is only written after the ticket has been claimed.
func (s *Service) Reset(ctx context.Context, req ResetRequest) error {
	if err := validateNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidTicket
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	now := s.now()
	ticket, err := s.tickets.FindByToken(ctx, strings.TrimSpace(req.Token))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidTicket
	}
	if err != nil {
		return fmt.Errorf("find reset ticket: %w", err)
	}
	if ticket.UserID != user.ID || !ticket.Usable(now) {
		return ErrInvalidTicket
	}

	if err := s.tickets.MarkUsed(ctx, ticket.ID, now); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return ErrInvalidTicket
		}
		return fmt.Errorf("redeem reset ticket: %w", err)
	}

	return s.setPassword(ctx, user, req.NewPassword)
}

// ChangePassword replaces the password of a signed-in user.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword, confirmPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	if !utils.CheckPassword(user.PasswordHash, oldPassword) {
		return apperr.Validation("old password is incorrect")
	}
	if err := validateNewPassword(newPassword, confirmPassword); err != nil {
		return err
	}
	return s.setPassword(ctx, user, newPassword)
}

func (s *Service) setPassword(ctx context.Context, user *models.User, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.ClearOTP()
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("save password: %w", err)
	}
	s.logger.WithField("user", user.ID).Info("password changed")
	return nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperr.Validation("email is required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func validateNewPassword(password, confirm string) error {
	if len(password) < utils.MinPasswordLength {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", utils.MinPasswordLength))
	}
	if password != confirm {
		return apperr.Validation("new password and confirm password do not match")
	}
	return nil
}

// generateCode returns a uniformly random code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

func generateTicket() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func codeMail(user *models.User, code string, ttl time.Duration) services.Mail {
	minutes := int(ttl.Minutes())
	return services.Mail{
		To:      user.Email,
		Subject: "Password Reset OTP",
		Text:    fmt.Sprintf("Your OTP for password reset is: %s. It is valid for %d minutes.", code, minutes),
		HTML: fmt.Sprintf(`<p>Hello %s,</p>
<p>Your OTP for password reset is: <strong>%s</strong></p>
<p>It is valid for %d minutes. If you did not ask for a reset you can ignore this email.</p>`,
			html.EscapeString(user.Name), code, minutes),
	}
}
