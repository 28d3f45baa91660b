package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/cottonstyle/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{db: db}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepoImpl) Create(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	return wrap(r.db.WithContext(ctx).Create(user).Error, "create user")
}

func (r *userRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "find user by id")
	}
	return &user, nil
}

func (r *userRepoImpl) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, wrap(err, "find user by email")
	}
	return &user, nil
}

// Save writes every column of user, including cleared OTP fields.
func (r *userRepoImpl) Save(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	return wrap(r.db.WithContext(ctx).Save(user).Error, "save user")
}

type ResetTokenRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	FindByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	ExpireUnusedForUser(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type resetTokenRepoImpl struct {
	db *gorm.DB
}

func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository {
	return &resetTokenRepoImpl{db: db}
}

func (r *resetTokenRepoImpl) Create(ctx context.Context, token *models.PasswordResetToken) error {
	return wrap(r.db.WithContext(ctx).Create(token).Error, "create reset token")
}

func (r *resetTokenRepoImpl) FindByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		return nil, wrap(err, "find reset token")
	}
	return &record, nil
}

// MarkUsed stamps the ticket as redeemed; a ticket already used is a conflict.
func (r *resetTokenRepoImpl) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Updates(map[string]interface{}{
			"used_at":    at,
			"updated_at": at,
		})
	if result.Error != nil {
		return wrap(result.Error, "mark reset token used")
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *resetTokenRepoImpl) ExpireUnusedForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("user_id = ? AND used_at IS NULL AND expires_at > ?", userID, at).
		Update("expires_at", at).Error
	return wrap(err, "expire reset tokens")
}
