package repository

import (
	"context"
	"time"

	"github.com/peoplesquare/backend/internal/models"
	"gorm.io/gorm"
)

type PasswordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) WithTx(tx *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: tx}
}

func (r *PasswordResetRepository) Create(ctx context.Context, code *models.PasswordResetCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// FindUsable returns the newest unused, unexpired code matching codeHash.
func (r *PasswordResetRepository) FindUsable(ctx context.Context, userID, codeHash string, now time.Time) (*models.PasswordResetCode, error) {
	var code models.PasswordResetCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code_hash = ? AND used_at IS NULL AND expires_at > ?", userID, codeHash, now).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		return nil, translate(err)
	}
	return &code, nil
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PasswordResetCode{}).Where("id = ?", id).Update("used_at", at).Error
}

// InvalidateForUser marks every outstanding code of a user as used.
func (r *PasswordResetRepository) InvalidateForUser(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PasswordResetCode{}).
		Where("user_id = ? AND used_at IS NULL", userID).
		Update("used_at", at).Error
}
