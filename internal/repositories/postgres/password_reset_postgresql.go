package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
)

type PasswordResetPostgreSQL struct {
	db *gorm.DB
}

func NewPasswordResetPostgreSQL(db *gorm.DB) repositories.PasswordResetRepository {
	return &PasswordResetPostgreSQL{db: db}
}

func (p *PasswordResetPostgreSQL) Create(ctx context.Context, reset *models.PasswordReset) error {
	if err := p.db.WithContext(ctx).Create(reset).Error; err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

func (p *PasswordResetPostgreSQL) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := p.db.WithContext(ctx).First(&reset, "token_hash = ?", tokenHash).Error; err != nil {
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}
	return &reset, nil
}

// MarkUsed consumes the token; a second call for the same token affects no rows
func (p *PasswordResetPostgreSQL) MarkUsed(ctx context.Context, id uint, usedAt time.Time) error {
	result := p.db.WithContext(ctx).
		Model(&models.PasswordReset{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", usedAt)
	if result.Error != nil {
		return fmt.Errorf("failed to mark password reset used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to mark password reset used: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
