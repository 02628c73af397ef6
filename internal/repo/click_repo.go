// Package repo — repository functions for the CTAClick model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
)

// CreateCTAClick inserts a click-tracking row for a "/start <param>" message.
func CreateCTAClick(ctx context.Context, db *gorm.DB, telegramID int64, parameter, chatType string) (*domain.CTAClick, error) {
	c := &domain.CTAClick{
		ID:         uuid.NewString(),
		TelegramID: telegramID,
		Parameter:  parameter,
		ChatType:   chatType,
		CreatedAt:  time.Now().UTC(),
	}
	return c, db.WithContext(ctx).Create(c).Error
}

// CountCTAClicks uses a raw COUNT so a missing table surfaces as an error.
func CountCTAClicks(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM cta_clicks WHERE deleted_at IS NULL").Scan(&total).Error
	return total, err
}

// ListCTAClicksPage returns a paginated slice ordered (CreatedAt DESC, ID ASC).
func ListCTAClicksPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.CTAClick, error) {
	var out []domain.CTAClick
	err := db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
