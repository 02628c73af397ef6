// Package repo — repository functions for the Dealer directory.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
)

// UpsertDealer registers a dealer, or re-activates and renames an existing
// one with the same Telegram ID.
func UpsertDealer(ctx context.Context, db *gorm.DB, telegramID int64, name string) (*domain.Dealer, error) {
	var existing domain.Dealer
	err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]any{"name": name, "active": true}
		if uerr := db.WithContext(ctx).Model(&existing).Updates(updates).Error; uerr != nil {
			return nil, uerr
		}
		existing.Name = name
		existing.Active = true
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		d := &domain.Dealer{
			ID:         uuid.NewString(),
			TelegramID: telegramID,
			Name:       name,
			Active:     true,
			CreatedAt:  time.Now().UTC(),
		}
		return d, db.WithContext(ctx).Create(d).Error
	default:
		return nil, err
	}
}

// ListDealers returns all dealers ordered by creation time.
func ListDealers(ctx context.Context, db *gorm.DB) ([]domain.Dealer, error) {
	var out []domain.Dealer
	err := db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// ListActiveDealerIDs returns the Telegram IDs of all active dealers, in
// stable directory order. This is the dealer list the matcher fans out over.
func ListActiveDealerIDs(ctx context.Context, db *gorm.DB) ([]int64, error) {
	var ids []int64
	err := db.WithContext(ctx).
		Model(&domain.Dealer{}).
		Where("active = ?", true).
		Order("created_at ASC, id ASC").
		Pluck("telegram_id", &ids).Error
	return ids, err
}
