// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
)

// CreateNotification inserts a new notification row. dedupeKey may be nil;
// when set, the unique index on dedupe_key rejects a second insert for the
// same (update, dealer) pair.
func CreateNotification(ctx context.Context, db *gorm.DB, telegramID int64, messageType, content, metadata string, dedupeKey *string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:             uuid.NewString(),
		TelegramID:     telegramID,
		MessageType:    messageType,
		MessageContent: content,
		Metadata:       metadata,
		DedupeKey:      dedupeKey,
		Status:         domain.NotificationStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	return n, db.WithContext(ctx).Create(n).Error
}

// CountNotifications uses a raw COUNT so a missing table surfaces as an error.
func CountNotifications(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM notifications WHERE deleted_at IS NULL").Scan(&total).Error
	return total, err
}

// ListNotificationsPage returns a paginated slice ordered deterministically
// (CreatedAt DESC, ID ASC — newest first for the admin console).
func ListNotificationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
