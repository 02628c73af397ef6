// Package domain defines the persistence models for notifications, CTA
// clicks, and the dealer directory. These types are mapped with GORM and
// form the core data layer of the webhook service.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Notification message types written by the webhook core.
const (
	MessageTypeGroupDiamondRequest  = "group_diamond_request"
	MessageTypeDiamondPostGenerated = "diamond_post_generated"
)

// Notification statuses.
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
)

// Notification is one row per dealer per qualifying inbound message. The
// webhook core creates it exactly once and hands it off to the (external)
// delivery pipeline; it is never updated or deleted here.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - TelegramID: the dealer the notification is addressed to; indexed.
//   - MessageType: tagged variant, e.g. "group_diamond_request".
//   - MessageContent: human-readable summary rendered for the dealer.
//   - Metadata: serialized JSON context (original message, requester,
//     matched items, confidence score, request details, timestamp).
//   - DedupeKey: optional per-(update, dealer) insert constraint. NULL by
//     default, in which case platform redelivery produces duplicates.
//   - Status: delivery state owned by the downstream pipeline.
type Notification struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	TelegramID     int64          `json:"telegram_id"     gorm:"not null;index:idx_dealer_notifications"`
	MessageType    string         `json:"message_type"    gorm:"type:varchar(64);not null;index"`
	MessageContent string         `json:"message_content" gorm:"type:text;not null"`
	Metadata       string         `json:"metadata"        gorm:"type:text"`
	DedupeKey      *string        `json:"-"               gorm:"type:varchar(64);uniqueIndex:ux_notification_dedupe"`
	Status         string         `json:"status"          gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// CTAClick records a private "/start <parameter>" interaction. It is a
// click-tracking record, distinct from diamond matching, written by the
// orchestrator's short-circuit branch.
type CTAClick struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	TelegramID int64          `json:"telegram_id" gorm:"not null;index"`
	Parameter  string         `json:"parameter"   gorm:"type:varchar(255);not null"`
	ChatType   string         `json:"chat_type"   gorm:"type:varchar(32);not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for CTAClick.
func (CTAClick) TableName() string { return "cta_clicks" }

// Dealer is one inventory-holding party in the directory. The matcher scans
// the inventories of all active dealers.
type Dealer struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	TelegramID int64          `json:"telegram_id" gorm:"not null;uniqueIndex:ux_dealer_telegram_id"`
	Name       string         `json:"name"        gorm:"type:varchar(255);not null"`
	Active     bool           `json:"active"      gorm:"not null;default:true"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Dealer.
func (Dealer) TableName() string { return "dealers" }
