// Package services — NotificationDispatcher
//
// This file implements the dispatcher that persists one notification per
// DealerMatch. Inserts are independent: a failure for one dealer is logged
// and never blocks the remaining dealers, and there is no transaction
// spanning the fan-out.
//
// Idempotency is NOT guaranteed by default. Platform redelivery of the same
// update creates duplicate notifications; that shipped behavior is kept.
// When DedupeEnabled is set, a per-(update, dealer) key is stored under a
// unique index and the duplicate insert is detected and skipped instead.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
	"github.com/tiptophouse/diamond-webhook/internal/repo"
	"github.com/tiptophouse/diamond-webhook/internal/telegram"
)

// NotificationDispatcher persists dealer notifications.
type NotificationDispatcher struct {
	DB            *gorm.DB
	DedupeEnabled bool
}

// notificationMetadata is the free-form context stored alongside each
// notification, serialized as JSON.
type notificationMetadata struct {
	OriginalMessage  string                 `json:"original_message"`
	RequesterID      int64                  `json:"requester_id"`
	RequesterName    string                 `json:"requester_name,omitempty"`
	GroupID          int64                  `json:"group_id"`
	GroupTitle       string                 `json:"group_title,omitempty"`
	MatchedItems     []domain.InventoryItem `json:"matched_items"`
	ConfidenceScore  float64                `json:"confidence_score"`
	RequestDetails   requestDetails         `json:"request_details"`
	MessageTimestamp time.Time              `json:"message_timestamp"`
}

type requestDetails struct {
	Shape    *string  `json:"shape,omitempty"`
	CaratMin *float64 `json:"carat_min,omitempty"`
	CaratMax *float64 `json:"carat_max,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Clarity  *string  `json:"clarity,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Dispatch writes one group_diamond_request notification per DealerMatch
// and returns how many inserts succeeded. Each dealer's insert is
// independent; failures are logged per dealer.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, update telegram.Update, req domain.DiamondRequest, matches []domain.DealerMatch) int {
	msg := update.Message
	content := renderRequestSummary(req, msg.Text)

	created := 0
	for _, m := range matches {
		meta := notificationMetadata{
			OriginalMessage:  msg.Text,
			RequesterID:      senderID(msg),
			RequesterName:    msg.SenderName(),
			GroupID:          msg.Chat.ID,
			GroupTitle:       msg.Chat.Title,
			MatchedItems:     m.MatchedItems,
			ConfidenceScore:  req.Confidence,
			RequestDetails:   details(req),
			MessageTimestamp: time.Unix(msg.Date, 0).UTC(),
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			log.Error().Err(err).Int64("dealer_id", m.DealerTelegramID).Msg("notification metadata marshal failed")
			continue
		}

		var key *string
		if d.DedupeEnabled {
			k := DedupeKey(update.UpdateID, m.DealerTelegramID)
			key = &k
		}

		_, err = repo.CreateNotification(ctx, d.DB, m.DealerTelegramID,
			domain.MessageTypeGroupDiamondRequest, content, string(raw), key)
		if err != nil {
			if key != nil && isDuplicate(err) {
				log.Info().Int64("dealer_id", m.DealerTelegramID).Str("dedupe_key", *key).
					Msg("duplicate delivery skipped")
				continue
			}
			log.Error().Err(err).Int64("dealer_id", m.DealerTelegramID).Msg("notification insert failed")
			continue
		}
		created++
	}
	return created
}

// DedupeKey derives the optional per-(update, dealer) insert constraint.
func DedupeKey(updateID, dealerTelegramID int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%d", updateID, dealerTelegramID)))
	return hex.EncodeToString(sum[:])
}

// renderRequestSummary builds the human-readable notification body shown to
// dealers by the (out-of-scope) delivery pipeline.
func renderRequestSummary(req domain.DiamondRequest, original string) string {
	titler := cases.Title(language.English)
	parts := make([]string, 0, 5)
	if req.Shape != nil {
		parts = append(parts, titler.String(*req.Shape))
	}
	if req.CaratMin != nil && req.CaratMax != nil {
		parts = append(parts, fmt.Sprintf("%.2f-%.2f ct", *req.CaratMin, *req.CaratMax))
	}
	if req.Color != nil {
		parts = append(parts, "color "+*req.Color)
	}
	if req.Clarity != nil {
		parts = append(parts, *req.Clarity)
	}
	if req.PriceMax != nil {
		parts = append(parts, fmt.Sprintf("under $%.0f", *req.PriceMax))
	}
	if len(parts) == 0 {
		return "New diamond request in your group: " + original
	}
	return "New diamond request matching your inventory: " + strings.Join(parts, ", ")
}

func details(req domain.DiamondRequest) requestDetails {
	return requestDetails{
		Shape:    req.Shape,
		CaratMin: req.CaratMin,
		CaratMax: req.CaratMax,
		Color:    req.Color,
		Clarity:  req.Clarity,
		PriceMax: req.PriceMax,
		Keywords: req.Keywords,
	}
}

func senderID(m *telegram.Message) int64 {
	if m.From == nil {
		return 0
	}
	return m.From.ID
}

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
