// Package services — WebhookService
//
// This file implements the orchestrator: a linear, request-scoped state
// machine sequencing verification (done upstream at the handler), envelope
// inspection, the CTA and payment-confirmation short-circuits, extraction,
// matching, and dispatch for one inbound platform event. There is no shared
// mutable state between calls — every call re-derives its DiamondRequest
// and DealerMatch set from scratch.
//
// All public methods are OpenTelemetry-instrumented in the same manner as
// the per-operation spans elsewhere in this codebase.
package services

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
	"github.com/tiptophouse/diamond-webhook/internal/extract"
	"github.com/tiptophouse/diamond-webhook/internal/repo"
	"github.com/tiptophouse/diamond-webhook/internal/telegram"
)

// Outcome names the terminal state reached for one update. Every outcome
// maps to a 200 "OK" platform response; only handler-level verification
// failures (401) and unhandled errors (500) differ.
type Outcome string

const (
	OutcomeNoOp          Outcome = "no_op"
	OutcomeCTAClick      Outcome = "cta_click"
	OutcomeWrongGroup    Outcome = "wrong_group"
	OutcomeDiamondPost   Outcome = "diamond_post"
	OutcomeLowConfidence Outcome = "low_confidence"
	OutcomeDispatched    Outcome = "dispatched"
	OutcomeNoMatches     Outcome = "no_matches"
)

var (
	updatesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_updates_total",
			Help: "Webhook updates processed, by terminal outcome.",
		},
		[]string{"outcome"},
	)
	notificationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_notifications_created_total",
			Help: "Dealer notifications persisted by the dispatcher.",
		},
	)
)

func init() {
	prometheus.MustRegister(updatesProcessed, notificationsCreated)
}

// Matcher is the inventory fan-out consumed by the orchestrator.
type Matcher interface {
	FindMatches(ctx context.Context, req domain.DiamondRequest, dealerIDs []int64) []domain.DealerMatch
}

// DealerDirectory lists the dealers whose inventories are scanned.
type DealerDirectory interface {
	ListActiveDealerIDs(ctx context.Context) ([]int64, error)
}

// PostGenerator is the external collaborator invoked by the
// payment-confirmation branch. Opaque to this core.
type PostGenerator interface {
	GenerateDiamondPost(ctx context.Context, sellerTelegramID int64, text string) error
}

// Extractor converts free text into a DiamondRequest. The default is
// extract.Parse; tests substitute a recording stub.
type Extractor func(text string) domain.DiamondRequest

// WebhookService orchestrates processing of one inbound webhook update.
type WebhookService struct {
	DB         *gorm.DB
	Matcher    Matcher
	Directory  DealerDirectory
	Dispatcher *NotificationDispatcher
	PostGen    PostGenerator
	Extract    Extractor

	// Threshold is the inclusive message-confidence gate (policy: 0.3).
	Threshold float64
	// TargetGroupID scopes processing to one B2B group chat; 0 disables
	// the filter.
	TargetGroupID int64
	// PaymentPhrase short-circuits into diamond-post generation when it
	// occurs in the message (case-insensitive substring).
	PaymentPhrase string
}

// Process runs the state machine for one update. Errors are returned only
// for unexpected failures; every expected branch (missing text, wrong
// group, low confidence, zero matches) is a successful no-op outcome.
func (s *WebhookService) Process(ctx context.Context, update telegram.Update) (Outcome, error) {
	tr := otel.Tracer("services/WebhookService")
	ctx, span := tr.Start(ctx, "Process",
		trace.WithAttributes(attribute.Int64("update.id", update.UpdateID)),
	)
	defer span.End()

	out, err := s.process(ctx, update)
	span.SetAttributes(attribute.String("outcome", string(out)))
	updatesProcessed.WithLabelValues(string(out)).Inc()
	return out, err
}

func (s *WebhookService) process(ctx context.Context, update telegram.Update) (Outcome, error) {
	msg := update.Message
	// Absence of actionable content is normal, not an error.
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return OutcomeNoOp, nil
	}

	// Private "/start <param>" → click tracking, short-circuit before any
	// matching logic.
	if param, ok := msg.StartParameter(); ok {
		if _, err := repo.CreateCTAClick(ctx, s.DB, senderID(msg), param, msg.Chat.Type); err != nil {
			log.Error().Err(err).Str("parameter", param).Msg("cta click insert failed")
		}
		return OutcomeCTAClick, nil
	}

	// Scope processing to the designated B2B group when configured.
	if s.TargetGroupID != 0 && msg.Chat.ID != s.TargetGroupID {
		return OutcomeWrongGroup, nil
	}

	// Payment confirmation bypasses the matching pipeline entirely.
	if s.PaymentPhrase != "" && strings.Contains(strings.ToLower(msg.Text), strings.ToLower(s.PaymentPhrase)) {
		return s.handlePaymentConfirmation(ctx, msg)
	}

	// Extract → gate → match → dispatch.
	extractor := s.Extract
	if extractor == nil {
		extractor = extract.Parse
	}
	req := extractor(msg.Text)
	if req.Confidence < s.Threshold {
		return OutcomeLowConfidence, nil
	}

	dealerIDs, err := s.Directory.ListActiveDealerIDs(ctx)
	if err != nil {
		return OutcomeNoMatches, ErrDealerDirectory
	}

	matches := s.Matcher.FindMatches(ctx, req, dealerIDs)
	if len(matches) == 0 {
		return OutcomeNoMatches, nil
	}

	created := s.Dispatcher.Dispatch(ctx, update, req, matches)
	notificationsCreated.Add(float64(created))
	log.Info().
		Int64("update_id", update.UpdateID).
		Float64("confidence", req.Confidence).
		Int("matched_dealers", len(matches)).
		Int("notifications", created).
		Msg("diamond request dispatched")
	return OutcomeDispatched, nil
}

// handlePaymentConfirmation delegates to the external post generator and
// records a diamond_post_generated notification for the seller. Generator
// failures are logged, not fatal: the platform still gets an OK.
func (s *WebhookService) handlePaymentConfirmation(ctx context.Context, msg *telegram.Message) (Outcome, error) {
	seller := senderID(msg)
	if s.PostGen != nil {
		if err := s.PostGen.GenerateDiamondPost(ctx, seller, msg.Text); err != nil {
			log.Error().Err(err).Int64("seller_id", seller).Msg("diamond post generation failed")
		}
	}
	if _, err := repo.CreateNotification(ctx, s.DB, seller,
		domain.MessageTypeDiamondPostGenerated, "Diamond post generation triggered", "", nil); err != nil {
		log.Error().Err(err).Int64("seller_id", seller).Msg("diamond post notification insert failed")
	}
	return OutcomeDiamondPost, nil
}
