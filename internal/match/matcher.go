// Package match finds dealers whose inventory could satisfy a parsed
// DiamondRequest. The per-dealer scan is deliberately sequential — one
// inventory fetch at a time — trading latency for bounded load on the
// external inventory service. A failure on one dealer never aborts the
// scan: the matcher always returns whatever it could gather.
package match

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
)

// Per-item match score weights, same additive pattern as the message
// confidence score but an independent threshold.
const (
	weightShape    = 0.3
	weightCaratMin = 0.15
	weightCaratMax = 0.15
	weightColor    = 0.2
	weightClarity  = 0.2
	weightPrice    = 0.1

	// QualifyScore is the minimum per-item score. Numerically equal to the
	// message-confidence gate by coincidence; the two are separate policies.
	QualifyScore = 0.3

	// MaxItemsPerDealer caps qualifying items, taken in snapshot order.
	MaxItemsPerDealer = 5
)

// Fetcher retrieves one dealer's inventory snapshot. The production
// implementation is the sequential HTTP client in internal/inventory;
// tests substitute an in-memory stub.
type Fetcher interface {
	FetchStones(ctx context.Context, dealerTelegramID int64) ([]domain.InventoryItem, error)
}

// Matcher scans dealer inventories against a request.
type Matcher struct {
	fetcher Fetcher
}

// New constructs a Matcher over the given snapshot fetcher.
func New(fetcher Fetcher) *Matcher {
	return &Matcher{fetcher: fetcher}
}

// FindMatches scans every dealer sequentially and returns one DealerMatch
// per dealer with at least one qualifying item. Dealers whose fetch fails
// are logged and skipped; no retries, single attempt per dealer.
//
// Callers gate on request confidence before invoking this; the matcher
// itself applies only the per-item QualifyScore threshold.
func (m *Matcher) FindMatches(ctx context.Context, req domain.DiamondRequest, dealerIDs []int64) []domain.DealerMatch {
	tr := otel.Tracer("match/Matcher")
	ctx, span := tr.Start(ctx, "FindMatches",
		trace.WithAttributes(attribute.Int("dealers", len(dealerIDs))),
	)
	defer span.End()

	matches := make([]domain.DealerMatch, 0, len(dealerIDs))
	for _, dealerID := range dealerIDs {
		items, err := m.fetcher.FetchStones(ctx, dealerID)
		if err != nil {
			log.Warn().Err(err).Int64("dealer_id", dealerID).Msg("inventory fetch failed; dealer skipped")
			continue
		}

		var matched []domain.InventoryItem
		for _, item := range items {
			if ScoreItem(req, item) >= QualifyScore {
				matched = append(matched, item)
				if len(matched) >= MaxItemsPerDealer {
					break
				}
			}
		}
		if len(matched) > 0 {
			matches = append(matches, domain.DealerMatch{
				DealerTelegramID: dealerID,
				MatchedItems:     matched,
			})
		}
	}

	span.SetAttributes(attribute.Int("matches", len(matches)))
	return matches
}

// ScoreItem computes the additive match score of one inventory item against
// a request. Unset request fields contribute nothing.
func ScoreItem(req domain.DiamondRequest, item domain.InventoryItem) float64 {
	score := 0.0
	if req.Shape != nil && strings.EqualFold(item.Shape, *req.Shape) {
		score += weightShape
	}
	if req.CaratMin != nil && item.Weight >= *req.CaratMin {
		score += weightCaratMin
	}
	if req.CaratMax != nil && item.Weight <= *req.CaratMax {
		score += weightCaratMax
	}
	if req.Color != nil && strings.EqualFold(item.Color, *req.Color) {
		score += weightColor
	}
	if req.Clarity != nil && strings.EqualFold(item.Clarity, *req.Clarity) {
		score += weightClarity
	}
	if req.PriceMax != nil && item.PricePerCarat*item.Weight <= *req.PriceMax {
		score += weightPrice
	}
	return score
}

