// Package domain — ephemeral request-scoped types.
//
// DiamondRequest, InventoryItem, and DealerMatch exist only for the duration
// of processing one inbound webhook call. They are never persisted or cached
// across calls; every call re-derives them from scratch.
package domain

// DiamondRequest is the structured interpretation of a free-text buyer
// inquiry. Absent fields are nil; their absence simply lowers Confidence.
type DiamondRequest struct {
	Shape    *string
	CaratMin *float64
	CaratMax *float64
	Color    *string
	Clarity  *string
	PriceMax *float64

	// Keywords records which fields were detected, in detection order.
	Keywords []string

	// Confidence is an additive, unclamped heuristic. Each detected field
	// contributes a fixed weight, so a message matching every category can
	// exceed 1.0. It is a gating/ranking signal, not a probability.
	Confidence float64
}

// InventoryItem is one dealer stone, read from the external inventory
// service. The core only consumes a filtered snapshot and never writes back.
type InventoryItem struct {
	Shape            string  `json:"shape"`
	Weight           float64 `json:"weight"`
	Color            string  `json:"color"`
	Clarity          string  `json:"clarity"`
	PricePerCarat    float64 `json:"price_per_carat"`
	OwnersTelegramID int64   `json:"owners_telegram_id"`
}

// DealerMatch pairs a dealer with the subset of their inventory satisfying a
// DiamondRequest. MatchedItems keeps inventory-snapshot order and is capped
// by the matcher.
type DealerMatch struct {
	DealerTelegramID int64
	MatchedItems     []InventoryItem
}
