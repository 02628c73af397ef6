// Package extract converts free-text chat messages into a structured
// DiamondRequest with an additive confidence score. It is a pure,
// deterministic, dependency-free library package:
//
//   - No logging (callers decide how/what to log)
//   - Explicit ordered vocabularies; "first match wins" is a contract,
//     not an accident of map iteration order
//   - Unicode-safe lower-casing; matching itself is substring/regex based
//   - No error conditions: an undetected field is simply left unset and
//     contributes nothing to the confidence score
//
// The confidence score is additive and unclamped. A message matching every
// category exceeds 1.0; that value is passed through as-is.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
)

// Per-field confidence weights.
const (
	weightShape   = 0.30
	weightCarat   = 0.25
	weightColor   = 0.20
	weightClarity = 0.20
	weightPrice   = 0.15
	weightKeyword = 0.10
)

// Shapes is the fixed shape vocabulary, in matching order. The first shape
// whose name occurs as a substring wins, so a message containing both
// "oval" and "round" resolves to whichever appears earlier in this list.
var Shapes = []string{
	"round", "princess", "cushion", "emerald", "oval",
	"radiant", "asscher", "marquise", "heart", "pear",
}

// Clarities is the fixed clarity vocabulary, in matching order. Ordering is
// significant: "si1" is tested before "si2", and "vvs1" before "vs1", so the
// earlier grade claims any ambiguous substring.
var Clarities = []string{
	"FL", "IF", "VVS1", "VVS2", "VS1", "VS2",
	"SI1", "SI2", "SI3", "I1", "I2", "I3",
}

// contextKeywords mark a message as diamond talk even when no concrete
// field was recognized.
var contextKeywords = []string{"diamond", "diamonds", "stone", "stones", "gem", "gems"}

var (
	caratRangeRE  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|to)\s*(\d+(?:\.\d+)?)\s*(?:ct|carats?)`)
	caratSingleRE = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:ct|carats?)`)

	// A color letter counts only when preceded by a space and followed by a
	// space or "+". Colors at the very start or end of a message are missed;
	// that false-negative is intentional, matching the shipped heuristic.
	colorRE = regexp.MustCompile(`\s([d-m])[\s+]`)

	priceKRE      = regexp.MustCompile(`\$?\s*(\d[\d,]*)\s*k`)
	priceDollarRE = regexp.MustCompile(`\$\s*(\d[\d,]*)`)
)

// Parse converts a raw message into a DiamondRequest. It lower-cases the
// text internally, detects fields in a fixed order (shape, carat, color,
// clarity, price, context keyword), and records a tag per detected field in
// Keywords, insertion order = detection order.
func Parse(text string) domain.DiamondRequest {
	var req domain.DiamondRequest
	lower := strings.ToLower(text)

	// Shape: first vocabulary match wins.
	for _, shape := range Shapes {
		if strings.Contains(lower, shape) {
			s := shape
			req.Shape = &s
			req.Keywords = append(req.Keywords, "shape")
			req.Confidence += weightShape
			break
		}
	}

	// Carat: explicit range first, else single value expanded to a ±10%
	// tolerance band.
	if m := caratRangeRE.FindStringSubmatch(lower); m != nil {
		lo, errLo := strconv.ParseFloat(m[1], 64)
		hi, errHi := strconv.ParseFloat(m[2], 64)
		if errLo == nil && errHi == nil {
			req.CaratMin = &lo
			req.CaratMax = &hi
			req.Keywords = append(req.Keywords, "carat")
			req.Confidence += weightCarat
		}
	} else if m := caratSingleRE.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			lo, hi := v*0.9, v*1.1
			req.CaratMin = &lo
			req.CaratMax = &hi
			req.Keywords = append(req.Keywords, "carat")
			req.Confidence += weightCarat
		}
	}

	// Color: single letter D–M.
	if m := colorRE.FindStringSubmatch(lower); m != nil {
		c := strings.ToUpper(m[1])
		req.Color = &c
		req.Keywords = append(req.Keywords, "color")
		req.Confidence += weightColor
	}

	// Clarity: ordered substring match, first grade wins.
	for _, grade := range Clarities {
		if strings.Contains(lower, strings.ToLower(grade)) {
			g := grade
			req.Clarity = &g
			req.Keywords = append(req.Keywords, "clarity")
			req.Confidence += weightClarity
			break
		}
	}

	// Price: "...k" multiplies by 1000; otherwise a literal "$N" amount.
	if m := priceKRE.FindStringSubmatch(lower); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			p := v * 1000
			req.PriceMax = &p
			req.Keywords = append(req.Keywords, "price")
			req.Confidence += weightPrice
		}
	} else if m := priceDollarRE.FindStringSubmatch(lower); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			p := v
			req.PriceMax = &p
			req.Keywords = append(req.Keywords, "price")
			req.Confidence += weightPrice
		}
	}

	// Generic diamond-context keyword.
	for _, kw := range contextKeywords {
		if strings.Contains(lower, kw) {
			req.Keywords = append(req.Keywords, "diamond")
			req.Confidence += weightKeyword
			break
		}
	}

	return req
}

// parseAmount parses digits with optional comma separators.
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
