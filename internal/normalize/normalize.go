// Package normalize converts heterogeneous raw log rows into canonical
// epoch-millisecond timestamps, prices and side classifications. All
// functions are pure; malformed rows yield (zero, false) and the caller
// is responsible for skip counting.
package normalize

import (
	"math"
	"strconv"
	"time"

	"updown-lab/internal/domain"
)

// msThreshold separates second-precision from millisecond-precision
// epoch values: anything >= 5e10 is already milliseconds.
const msThreshold = 5e10

// priceBandEpsilon is the tolerance when checking that a last-trade
// price sits inside the visible bid/ask band.
const priceBandEpsilon = 1e-9

// timestampFields is the preference chain for event timestamps.
var timestampFields = []string{
	"bucket_end_ms",
	"last_event_time_ms",
	"event_time_ms",
	"receive_time_ms",
	"timestamp",
}

// TimestampMs extracts the row's event time in epoch milliseconds,
// walking the field preference chain. Returns false when no field
// yields a usable timestamp.
func TimestampMs(row map[string]any) (int64, bool) {
	for _, field := range timestampFields {
		v, ok := row[field]
		if !ok {
			continue
		}
		if ms, ok := EpochMs(v); ok {
			return ms, true
		}
	}
	return 0, false
}

// EpochMs normalizes a single timestamp value: numeric epoch (seconds or
// milliseconds), numeric string, or RFC3339 date string.
func EpochMs(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return epochFromNumber(t)
	case int64:
		return epochFromNumber(float64(t))
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return epochFromNumber(f)
		}
		// time.Parse with the RFC3339 layout also accepts fractional seconds.
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.UnixMilli(), true
		}
	}
	return 0, false
}

func epochFromNumber(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	if f >= msThreshold {
		return int64(f), true
	}
	return int64(f * 1000), true
}

// Price extracts a canonical price from an odds row. Preference:
// last-trade price when it sits inside the bid/ask band, then bid/ask
// midpoint, then an explicit mid field, then a bare last-trade price.
func Price(row map[string]any) (float64, bool) {
	bid, hasBid := Number(row["best_bid"])
	ask, hasAsk := Number(row["best_ask"])
	last, hasLast := Number(row["last_trade_price"])

	if hasLast && hasBid && hasAsk &&
		last >= bid-priceBandEpsilon && last <= ask+priceBandEpsilon {
		return last, true
	}
	if hasBid && hasAsk {
		return (bid + ask) / 2, true
	}
	if mid, ok := Number(row["mid"]); ok {
		return mid, true
	}
	if hasLast {
		return last, true
	}
	return 0, false
}

// BTCPrice extracts the reference-asset price from a BTC row.
func BTCPrice(row map[string]any) (float64, bool) {
	return Number(row["price"])
}

// Side classifies an odds row as up, down, or neither. The side label is
// taken from the "side" field, falling back to "outcome".
func Side(row map[string]any) (domain.Side, bool) {
	for _, field := range []string{"side", "outcome"} {
		if label, ok := row[field].(string); ok {
			if side, ok := domain.ParseSide(label); ok {
				return side, true
			}
		}
	}
	return "", false
}

// MarketSlug returns the embedded market identity of a row, if any.
func MarketSlug(row map[string]any) (string, bool) {
	slug, ok := row["market_slug"].(string)
	return slug, ok && slug != ""
}

// Number coerces a JSON value (float or numeric string) into a finite float64.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
