package domain

import "strings"

// Side identifies one of the two binary outcomes of an up/down market.
type Side string

const (
	SideUp   Side = "up"
	SideDown Side = "down"
)

// Sides lists both sides in canonical order.
var Sides = []Side{SideUp, SideDown}

// ParseSide matches a raw outcome label against the two known outcome
// tokens, case-insensitively. Returns ("", false) for anything else.
func ParseSide(label string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case string(SideUp):
		return SideUp, true
	case string(SideDown):
		return SideDown, true
	}
	return "", false
}
