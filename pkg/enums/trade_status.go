package enums

import "fmt"

// TradeStatus tracks the lifecycle of a two-party trade negotiation.
// Terminal outcomes (finalized, cancelled) delete the record instead of
// being stored as statuses.
type TradeStatus string

const (
	TradeStatusPending TradeStatus = "pending"
	TradeStatusActive  TradeStatus = "active"
)

var validTradeStatuses = []TradeStatus{
	TradeStatusPending,
	TradeStatusActive,
}

// String implements fmt.Stringer.
func (s TradeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TradeStatus.
func (s TradeStatus) IsValid() bool {
	for _, candidate := range validTradeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTradeStatus converts raw input into a TradeStatus.
func ParseTradeStatus(value string) (TradeStatus, error) {
	for _, candidate := range validTradeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trade status %q", value)
}
