package enums

import (
	"fmt"
	"strings"
)

// LedgerReason explains why a product's stock changed.
type LedgerReason string

const (
	LedgerReasonOrder      LedgerReason = "order"
	LedgerReasonCancelled  LedgerReason = "cancelled"
	LedgerReasonReturned   LedgerReason = "returned"
	LedgerReasonRestock    LedgerReason = "restock"
	LedgerReasonDamage     LedgerReason = "damage"
	LedgerReasonCorrection LedgerReason = "correction"
	LedgerReasonManualEdit LedgerReason = "manual_edit"
)

var validLedgerReasons = []LedgerReason{
	LedgerReasonOrder,
	LedgerReasonCancelled,
	LedgerReasonReturned,
	LedgerReasonRestock,
	LedgerReasonDamage,
	LedgerReasonCorrection,
	LedgerReasonManualEdit,
}

// String implements fmt.Stringer.
func (r LedgerReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known LedgerReason.
func (r LedgerReason) IsValid() bool {
	for _, candidate := range validLedgerReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsManual reports whether staff may record the reason through a stock adjustment.
func (r LedgerReason) IsManual() bool {
	switch r {
	case LedgerReasonRestock, LedgerReasonDamage, LedgerReasonCorrection, LedgerReasonManualEdit:
		return true
	default:
		return false
	}
}

// ParseLedgerReason converts raw input into a LedgerReason.
func ParseLedgerReason(value string) (LedgerReason, error) {
	for _, candidate := range validLedgerReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger reason %q", value)
}

// LedgerReasonForTerminal maps a terminal order status to the ledger reason of
// its restoring entries.
func LedgerReasonForTerminal(status OrderStatus) (LedgerReason, error) {
	if !status.IsTerminal() {
		return "", fmt.Errorf("status %q is not terminal", status)
	}
	return LedgerReason(strings.ToLower(string(status))), nil
}
