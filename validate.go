package shadowpay

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DailyLimitError reports a payment that would push today's spending past
// the daily cap. Spent and Limit are included so callers can decide
// whether to wait for the daily reset or reduce the amount.
type DailyLimitError struct {
	Spent     decimal.Decimal // spent today, SOL
	Limit     decimal.Decimal // daily cap, SOL
	Requested decimal.Decimal // requested amount, SOL
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily spending limit exceeded: spent %s SOL, limit %s SOL, requested %s SOL",
		e.Spent, e.Limit, e.Requested)
}

// Is matches the error against ErrDailyLimitExceeded.
func (e *DailyLimitError) Is(target error) bool {
	return target == ErrDailyLimitExceeded
}

// ValidatePayment checks a requested SOL amount against an authorization
// snapshot. Pure: no I/O, no mutation. Checks apply in order, first match
// wins:
//
//  1. inactive authorization (expired or revoked) -> ErrAuthorizationExpired
//  2. amount over the per-transaction cap -> ErrPerTransactionLimit
//  3. amount over the remaining daily budget -> *DailyLimitError
//
// Escrow balance and signature validity are not checked here; the settler
// detects those at settlement.
func ValidatePayment(auth *SpendingAuthorization, amount decimal.Decimal) error {
	if !auth.IsValid() {
		return fmt.Errorf("%w: valid until %d, re-authorize to continue", ErrAuthorizationExpired, auth.ValidUntil)
	}

	lamports := SOLToLamports(amount)

	if lamports > auth.MaxAmountPerTx {
		return fmt.Errorf("%w: payment %s SOL exceeds per-transaction limit %s SOL",
			ErrPerTransactionLimit, amount, auth.MaxAmountPerTxSOL())
	}

	if auth.SpentToday+lamports > auth.MaxDailySpend {
		return &DailyLimitError{
			Spent:     auth.SpentTodaySOL(),
			Limit:     auth.MaxDailySpendSOL(),
			Requested: amount,
		}
	}

	return nil
}
