package shadowpay

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func activeAuthorization() *SpendingAuthorization {
	return &SpendingAuthorization{
		ID:                1,
		UserWallet:        "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		AuthorizedService: "test-service",
		MaxAmountPerTx:    10_000_000,  // 0.01 SOL
		MaxDailySpend:     100_000_000, // 0.1 SOL
		SpentToday:        0,
		ValidUntil:        time.Now().Add(24 * time.Hour).Unix(),
	}
}

func TestValidatePayment(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SpendingAuthorization)
		amount  string
		wantErr error
	}{
		{
			name:   "within limits",
			amount: "0.005",
		},
		{
			name:    "expired",
			mutate:  func(a *SpendingAuthorization) { a.ValidUntil = time.Now().Add(-time.Hour).Unix() },
			amount:  "0.005",
			wantErr: ErrAuthorizationExpired,
		},
		{
			name:    "revoked",
			mutate:  func(a *SpendingAuthorization) { a.Revoked = true },
			amount:  "0.005",
			wantErr: ErrAuthorizationExpired,
		},
		{
			name:    "over per-transaction cap",
			amount:  "0.02",
			wantErr: ErrPerTransactionLimit,
		},
		{
			name:    "exactly at per-transaction cap",
			amount:  "0.01",
			wantErr: nil,
		},
		{
			name:    "over daily cap",
			mutate:  func(a *SpendingAuthorization) { a.SpentToday = 95_000_000 },
			amount:  "0.01",
			wantErr: ErrDailyLimitExceeded,
		},
		{
			name:    "exactly exhausts daily cap",
			mutate:  func(a *SpendingAuthorization) { a.SpentToday = 90_000_000 },
			amount:  "0.01",
			wantErr: nil,
		},
		{
			// Validity is checked before any budget math.
			name: "expired wins over per-transaction cap",
			mutate: func(a *SpendingAuthorization) {
				a.ValidUntil = time.Now().Add(-time.Hour).Unix()
			},
			amount:  "0.02",
			wantErr: ErrAuthorizationExpired,
		},
		{
			// Per-transaction is checked before daily.
			name:    "per-transaction wins over daily cap",
			mutate:  func(a *SpendingAuthorization) { a.SpentToday = 100_000_000 },
			amount:  "0.02",
			wantErr: ErrPerTransactionLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := activeAuthorization()
			if tt.mutate != nil {
				tt.mutate(auth)
			}

			err := ValidatePayment(auth, decimal.RequireFromString(tt.amount))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidatePayment() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidatePayment() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDailyLimitErrorDetails(t *testing.T) {
	auth := activeAuthorization()
	auth.SpentToday = 95_000_000

	err := ValidatePayment(auth, decimal.RequireFromString("0.01"))

	var dlErr *DailyLimitError
	if !errors.As(err, &dlErr) {
		t.Fatalf("ValidatePayment() = %T, want *DailyLimitError", err)
	}
	if got := dlErr.Spent.String(); got != "0.095" {
		t.Errorf("Spent = %s, want 0.095", got)
	}
	if got := dlErr.Limit.String(); got != "0.1" {
		t.Errorf("Limit = %s, want 0.1", got)
	}
	if got := dlErr.Requested.String(); got != "0.01" {
		t.Errorf("Requested = %s, want 0.01", got)
	}
	if !errors.Is(err, ErrDailyLimitExceeded) {
		t.Error("DailyLimitError does not match ErrDailyLimitExceeded")
	}
}
