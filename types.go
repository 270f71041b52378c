package shadowpay

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpendingAuthorization is a budget grant issued by a user for one
// (wallet, service) pair. All monetary fields are lamports. SpentToday is
// owned by the settler and only advisory here: the local copy may be stale
// between fetch and use, and the settler remains the final authority.
type SpendingAuthorization struct {
	ID                int64  `json:"id"`
	UserWallet        string `json:"user_wallet"`
	AuthorizedService string `json:"authorized_service"`
	MaxAmountPerTx    int64  `json:"max_amount_per_tx"`
	MaxDailySpend     int64  `json:"max_daily_spend"`
	SpentToday        int64  `json:"spent_today"`
	LastResetDate     string `json:"last_reset_date"`
	ValidUntil        int64  `json:"valid_until"` // Unix timestamp
	UserSignature     string `json:"user_signature"`
	Revoked           bool   `json:"revoked"`
	CreatedAt         int64  `json:"created_at"`
}

// IsValid reports whether the authorization is active: not revoked and
// not past its validity window.
func (a *SpendingAuthorization) IsValid() bool {
	return !a.Revoked && time.Now().Unix() < a.ValidUntil
}

// MaxAmountPerTxSOL returns the per-transaction cap in SOL.
func (a *SpendingAuthorization) MaxAmountPerTxSOL() decimal.Decimal {
	return LamportsToSOL(a.MaxAmountPerTx)
}

// MaxDailySpendSOL returns the daily cap in SOL.
func (a *SpendingAuthorization) MaxDailySpendSOL() decimal.Decimal {
	return LamportsToSOL(a.MaxDailySpend)
}

// SpentTodaySOL returns today's spending in SOL.
func (a *SpendingAuthorization) SpentTodaySOL() decimal.Decimal {
	return LamportsToSOL(a.SpentToday)
}

// RemainingTodaySOL returns the remaining daily budget in SOL. The value
// can be negative when the cached SpentToday is stale.
func (a *SpendingAuthorization) RemainingTodaySOL() decimal.Decimal {
	return LamportsToSOL(a.MaxDailySpend - a.SpentToday)
}

// Record exports the authorization as a snake_case map, the shape the
// settler's registration endpoints expect.
func (a *SpendingAuthorization) Record() map[string]any {
	return map[string]any{
		"id":                 a.ID,
		"user_wallet":        a.UserWallet,
		"authorized_service": a.AuthorizedService,
		"max_amount_per_tx":  a.MaxAmountPerTx,
		"max_daily_spend":    a.MaxDailySpend,
		"spent_today":        a.SpentToday,
		"last_reset_date":    a.LastResetDate,
		"valid_until":        a.ValidUntil,
		"user_signature":     a.UserSignature,
		"revoked":            a.Revoked,
		"created_at":         a.CreatedAt,
	}
}

// AuthorizationInfo is a caller-facing snapshot of an authorization's
// limits and current standing, all amounts in SOL.
type AuthorizationInfo struct {
	Service           string          `json:"service"`
	MaxPerTransaction decimal.Decimal `json:"max_per_transaction_sol"`
	MaxDailySpend     decimal.Decimal `json:"max_daily_spend_sol"`
	SpentToday        decimal.Decimal `json:"spent_today_sol"`
	RemainingToday    decimal.Decimal `json:"remaining_today_sol"`
	ValidUntil        int64           `json:"valid_until"`
	Valid             bool            `json:"is_valid"`
}

// EscrowBalance is a wallet's escrow balance at the settler.
type EscrowBalance struct {
	WalletAddress string `json:"wallet_address"`
	Balance       int64  `json:"balance"` // lamports
}

// BalanceSOL returns the escrow balance in SOL.
func (b *EscrowBalance) BalanceSOL() decimal.Decimal {
	return LamportsToSOL(b.Balance)
}

// APIKeyInfo describes an API key issued by the settler.
type APIKeyInfo struct {
	APIKey         string `json:"api_key"`
	WalletAddress  string `json:"wallet_address,omitempty"`
	TreasuryWallet string `json:"treasury_wallet,omitempty"`
	CreatedAt      int64  `json:"created_at,omitempty"`
}

// PaymentResult summarizes one payment outcome for reporting.
type PaymentResult struct {
	Success   bool            `json:"success"`
	TxHash    string          `json:"tx_hash,omitempty"`
	NetworkID string          `json:"network_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	AmountSOL decimal.Decimal `json:"amount_sol"`
	Resource  string          `json:"resource,omitempty"`
}
