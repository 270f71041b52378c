package shadowpay

// Boundary normalization for the settler's JSON records. The backend has
// drifted between snake_case and camelCase field names over time, so each
// field is read tolerating both conventions. Core types never see the
// naming variants; everything is normalized here.

// authorizationRecord mirrors one entry of GET /api/my-authorizations.
type authorizationRecord struct {
	ID int64 `json:"id"`

	UserWallet      string `json:"user_wallet"`
	UserWalletCamel string `json:"userWallet"`

	AuthorizedService      string `json:"authorized_service"`
	AuthorizedServiceCamel string `json:"authorizedService"`

	MaxAmountPerTx      int64 `json:"max_amount_per_tx"`
	MaxAmountPerTxCamel int64 `json:"maxAmountPerTx"`

	MaxDailySpend      int64 `json:"max_daily_spend"`
	MaxDailySpendCamel int64 `json:"maxDailySpend"`

	SpentToday      int64 `json:"spent_today"`
	SpentTodayCamel int64 `json:"spentToday"`

	LastResetDate      string `json:"last_reset_date"`
	LastResetDateCamel string `json:"lastResetDate"`

	ValidUntil      int64 `json:"valid_until"`
	ValidUntilCamel int64 `json:"validUntil"`

	UserSignature      string `json:"user_signature"`
	UserSignatureCamel string `json:"userSignature"`

	Revoked bool `json:"revoked"`

	CreatedAt      int64 `json:"created_at"`
	CreatedAtCamel int64 `json:"createdAt"`
}

func (r *authorizationRecord) normalize() SpendingAuthorization {
	return SpendingAuthorization{
		ID:                r.ID,
		UserWallet:        pickString(r.UserWallet, r.UserWalletCamel),
		AuthorizedService: pickString(r.AuthorizedService, r.AuthorizedServiceCamel),
		MaxAmountPerTx:    pickInt64(r.MaxAmountPerTx, r.MaxAmountPerTxCamel),
		MaxDailySpend:     pickInt64(r.MaxDailySpend, r.MaxDailySpendCamel),
		SpentToday:        pickInt64(r.SpentToday, r.SpentTodayCamel),
		LastResetDate:     pickString(r.LastResetDate, r.LastResetDateCamel),
		ValidUntil:        pickInt64(r.ValidUntil, r.ValidUntilCamel),
		UserSignature:     pickString(r.UserSignature, r.UserSignatureCamel),
		Revoked:           r.Revoked,
		CreatedAt:         pickInt64(r.CreatedAt, r.CreatedAtCamel),
	}
}

// apiKeyRecord mirrors the key-management responses.
type apiKeyRecord struct {
	APIKey      string `json:"api_key"`
	APIKeyCamel string `json:"apiKey"`

	WalletAddress      string `json:"wallet_address"`
	WalletAddressCamel string `json:"walletAddress"`

	TreasuryWallet      string `json:"treasury_wallet"`
	TreasuryWalletCamel string `json:"treasuryWallet"`

	CreatedAt      int64 `json:"created_at"`
	CreatedAtCamel int64 `json:"createdAt"`
}

func (r *apiKeyRecord) normalize() APIKeyInfo {
	return APIKeyInfo{
		APIKey:         pickString(r.APIKey, r.APIKeyCamel),
		WalletAddress:  pickString(r.WalletAddress, r.WalletAddressCamel),
		TreasuryWallet: pickString(r.TreasuryWallet, r.TreasuryWalletCamel),
		CreatedAt:      pickInt64(r.CreatedAt, r.CreatedAtCamel),
	}
}

// escrowRecord mirrors the GET /api/escrow/balance response.
type escrowRecord struct {
	WalletAddress      string `json:"wallet_address"`
	WalletAddressCamel string `json:"walletAddress"`
	Balance            int64  `json:"balance"`
}

func (r *escrowRecord) normalize(fallbackWallet string) EscrowBalance {
	wallet := pickString(r.WalletAddress, r.WalletAddressCamel)
	if wallet == "" {
		wallet = fallbackWallet
	}
	return EscrowBalance{WalletAddress: wallet, Balance: r.Balance}
}

// settleRecord mirrors the POST /settle response.
type settleRecord struct {
	TxHash      string `json:"txHash"`
	TxHashSnake string `json:"tx_hash"`
}

func (r *settleRecord) hash() string {
	return pickString(r.TxHash, r.TxHashSnake)
}

func pickString(snake, camel string) string {
	if snake != "" {
		return snake
	}
	return camel
}

func pickInt64(snake, camel int64) int64 {
	if snake != 0 {
		return snake
	}
	return camel
}
