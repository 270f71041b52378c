package shadowpay

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuthorizationRequest is a spending grant the user registers with the
// settler: which service may spend, within which caps, until when. Amounts
// are SOL. UserSignature carries the user's signed consent over the grant.
type AuthorizationRequest struct {
	UserWallet     string
	ServiceName    string
	MaxAmountPerTx decimal.Decimal
	MaxDailySpend  decimal.Decimal
	ValidUntil     int64 // Unix timestamp
	UserSignature  string
	RequestID      string
}

// Validate checks the request structure before it is signed or submitted.
func (r *AuthorizationRequest) Validate() error {
	if !ValidWalletAddress(r.UserWallet) {
		return errors.New("user wallet must be a base58 address (32-44 characters)")
	}
	if r.ServiceName == "" {
		return errors.New("service name is required")
	}
	if r.MaxAmountPerTx.IsNegative() || r.MaxAmountPerTx.IsZero() {
		return errors.New("per-transaction cap must be positive")
	}
	if r.MaxDailySpend.IsNegative() || r.MaxDailySpend.IsZero() {
		return errors.New("daily cap must be positive")
	}
	if r.ValidUntil <= time.Now().Unix() {
		return errors.New("validity window must end in the future")
	}
	return nil
}

// Sign sets UserSignature to an ES256 JWT over the grant fields, signed
// with the user's wallet key. The settler verifies the signature against
// the wallet's registered public key.
func (r *AuthorizationRequest) Sign(privateKey *ecdsa.PrivateKey) error {
	if err := r.Validate(); err != nil {
		return err
	}

	claims := jwt.MapClaims{
		"sub":               r.UserWallet,
		"svc":               r.ServiceName,
		"max_amount_per_tx": strconv.FormatInt(SOLToLamports(r.MaxAmountPerTx), 10),
		"max_daily_spend":   strconv.FormatInt(SOLToLamports(r.MaxDailySpend), 10),
		"iat":               time.Now().Unix(),
		"exp":               r.ValidUntil,
		"jti":               r.RequestID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign authorization: %w", err)
	}
	r.UserSignature = signed
	return nil
}

// ValidWalletAddress reports whether the address looks like a base58
// Solana wallet address.
func ValidWalletAddress(address string) bool {
	return len(address) >= 32 && len(address) <= 44
}

// AuthorizationBuilder provides a fluent interface for building
// authorization requests.
type AuthorizationBuilder struct {
	wallet     string
	service    string
	maxPerTx   decimal.Decimal
	maxDaily   decimal.Decimal
	validUntil int64
}

// NewAuthorizationBuilder creates a builder with a 30-day validity window.
func NewAuthorizationBuilder() *AuthorizationBuilder {
	return &AuthorizationBuilder{
		validUntil: time.Now().Add(30 * 24 * time.Hour).Unix(),
	}
}

// ForWallet sets the granting user's wallet address.
func (b *AuthorizationBuilder) ForWallet(wallet string) *AuthorizationBuilder {
	b.wallet = wallet
	return b
}

// Service sets the service being authorized to spend.
func (b *AuthorizationBuilder) Service(name string) *AuthorizationBuilder {
	b.service = name
	return b
}

// MaxPerTransaction sets the per-transaction cap in SOL.
func (b *AuthorizationBuilder) MaxPerTransaction(sol decimal.Decimal) *AuthorizationBuilder {
	b.maxPerTx = sol
	return b
}

// MaxDaily sets the daily cap in SOL.
func (b *AuthorizationBuilder) MaxDaily(sol decimal.Decimal) *AuthorizationBuilder {
	b.maxDaily = sol
	return b
}

// ValidFor sets the validity window from now.
func (b *AuthorizationBuilder) ValidFor(d time.Duration) *AuthorizationBuilder {
	b.validUntil = time.Now().Add(d).Unix()
	return b
}

// ValidUntil sets an absolute expiry timestamp.
func (b *AuthorizationBuilder) ValidUntil(unix int64) *AuthorizationBuilder {
	b.validUntil = unix
	return b
}

// Build creates the authorization request.
func (b *AuthorizationBuilder) Build() (*AuthorizationRequest, error) {
	req := &AuthorizationRequest{
		UserWallet:     b.wallet,
		ServiceName:    b.service,
		MaxAmountPerTx: b.maxPerTx,
		MaxDailySpend:  b.maxDaily,
		ValidUntil:     b.validUntil,
		RequestID:      "auth_" + uuid.New().String()[:12],
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
