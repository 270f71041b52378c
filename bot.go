package shadowpay

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// BotConfig holds the payment bot configuration. Client and Prover may be
// injected; when nil they are built from SettlerURL and ProverURL.
type BotConfig struct {
	SettlerURL string
	ProverURL  string
	UserWallet string // Wallet being spent from
	ServiceKey string // Identity of the spending service
	Client     *Client
	Prover     ProofGenerator
	Logger     *slog.Logger
	Metrics    *Metrics
}

// PaymentBot makes automated payments on behalf of a user, within the
// limits of a spending authorization registered at the settler.
//
// The bot caches at most one fetched authorization. The cache lives for
// a single payment attempt: it is dropped unconditionally once a proof
// attempt begins, because the settlement that follows changes spent_today
// at the settler and the cached snapshot would validate against stale
// spending. Concurrent Pay calls therefore each fetch fresh; they can
// still collectively exceed the daily cap against a stale spent_today,
// and the settler is the final authority that rejects the overflow.
type PaymentBot struct {
	client     *Client
	prover     ProofGenerator
	userWallet string
	serviceKey string
	logger     *slog.Logger
	metrics    *Metrics

	authCache atomic.Pointer[SpendingAuthorization]
}

// NewPaymentBot creates a payment bot for one (wallet, service) pair.
func NewPaymentBot(config BotConfig) (*PaymentBot, error) {
	if config.UserWallet == "" {
		return nil, fmt.Errorf("user wallet is required")
	}
	if config.ServiceKey == "" {
		return nil, fmt.Errorf("service key is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := config.Client
	if client == nil {
		var err error
		client, err = NewClient(Config{SettlerURL: config.SettlerURL, Logger: logger})
		if err != nil {
			return nil, err
		}
	}

	prover := config.Prover
	if prover == nil {
		prover = NewProverClient(ProverConfig{ProverURL: config.ProverURL, Logger: logger})
	}

	return &PaymentBot{
		client:     client,
		prover:     prover,
		userWallet: config.UserWallet,
		serviceKey: config.ServiceKey,
		logger:     logger,
		metrics:    config.Metrics,
	}, nil
}

// Client returns the underlying settler client.
func (b *PaymentBot) Client() *Client {
	return b.client
}

// Close releases the underlying settler client.
func (b *PaymentBot) Close() error {
	return b.client.Close()
}

// CheckAuthorization fetches the wallet's authorizations from the settler
// and returns the first active one matching the bot's service key, caching
// it for the next payment attempt. Returns ErrInvalidAuthorization when
// none matches.
func (b *PaymentBot) CheckAuthorization(ctx context.Context) (*SpendingAuthorization, error) {
	auths, err := b.client.ListAuthorizations(ctx, b.userWallet)
	if err != nil {
		return nil, err
	}

	for i := range auths {
		auth := &auths[i]
		if auth.AuthorizedService == b.serviceKey && auth.IsValid() {
			b.authCache.Store(auth)
			b.logger.Info("authorization found",
				"service", b.serviceKey,
				"max_daily_sol", auth.MaxDailySpendSOL())
			return auth, nil
		}
	}

	b.logger.Warn("no valid authorization found", "service", b.serviceKey)
	return nil, fmt.Errorf("%w: service %q must be authorized by the user first",
		ErrInvalidAuthorization, b.serviceKey)
}

// Pay makes an automated payment, no user confirmation required. The
// amount is SOL; resource identifies what is being paid for; metadata is
// merged into the settlement record (caller keys win on conflict).
// Returns the settlement transaction hash.
//
// Steps run strictly in sequence: resolve authorization, validate against
// its limits, build the circuit input, generate the proof, settle. A
// budget rejection surfaces before any proof request is made. A prover
// failure is returned as ErrProverUnavailable and is never retried here;
// resubmit the whole payment once the prover is confirmed running.
func (b *PaymentBot) Pay(ctx context.Context, amount decimal.Decimal, resource string, metadata map[string]any) (string, error) {
	auth := b.authCache.Load()
	if auth == nil {
		var err error
		auth, err = b.CheckAuthorization(ctx)
		if err != nil {
			b.metrics.recordPayment(outcomeUnauthorized)
			return "", err
		}
	}

	if err := ValidatePayment(auth, amount); err != nil {
		b.logger.Warn("payment rejected", "amount_sol", amount, "resource", resource, "error", err)
		b.metrics.recordPayment(outcomeRejected)
		return "", err
	}

	// From here on the settlement may change spent_today at the settler,
	// so the cached snapshot must not survive this attempt.
	defer b.authCache.Store(nil)

	input := BuildCircuitInput(auth, amount, resource)

	b.logger.Info("generating proof for payment", "amount_sol", amount, "resource", resource)
	proofStart := time.Now()
	proofData, err := b.prover.Prove(ctx, input, CircuitTypeSpending)
	b.metrics.observeProof(time.Since(proofStart))
	if err != nil {
		b.metrics.recordPayment(outcomeProverFailed)
		return "", err
	}

	paymentMetadata := map[string]any{
		"userWallet":      b.userWallet,
		"serviceAuth":     b.serviceKey,
		"authorizationId": auth.ID,
	}
	for k, v := range metadata {
		paymentMetadata[k] = v
	}

	b.logger.Info("settling payment", "amount_sol", amount)
	settleStart := time.Now()
	txHash, err := b.client.SettlePayment(ctx, proofData.Proof, amount, resource, paymentMetadata)
	b.metrics.observeSettlement(time.Since(settleStart))
	if err != nil {
		b.metrics.recordPayment(outcomeSettlementFailed)
		return "", err
	}

	b.logger.Info("payment settled", "tx_hash", txHash)
	b.metrics.recordPayment(outcomeSettled)
	return txHash, nil
}

// SpendingToday returns the amount spent today in SOL, zero when no
// active authorization exists.
func (b *PaymentBot) SpendingToday(ctx context.Context) (decimal.Decimal, error) {
	auth, err := b.CheckAuthorization(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return auth.SpentTodaySOL(), nil
}

// RemainingLimit returns the remaining daily budget in SOL.
func (b *PaymentBot) RemainingLimit(ctx context.Context) (decimal.Decimal, error) {
	auth, err := b.CheckAuthorization(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return auth.RemainingTodaySOL(), nil
}

// AuthorizationInfo returns a snapshot of the active authorization's
// limits and standing.
func (b *PaymentBot) AuthorizationInfo(ctx context.Context) (*AuthorizationInfo, error) {
	auth, err := b.CheckAuthorization(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthorizationInfo{
		Service:           auth.AuthorizedService,
		MaxPerTransaction: auth.MaxAmountPerTxSOL(),
		MaxDailySpend:     auth.MaxDailySpendSOL(),
		SpentToday:        auth.SpentTodaySOL(),
		RemainingToday:    auth.RemainingTodaySOL(),
		ValidUntil:        auth.ValidUntil,
		Valid:             auth.IsValid(),
	}, nil
}
