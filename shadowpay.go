// Package shadowpay provides a Go client for the ShadowPay settlement
// network.
//
// The SDK lets an automated service spend on a user's behalf within a
// pre-registered spending authorization, backed by a zero-knowledge proof
// that the payment complies with the authorization's limits.
//
// # Quick Start
//
//	bot, err := shadowpay.NewPaymentBot(shadowpay.BotConfig{
//	    SettlerURL: "https://shadow.radr.fun/shadowpay",
//	    ProverURL:  "http://localhost:3001",
//	    UserWallet: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
//	    ServiceKey: "MyAgent",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bot.Close()
//
//	txHash, err := bot.Pay(ctx, decimal.NewFromFloat(0.001), "/api/search", nil)
package shadowpay

import "errors"

// Version is the SDK version.
const Version = "0.1.0"

// Common errors returned by the SDK. Errors raised deeper in the call
// chain wrap one of these sentinels; match with errors.Is.
var (
	// ErrInvalidAuthorization is returned when no active spending
	// authorization exists for the (wallet, service) pair. The user must
	// authorize the service before payments can proceed.
	ErrInvalidAuthorization = errors.New("no valid spending authorization")

	// ErrAuthorizationExpired is returned when a matched authorization is
	// inactive, either past its validity window or revoked by the user.
	ErrAuthorizationExpired = errors.New("spending authorization expired or revoked")

	// ErrPerTransactionLimit is returned when a single payment exceeds the
	// authorization's per-transaction cap.
	ErrPerTransactionLimit = errors.New("per-transaction limit exceeded")

	// ErrDailyLimitExceeded is returned when a payment would push today's
	// spending past the daily cap. The concrete error is a *DailyLimitError
	// carrying the spent and limit amounts.
	ErrDailyLimitExceeded = errors.New("daily spending limit exceeded")

	// ErrInsufficientBalance is returned when the settler reports the
	// escrow balance cannot cover the payment.
	ErrInsufficientBalance = errors.New("insufficient escrow balance")

	// ErrInvalidAPIKey is returned on 401 responses from the settler.
	ErrInvalidAPIKey = errors.New("invalid or missing API key")

	// ErrProverUnavailable is returned when the prover boundary is
	// unreachable or errors. The bot never retries proof generation
	// itself; the caller must resubmit the whole payment.
	ErrProverUnavailable = errors.New("prover service unavailable")

	// ErrProver is returned when a local prover backend fails to produce
	// a proof.
	ErrProver = errors.New("proof generation failed")

	// ErrNodeNotFound is returned when the Node.js runtime required by the
	// subprocess prover cannot be located.
	ErrNodeNotFound = errors.New("node runtime not found")

	// ErrNetwork is returned on transport-level failures talking to the
	// settler. Idempotent GETs are retried with backoff before this
	// surfaces; settlement POSTs are never retried.
	ErrNetwork = errors.New("network request failed")

	// ErrSettlement is returned when the settler rejects a settlement.
	ErrSettlement = errors.New("payment settlement failed")
)
