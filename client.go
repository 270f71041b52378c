package shadowpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

// Config holds the settler client configuration.
type Config struct {
	SettlerURL     string        // Settler endpoint (default: https://shadow.radr.fun/shadowpay)
	Network        string        // Network identifier (default: solana-mainnet)
	APIKey         string        // Optional API key for authenticated requests
	Timeout        time.Duration // Request timeout (default: 30s)
	MaxRetries     uint64        // Retry attempts for idempotent GETs (default: 3)
	RetryBaseDelay time.Duration // Initial backoff delay (default: 1s)
	HTTPClient     *http.Client  // Custom HTTP client (optional)
	Logger         *slog.Logger  // Logger (default: slog.Default())
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		SettlerURL:     "https://shadow.radr.fun/shadowpay",
		Network:        "solana-mainnet",
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
	}
}

// Client is the HTTP client for the settler service: the remote system of
// record for balances, authorizations, and settlement.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new settler client.
func NewClient(config Config) (*Client, error) {
	if config.SettlerURL == "" {
		config.SettlerURL = "https://shadow.radr.fun/shadowpay"
	}
	config.SettlerURL = strings.TrimRight(config.SettlerURL, "/")
	if config.Network == "" {
		config.Network = "solana-mainnet"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryBaseDelay == 0 {
		config.RetryBaseDelay = time.Second
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Close cleans up client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// apiError is a settler response with a non-retryable error status.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("settler returned status %d: %s", e.Status, e.Message)
}

// do performs one settler request. GETs are retried with exponential
// backoff on transport failures and 5xx responses; everything else runs
// exactly once, because a lost response to a mutating call leaves the
// remote outcome unknown.
func (c *Client) do(ctx context.Context, method, path string, body, out any, requireAuth bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	if method != http.MethodGet {
		return c.doOnce(ctx, method, path, payload, out, requireAuth)
	}

	backoff := retry.WithMaxRetries(c.config.MaxRetries, retry.NewExponential(c.config.RetryBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.doOnce(ctx, method, path, payload, out, requireAuth)
		if errors.Is(err, ErrNetwork) {
			c.logger.Warn("settler request failed, retrying", "method", method, "path", path, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out any, requireAuth bool) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.SettlerURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requireAuth && c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}

	c.logger.Debug("settler request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrInvalidAPIKey
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: server error %d", ErrNetwork, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &apiError{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func errorMessage(body []byte) string {
	var decoded struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != "" {
		return decoded.Error
	}
	return strings.TrimSpace(string(body))
}

// ==================== API key management ====================

// GenerateAPIKey requests a new API key from the settler. Both arguments
// are optional.
func (c *Client) GenerateAPIKey(ctx context.Context, walletAddress, treasuryWallet string) (*APIKeyInfo, error) {
	body := map[string]any{}
	if walletAddress != "" {
		body["walletAddress"] = walletAddress
	}
	if treasuryWallet != "" {
		body["treasuryWallet"] = treasuryWallet
	}

	var rec apiKeyRecord
	if err := c.do(ctx, http.MethodPost, "/v1/keys/new", body, &rec, false); err != nil {
		return nil, err
	}
	info := rec.normalize()
	return &info, nil
}

// APIKeyByWallet fetches the API key registered for a wallet.
func (c *Client) APIKeyByWallet(ctx context.Context, wallet string) (*APIKeyInfo, error) {
	var rec apiKeyRecord
	if err := c.do(ctx, http.MethodGet, "/v1/keys/by-wallet/"+wallet, nil, &rec, false); err != nil {
		return nil, err
	}
	info := rec.normalize()
	return &info, nil
}

// RotateAPIKey exchanges the current API key for a new one.
func (c *Client) RotateAPIKey(ctx context.Context, currentKey string) (*APIKeyInfo, error) {
	var rec apiKeyRecord
	body := map[string]any{"current_key": currentKey}
	if err := c.do(ctx, http.MethodPost, "/v1/keys/rotate", body, &rec, false); err != nil {
		return nil, err
	}
	info := rec.normalize()
	return &info, nil
}

// ==================== Escrow management ====================

// EscrowBalance fetches the escrow balance for a wallet.
func (c *Client) EscrowBalance(ctx context.Context, wallet string) (*EscrowBalance, error) {
	var rec escrowRecord
	if err := c.do(ctx, http.MethodGet, "/api/escrow/balance/"+wallet, nil, &rec, false); err != nil {
		return nil, err
	}
	balance := rec.normalize(wallet)
	return &balance, nil
}

// DepositToEscrow deposits funds into a wallet's escrow account. The
// signature proves the on-chain deposit transaction.
func (c *Client) DepositToEscrow(ctx context.Context, wallet string, amount decimal.Decimal, signature string) (map[string]any, error) {
	body := map[string]any{
		"wallet":    wallet,
		"amount":    amount.String(),
		"signature": signature,
	}
	var result map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/escrow/deposit", body, &result, false); err != nil {
		return nil, err
	}
	return result, nil
}

// ==================== Authorization management ====================

// AuthorizeSpending registers a spending authorization with the settler.
// Build the request with NewAuthorizationBuilder.
func (c *Client) AuthorizeSpending(ctx context.Context, req *AuthorizationRequest) (map[string]any, error) {
	body := map[string]any{
		"user_wallet":        req.UserWallet,
		"authorized_service": req.ServiceName,
		"max_amount_per_tx":  req.MaxAmountPerTx.String(),
		"max_daily_spend":    req.MaxDailySpend.String(),
		"valid_until":        req.ValidUntil,
		"user_signature":     req.UserSignature,
	}
	var result map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/authorize-spending", body, &result, false); err != nil {
		return nil, err
	}
	return result, nil
}

// RevokeAuthorization revokes a previously registered authorization.
func (c *Client) RevokeAuthorization(ctx context.Context, userWallet, serviceName, userSignature string) (map[string]any, error) {
	body := map[string]any{
		"user_wallet":        userWallet,
		"authorized_service": serviceName,
		"user_signature":     userSignature,
	}
	var result map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/revoke-authorization", body, &result, false); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAuthorizations fetches all spending authorizations for a wallet.
func (c *Client) ListAuthorizations(ctx context.Context, wallet string) ([]SpendingAuthorization, error) {
	var decoded struct {
		Authorizations []authorizationRecord `json:"authorizations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/my-authorizations/"+wallet, nil, &decoded, false); err != nil {
		return nil, err
	}

	auths := make([]SpendingAuthorization, 0, len(decoded.Authorizations))
	for i := range decoded.Authorizations {
		auths = append(auths, decoded.Authorizations[i].normalize())
	}
	return auths, nil
}

// ==================== x402 protocol ====================

// VerifyPayment verifies a payment proof without settling it.
func (c *Client) VerifyPayment(ctx context.Context, proof json.RawMessage, metadata map[string]any) (map[string]any, error) {
	body := map[string]any{
		"proof":    proof,
		"metadata": metadata,
	}
	var result map[string]any
	if err := c.do(ctx, http.MethodPost, "/verify", body, &result, false); err != nil {
		return nil, err
	}
	return result, nil
}

// SettlePayment submits a proof for settlement and returns the transaction
// hash. Never retried: a timeout here is ambiguous (the settler may have
// committed) and needs manual reconciliation, not a resubmit.
func (c *Client) SettlePayment(ctx context.Context, proof json.RawMessage, amount decimal.Decimal, resource string, metadata map[string]any) (string, error) {
	body := map[string]any{
		"proof":    proof,
		"amount":   amount.String(),
		"resource": resource,
	}
	if metadata != nil {
		body["metadata"] = metadata
	}

	var rec settleRecord
	if err := c.do(ctx, http.MethodPost, "/settle", body, &rec, false); err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			if strings.Contains(strings.ToLower(ae.Message), "insufficient") {
				return "", fmt.Errorf("%w: %s", ErrInsufficientBalance, ae.Message)
			}
			return "", fmt.Errorf("%w: %s", ErrSettlement, ae.Message)
		}
		return "", err
	}
	return rec.hash(), nil
}

// SupportedFeatures fetches the settler's feature flags.
func (c *Client) SupportedFeatures(ctx context.Context) (map[string]any, error) {
	var result map[string]any
	if err := c.do(ctx, http.MethodGet, "/supported", nil, &result, false); err != nil {
		return nil, err
	}
	return result, nil
}

// ==================== ShadowID ====================

// RegisterShadowID registers a ShadowID commitment for a wallet.
func (c *Client) RegisterShadowID(ctx context.Context, wallet, commitment, signature string) (map[string]any, error) {
	body := map[string]any{
		"wallet":     wallet,
		"commitment": commitment,
		"signature":  signature,
	}
	var result map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/shadowid/register", body, &result, false); err != nil {
		return nil, err
	}
	return result, nil
}

// ShadowIDProof requests a ShadowID membership proof.
func (c *Client) ShadowIDProof(ctx context.Context, wallet, nullifier string) (map[string]any, error) {
	body := map[string]any{
		"wallet":    wallet,
		"nullifier": nullifier,
	}
	var result map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/shadowid/proof", body, &result, false); err != nil {
		return nil, err
	}
	return result, nil
}

// ShadowIDRoot fetches the current ShadowID merkle root.
func (c *Client) ShadowIDRoot(ctx context.Context) (map[string]any, error) {
	var result map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/shadowid/root", nil, &result, false); err != nil {
		return nil, err
	}
	return result, nil
}
