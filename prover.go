package shadowpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ProofData is a generated proof and its public signals, as produced by
// the prover.
type ProofData struct {
	Proof         json.RawMessage `json:"proof"`
	PublicSignals []string        `json:"publicSignals"`
}

// ProofGenerator generates a zero-knowledge proof over a circuit input.
// ProverClient (HTTP sidecar) and SubprocessProver (local Node.js) both
// implement it; the payment bot accepts either.
type ProofGenerator interface {
	Prove(ctx context.Context, input CircuitInput, circuitType string) (*ProofData, error)
}

// ProverConfig holds the prover sidecar client configuration.
type ProverConfig struct {
	ProverURL     string        // Prover endpoint (default: http://localhost:3001)
	Timeout       time.Duration // Proof request timeout; proofs can take 30-90s (default: 120s)
	HealthTimeout time.Duration // Health check timeout (default: 5s)
	HTTPClient    *http.Client  // Custom HTTP client (optional)
	Logger        *slog.Logger  // Logger (default: slog.Default())
}

// DefaultProverConfig returns a ProverConfig with default values.
func DefaultProverConfig() ProverConfig {
	return ProverConfig{
		ProverURL:     "http://localhost:3001",
		Timeout:       120 * time.Second,
		HealthTimeout: 5 * time.Second,
	}
}

// ProverClient talks to the Node.js prover sidecar over HTTP.
type ProverClient struct {
	config     ProverConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewProverClient creates a new prover sidecar client. It performs no I/O;
// call Health to verify the sidecar is reachable.
func NewProverClient(config ProverConfig) *ProverClient {
	if config.ProverURL == "" {
		config.ProverURL = "http://localhost:3001"
	}
	config.ProverURL = strings.TrimRight(config.ProverURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	if config.HealthTimeout == 0 {
		config.HealthTimeout = 5 * time.Second
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ProverClient{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Health verifies the prover sidecar is running, failing fast with
// ErrProverUnavailable if it is not.
func (p *ProverClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.ProverURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: not running at %s", ErrProverUnavailable, p.config.ProverURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: health check status %d", ErrProverUnavailable, resp.StatusCode)
	}

	p.logger.Debug("prover service available", "url", p.config.ProverURL)
	return nil
}

// Prove generates a proof for the given circuit input. Any failure at this
// boundary wraps ErrProverUnavailable; the caller must not retry blindly,
// because a prior attempt's side effects are unknown.
func (p *ProverClient) Prove(ctx context.Context, input CircuitInput, circuitType string) (*ProofData, error) {
	body := map[string]any{
		"input":       input,
		"circuitType": circuitType,
	}

	p.logger.Info("generating proof", "circuit_type", circuitType)

	var result ProofData
	if err := p.post(ctx, "/prove", body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProverUnavailable, err)
	}

	p.logger.Info("proof generated")
	return &result, nil
}

// Verify checks a proof against its public signals.
func (p *ProverClient) Verify(ctx context.Context, proof json.RawMessage, publicSignals []string, circuitType string) (bool, error) {
	body := map[string]any{
		"proof":         proof,
		"publicSignals": publicSignals,
		"circuitType":   circuitType,
	}

	var result struct {
		Valid bool `json:"valid"`
	}
	if err := p.post(ctx, "/verify", body, &result); err != nil {
		return false, fmt.Errorf("%w: %v", ErrProverUnavailable, err)
	}
	return result.Valid, nil
}

func (p *ProverClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.ProverURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("invalid prover response: %w", err)
		}
	}
	return nil
}
