// Package shadowpaytest provides in-memory settler and prover test
// doubles behind httptest servers, for exercising payment flows without
// the real services.
package shadowpaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	shadowpay "github.com/radr-fun/shadowpay/sdk/go"
)

// Payment is one settled payment recorded by the mock settler.
type Payment struct {
	Wallet   string
	Service  string
	Amount   decimal.Decimal
	Resource string
	TxHash   string
	Metadata map[string]any
}

// Settler is an in-memory system of record: per-wallet authorizations,
// escrow balances, and a settlement ledger that applies each settled
// amount to the matching authorization's spent_today.
type Settler struct {
	mu         sync.Mutex
	auths      map[string][]shadowpay.SpendingAuthorization
	balances   map[string]int64
	payments   []Payment
	txCounter  int
	listCalls  int
	settleFail string

	srv *httptest.Server
}

// NewSettler starts a mock settler.
func NewSettler() *Settler {
	s := &Settler{
		auths:    make(map[string][]shadowpay.SpendingAuthorization),
		balances: make(map[string]int64),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/my-authorizations/{wallet}", s.handleList)
	mux.HandleFunc("GET /api/escrow/balance/{wallet}", s.handleBalance)
	mux.HandleFunc("POST /settle", s.handleSettle)
	mux.HandleFunc("POST /verify", s.handleVerify)
	mux.HandleFunc("POST /api/authorize-spending", s.handleAuthorize)
	mux.HandleFunc("POST /api/revoke-authorization", s.handleRevoke)
	mux.HandleFunc("GET /supported", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"x402": true, "shadowid": true})
	})

	s.srv = httptest.NewServer(mux)
	return s
}

// URL returns the mock settler's base URL.
func (s *Settler) URL() string { return s.srv.URL }

// Close shuts the mock settler down.
func (s *Settler) Close() { s.srv.Close() }

// AuthorizeOption tweaks an authorization created by Authorize.
type AuthorizeOption func(*shadowpay.SpendingAuthorization)

// WithValidUntil overrides the validity window's end.
func WithValidUntil(unix int64) AuthorizeOption {
	return func(a *shadowpay.SpendingAuthorization) { a.ValidUntil = unix }
}

// WithRevoked marks the authorization revoked.
func WithRevoked() AuthorizeOption {
	return func(a *shadowpay.SpendingAuthorization) { a.Revoked = true }
}

// WithSpentToday seeds today's spending in SOL.
func WithSpentToday(sol decimal.Decimal) AuthorizeOption {
	return func(a *shadowpay.SpendingAuthorization) { a.SpentToday = shadowpay.SOLToLamports(sol) }
}

// Authorize registers a spending authorization for (wallet, service) with
// the given SOL caps, valid for 30 days unless overridden.
func (s *Settler) Authorize(wallet, service string, maxPerTx, maxDaily decimal.Decimal, opts ...AuthorizeOption) shadowpay.SpendingAuthorization {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	auth := shadowpay.SpendingAuthorization{
		ID:                int64(len(s.auths[wallet]) + 1),
		UserWallet:        wallet,
		AuthorizedService: service,
		MaxAmountPerTx:    shadowpay.SOLToLamports(maxPerTx),
		MaxDailySpend:     shadowpay.SOLToLamports(maxDaily),
		SpentToday:        0,
		LastResetDate:     now.Format("2006-01-02"),
		ValidUntil:        now.Add(30 * 24 * time.Hour).Unix(),
		UserSignature:     "mock_signature",
		Revoked:           false,
		CreatedAt:         now.Unix(),
	}
	for _, opt := range opts {
		opt(&auth)
	}

	s.auths[wallet] = append(s.auths[wallet], auth)
	return auth
}

// Revoke marks every authorization for (wallet, service) revoked.
func (s *Settler) Revoke(wallet, service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.auths[wallet] {
		if s.auths[wallet][i].AuthorizedService == service {
			s.auths[wallet][i].Revoked = true
		}
	}
}

// SetBalance sets a wallet's escrow balance in SOL.
func (s *Settler) SetBalance(wallet string, sol decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[wallet] = shadowpay.SOLToLamports(sol)
}

// Payments returns all settled payments in settlement order.
func (s *Settler) Payments() []Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Payment, len(s.payments))
	copy(out, s.payments)
	return out
}

// ListCalls returns how many authorization-list requests were served,
// which tells a test whether a bot re-fetched or used its cache.
func (s *Settler) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// FailSettlementsWith makes every subsequent settlement fail with the
// given error message. Pass the empty string to restore normal behavior.
func (s *Settler) FailSettlementsWith(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleFail = msg
}

func (s *Settler) handleList(w http.ResponseWriter, r *http.Request) {
	wallet := r.PathValue("wallet")

	s.mu.Lock()
	s.listCalls++
	auths := make([]shadowpay.SpendingAuthorization, len(s.auths[wallet]))
	copy(auths, s.auths[wallet])
	s.mu.Unlock()

	records := make([]map[string]any, 0, len(auths))
	for i := range auths {
		records = append(records, auths[i].Record())
	}
	writeJSON(w, map[string]any{"authorizations": records})
}

func (s *Settler) handleBalance(w http.ResponseWriter, r *http.Request) {
	wallet := r.PathValue("wallet")

	s.mu.Lock()
	balance := s.balances[wallet]
	s.mu.Unlock()

	writeJSON(w, map[string]any{"wallet_address": wallet, "balance": balance})
}

func (s *Settler) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Proof    json.RawMessage `json:"proof"`
		Amount   string          `json:"amount"`
		Resource string          `json:"resource"`
		Metadata map[string]any  `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settlement request")
		return
	}
	if len(req.Proof) == 0 || string(req.Proof) == "null" {
		writeError(w, http.StatusBadRequest, "missing proof")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	lamports := shadowpay.SOLToLamports(amount)

	wallet, _ := req.Metadata["userWallet"].(string)
	service, _ := req.Metadata["serviceAuth"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settleFail != "" {
		writeError(w, http.StatusBadRequest, s.settleFail)
		return
	}

	authIdx := -1
	for i := range s.auths[wallet] {
		a := &s.auths[wallet][i]
		if a.AuthorizedService == service && a.IsValid() {
			authIdx = i
			break
		}
	}
	if authIdx == -1 {
		writeError(w, http.StatusBadRequest, "no valid authorization")
		return
	}

	auth := &s.auths[wallet][authIdx]
	// The settler is the final authority on the daily cap; a stale client
	// validation does not bypass this.
	if auth.SpentToday+lamports > auth.MaxDailySpend {
		writeError(w, http.StatusBadRequest, "daily limit exceeded")
		return
	}
	if balance, ok := s.balances[wallet]; ok && balance < lamports {
		writeError(w, http.StatusBadRequest, "insufficient escrow balance")
		return
	}

	auth.SpentToday += lamports
	if balance, ok := s.balances[wallet]; ok {
		s.balances[wallet] = balance - lamports
	}

	s.txCounter++
	txHash := fmt.Sprintf("mock_tx_%d_%s", s.txCounter, strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	s.payments = append(s.payments, Payment{
		Wallet:   wallet,
		Service:  service,
		Amount:   amount,
		Resource: req.Resource,
		TxHash:   txHash,
		Metadata: req.Metadata,
	})

	writeJSON(w, map[string]any{"txHash": txHash})
}

func (s *Settler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Proof json.RawMessage `json:"proof"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Proof) == 0 {
		writeError(w, http.StatusBadRequest, "missing proof")
		return
	}
	writeJSON(w, map[string]any{"valid": true})
}

func (s *Settler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserWallet        string `json:"user_wallet"`
		AuthorizedService string `json:"authorized_service"`
		MaxAmountPerTx    string `json:"max_amount_per_tx"`
		MaxDailySpend     string `json:"max_daily_spend"`
		ValidUntil        int64  `json:"valid_until"`
		UserSignature     string `json:"user_signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid authorization request")
		return
	}
	if req.UserSignature == "" {
		writeError(w, http.StatusBadRequest, "missing user signature")
		return
	}

	maxPerTx, err := decimal.NewFromString(req.MaxAmountPerTx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid max_amount_per_tx")
		return
	}
	maxDaily, err := decimal.NewFromString(req.MaxDailySpend)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid max_daily_spend")
		return
	}

	auth := s.Authorize(req.UserWallet, req.AuthorizedService, maxPerTx, maxDaily,
		WithValidUntil(req.ValidUntil))
	writeJSON(w, map[string]any{"success": true, "authorization_id": auth.ID})
}

func (s *Settler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserWallet        string `json:"user_wallet"`
		AuthorizedService string `json:"authorized_service"`
		UserSignature     string `json:"user_signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid revocation request")
		return
	}
	s.Revoke(req.UserWallet, req.AuthorizedService)
	writeJSON(w, map[string]any{"success": true})
}

// Prover is a mock proof sidecar.
type Prover struct {
	mu         sync.Mutex
	healthy    bool
	failProofs bool
	proveCalls int

	srv *httptest.Server
}

// NewProver starts a mock prover that returns canned proofs.
func NewProver() *Prover {
	p := &Prover{healthy: true}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		healthy := p.healthy
		p.mu.Unlock()
		if !healthy {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]any{"status": "ok"})
	})
	mux.HandleFunc("POST /prove", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.proveCalls++
		fail := p.failProofs
		p.mu.Unlock()
		if fail {
			http.Error(w, "proving failed", http.StatusInternalServerError)
			return
		}

		var req struct {
			Input       shadowpay.CircuitInput `json:"input"`
			CircuitType string                 `json:"circuitType"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid prove request")
			return
		}
		writeJSON(w, map[string]any{
			"proof":         map[string]any{"pi_a": []string{"1", "2"}, "pi_b": [][]string{{"3", "4"}}, "pi_c": []string{"5", "6"}},
			"publicSignals": []string{req.Input.Amount, req.Input.AuthorizationID},
		})
	})
	mux.HandleFunc("POST /verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"valid": true})
	})

	p.srv = httptest.NewServer(mux)
	return p
}

// URL returns the mock prover's base URL.
func (p *Prover) URL() string { return p.srv.URL }

// Close shuts the mock prover down.
func (p *Prover) Close() { p.srv.Close() }

// SetHealthy controls the /health endpoint.
func (p *Prover) SetHealthy(healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthy = healthy
}

// FailProofs makes /prove return errors.
func (p *Prover) FailProofs(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failProofs = fail
}

// ProveCalls returns how many proof requests were served.
func (p *Prover) ProveCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proveCalls
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
