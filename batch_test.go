package shadowpay_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	shadowpay "github.com/radr-fun/shadowpay/sdk/go"
	"github.com/radr-fun/shadowpay/sdk/go/shadowpaytest"
)

func TestPayBatch(t *testing.T) {
	settler := shadowpaytest.NewSettler()
	defer settler.Close()
	prover := shadowpaytest.NewProver()
	defer prover.Close()

	settler.Authorize(testWallet, testService, sol("0.01"), sol("1"))
	bot := newTestBot(t, settler, prover)

	requests := make([]shadowpay.PaymentRequest, 10)
	for i := range requests {
		requests[i] = shadowpay.PaymentRequest{
			Amount:   sol("0.002"),
			Resource: fmt.Sprintf("/api/item/%d", i),
		}
	}

	results := bot.PayBatch(context.Background(), requests)
	if len(results) != 10 {
		t.Fatalf("got %d results, want 10", len(results))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Errorf("payment %d failed: %v", i, res.Err)
			continue
		}
		if res.TxHash == "" {
			t.Errorf("payment %d has no transaction hash", i)
		}
		if res.Request.Resource != fmt.Sprintf("/api/item/%d", i) {
			t.Errorf("result %d holds request %q, order not preserved", i, res.Request.Resource)
		}
	}
	if got := len(settler.Payments()); got != 10 {
		t.Errorf("settler recorded %d payments, want 10", got)
	}
}

func TestPayBatchPartialFailure(t *testing.T) {
	settler := shadowpaytest.NewSettler()
	defer settler.Close()
	prover := shadowpaytest.NewProver()
	defer prover.Close()

	settler.Authorize(testWallet, testService, sol("0.01"), sol("1"))
	bot := newTestBot(t, settler, prover)

	requests := make([]shadowpay.PaymentRequest, 10)
	for i := range requests {
		requests[i] = shadowpay.PaymentRequest{
			Amount:   sol("0.002"),
			Resource: fmt.Sprintf("/api/item/%d", i),
		}
	}
	// One request over the per-transaction cap; it must fail alone.
	requests[5].Amount = sol("0.05")

	results := bot.PayBatch(context.Background(), requests)
	for i, res := range results {
		if i == 5 {
			if !errors.Is(res.Err, shadowpay.ErrPerTransactionLimit) {
				t.Errorf("payment 5 = %v, want ErrPerTransactionLimit", res.Err)
			}
			if res.TxHash != "" {
				t.Errorf("failed payment has tx hash %q", res.TxHash)
			}
			continue
		}
		if res.Err != nil {
			t.Errorf("payment %d failed: %v", i, res.Err)
		}
	}
	if got := len(settler.Payments()); got != 9 {
		t.Errorf("settler recorded %d payments, want 9", got)
	}
}
