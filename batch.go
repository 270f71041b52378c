package shadowpay

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// PaymentRequest is one payment in a batch.
type PaymentRequest struct {
	Amount   decimal.Decimal // SOL
	Resource string
	Metadata map[string]any
}

// BatchResult holds the outcome of one batch payment. Exactly one of
// TxHash and Err is set.
type BatchResult struct {
	Request PaymentRequest
	TxHash  string
	Err     error
}

// PayBatch makes multiple payments concurrently. The result slice has the
// same length and order as the input; each slot independently holds a
// transaction hash or the error for that payment. A failed payment never
// cancels or delays its siblings, and PayBatch itself never fails: partial
// failure is reported per item.
//
// Every payment fetches its own authorization snapshot (the cache is
// dropped per use), so concurrent validations can race on a stale
// spent_today. The settler rejects any collective overflow of the daily
// cap.
func (b *PaymentBot) PayBatch(ctx context.Context, requests []PaymentRequest) []BatchResult {
	results := make([]BatchResult, len(requests))
	var wg sync.WaitGroup

	for i, req := range requests {
		wg.Add(1)
		go func(idx int, r PaymentRequest) {
			defer wg.Done()

			txHash, err := b.Pay(ctx, r.Amount, r.Resource, r.Metadata)
			results[idx] = BatchResult{Request: r, TxHash: txHash, Err: err}
			if err != nil {
				b.logger.Error("batch payment failed", "index", idx, "resource", r.Resource, "error", err)
			}
		}(i, req)
	}

	wg.Wait()
	return results
}
