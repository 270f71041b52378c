package shadowpay

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBuildCircuitInput(t *testing.T) {
	auth := &SpendingAuthorization{
		ID:                42,
		UserWallet:        "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		AuthorizedService: "trading-bot",
		MaxAmountPerTx:    10_000_000,
		MaxDailySpend:     100_000_000,
		SpentToday:        5_000_000,
		ValidUntil:        1_900_000_000,
	}

	input := BuildCircuitInput(auth, decimal.RequireFromString("0.002"), "/api/search")

	want := CircuitInput{
		UserWallet:        auth.UserWallet,
		AuthorizedService: "trading-bot",
		Amount:            "2000000",
		MaxAmountPerTx:    "10000000",
		MaxDailySpend:     "100000000",
		SpentToday:        "5000000",
		ValidUntil:        "1900000000",
		Resource:          "/api/search",
		AuthorizationID:   "42",
	}
	if input != want {
		t.Errorf("BuildCircuitInput() = %+v, want %+v", input, want)
	}
}

func TestCircuitInputJSONFieldNames(t *testing.T) {
	// The prover matches fields by exact camelCase name; a renamed field
	// produces a proof over the wrong values.
	data, err := json.Marshal(CircuitInput{Amount: "1"})
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{
		"userWallet", "authorizedService", "amount", "maxAmountPerTx",
		"maxDailySpend", "spentToday", "validUntil", "resource", "authorizationId",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("serialized circuit input missing field %q", key)
		}
	}
	if len(decoded) != 9 {
		t.Errorf("serialized circuit input has %d fields, want 9", len(decoded))
	}
}
