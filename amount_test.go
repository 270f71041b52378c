package shadowpay

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSOLToLamports(t *testing.T) {
	tests := []struct {
		name string
		sol  string
		want int64
	}{
		{"one sol", "1", 1_000_000_000},
		{"half sol", "0.5", 500_000_000},
		{"typical micro payment", "0.005", 5_000_000},
		{"single lamport", "0.000000001", 1},
		{"sub-lamport truncates", "0.0000000019", 1},
		{"zero", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := decimal.RequireFromString(tt.sol)
			if got := SOLToLamports(sol); got != tt.want {
				t.Errorf("SOLToLamports(%s) = %d, want %d", tt.sol, got, tt.want)
			}
		})
	}
}

func TestLamportsToSOL(t *testing.T) {
	if got := LamportsToSOL(5_000_000).String(); got != "0.005" {
		t.Errorf("LamportsToSOL(5_000_000) = %s, want 0.005", got)
	}
	if got := LamportsToSOL(1_000_000_000).String(); got != "1" {
		t.Errorf("LamportsToSOL(1_000_000_000) = %s, want 1", got)
	}
}

func TestLamportsRoundTrip(t *testing.T) {
	for _, lamports := range []int64{0, 1, 999_999_999, 1_000_000_000, 123_456_789_012, 1 << 52} {
		if got := SOLToLamports(LamportsToSOL(lamports)); got != lamports {
			t.Errorf("round trip of %d lamports = %d", lamports, got)
		}
	}
}
