package shadowpay

import "github.com/shopspring/decimal"

// LamportsPerSOL is the fixed conversion scale between SOL (major units)
// and lamports (minor units).
const LamportsPerSOL = 1_000_000_000

// SOLToLamports converts a SOL amount to lamports, truncating any
// fractional lamport.
func SOLToLamports(sol decimal.Decimal) int64 {
	return sol.Shift(9).IntPart()
}

// LamportsToSOL converts lamports to SOL. The conversion is exact:
// SOLToLamports(LamportsToSOL(n)) == n for every int64 n.
func LamportsToSOL(lamports int64) decimal.Decimal {
	return decimal.NewFromInt(lamports).Shift(-9)
}
