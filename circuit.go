package shadowpay

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// CircuitTypeSpending selects the spending-compliance circuit at the
// prover.
const CircuitTypeSpending = "spending"

// CircuitInput is the exact payload a proof is generated over. Every
// numeric value is serialized as a decimal string: field elements exceed
// what other runtimes represent losslessly as numbers, and any field
// omitted or altered changes the proof and is rejected by the settler at
// verification.
type CircuitInput struct {
	UserWallet        string `json:"userWallet"`
	AuthorizedService string `json:"authorizedService"`
	Amount            string `json:"amount"`
	MaxAmountPerTx    string `json:"maxAmountPerTx"`
	MaxDailySpend     string `json:"maxDailySpend"`
	SpentToday        string `json:"spentToday"`
	ValidUntil        string `json:"validUntil"`
	Resource          string `json:"resource"`
	AuthorizationID   string `json:"authorizationId"`
}

// BuildCircuitInput binds a payment request to an authorization snapshot.
// Pure: both the blocking and the concurrent payment paths share it.
func BuildCircuitInput(auth *SpendingAuthorization, amount decimal.Decimal, resource string) CircuitInput {
	return CircuitInput{
		UserWallet:        auth.UserWallet,
		AuthorizedService: auth.AuthorizedService,
		Amount:            strconv.FormatInt(SOLToLamports(amount), 10),
		MaxAmountPerTx:    strconv.FormatInt(auth.MaxAmountPerTx, 10),
		MaxDailySpend:     strconv.FormatInt(auth.MaxDailySpend, 10),
		SpentToday:        strconv.FormatInt(auth.SpentToday, 10),
		ValidUntil:        strconv.FormatInt(auth.ValidUntil, 10),
		Resource:          resource,
		AuthorizationID:   strconv.FormatInt(auth.ID, 10),
	}
}
