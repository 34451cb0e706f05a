package jupiter

import (
	"encoding/json"
	"strconv"
)

// Quote is the validated response of the quote endpoint. Amounts are exact
// base-unit strings and must stay that way; callers parse them into big.Int.
// Raw keeps the untouched response body because the swap endpoint wants the
// quote echoed back verbatim.
type Quote struct {
	InputMint            string `json:"inputMint"`
	InAmount             string `json:"inAmount"`
	OutputMint           string `json:"outputMint"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	SwapMode             string `json:"swapMode"`
	SlippageBps          int    `json:"slippageBps"`
	PriceImpactPct       string `json:"priceImpactPct"`

	Raw json.RawMessage `json:"-"`
}

// PriceImpact returns the quoted price impact as a signed percentage.
// An absent or malformed field reads as zero impact.
func (q *Quote) PriceImpact() float64 {
	if q.PriceImpactPct == "" {
		return 0
	}
	v, err := strconv.ParseFloat(q.PriceImpactPct, 64)
	if err != nil {
		return 0
	}
	return v
}

// SwapTransaction is the built, signable transaction for one quote.
type SwapTransaction struct {
	SwapTransaction           string `json:"swapTransaction"` // base64
	LastValidBlockHeight      int64  `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports int64  `json:"prioritizationFeeLamports,omitempty"`
}

type swapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}
