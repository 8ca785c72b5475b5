package model

import "github.com/holiman/uint256"

// SwapAmounts is the outcome of pricing a swap.
type SwapAmounts struct {
	AmountOut   *uint256.Int `json:"amount_out"`
	LPFee       *uint256.Int `json:"lp_fee"`
	ProtocolFee *uint256.Int `json:"protocol_fee"`
}

// Gross returns the output amount before fees.
func (s SwapAmounts) Gross() *uint256.Int {
	total := new(uint256.Int)
	for _, v := range []*uint256.Int{s.AmountOut, s.LPFee, s.ProtocolFee} {
		if v != nil {
			total.Add(total, v)
		}
	}
	return total
}

// Redemption is the payout of a liquidity removal.
type Redemption struct {
	Amount *uint256.Int `json:"amount"`
	Fees   *uint256.Int `json:"fees"`
}

// Transfer moves Amount of Token between two accounts on the token ledger.
type Transfer struct {
	Token  Principal    `json:"token"`
	From   Principal    `json:"from"`
	To     Principal    `json:"to"`
	Amount *uint256.Int `json:"amount"`
}

// Balance is one ledger balance entry.
type Balance struct {
	Token   Principal    `json:"token"`
	Account Principal    `json:"account"`
	Amount  *uint256.Int `json:"amount"`
}
