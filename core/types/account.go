package types

import "math/big"

// Account holds the per-address balances tracked by the node: the fungible
// payment token balance and the number of collectibles currently owned.
type Account struct {
	Nonce        uint64   `json:"nonce"`
	Balance      *big.Int `json:"balance"`
	Collectibles uint64   `json:"collectibles"`
}

// Clone returns a deep copy of the account so callers can mutate the copy
// without affecting the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Balance: big.NewInt(0)}
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	return &clone
}
