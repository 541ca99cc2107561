package types

import "math/big"

// Account holds the spendable balances for a single address. Balances are
// keyed by denom so the ledger can escrow arbitrary IBC-style denominations.
type Account struct {
	Nonce    uint64              `json:"nonce"`
	Balances map[string]*big.Int `json:"balances"`
}

// Balance returns the account's balance for the given denom, never nil.
func (a *Account) Balance(denom string) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	if bal, ok := a.Balances[denom]; ok && bal != nil {
		return bal
	}
	return big.NewInt(0)
}

// SetBalance stores the balance for a denom, allocating the map on demand.
func (a *Account) SetBalance(denom string, amount *big.Int) {
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	a.Balances[denom] = amount
}

// Clone returns a deep copy so callers can mutate without aliasing stored
// state.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Balances: make(map[string]*big.Int)}
	}
	clone := &Account{Nonce: a.Nonce, Balances: make(map[string]*big.Int, len(a.Balances))}
	for denom, bal := range a.Balances {
		if bal == nil {
			bal = big.NewInt(0)
		}
		clone.Balances[denom] = new(big.Int).Set(bal)
	}
	return clone
}
