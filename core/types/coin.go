package types

import (
	"fmt"
	"math/big"
	"strings"
)

// Coin is a denom/amount pair attached to an operation or emitted as a
// transfer instruction.
type Coin struct {
	Denom  string   `json:"denom"`
	Amount *big.Int `json:"amount"`
}

// NewCoin builds a coin with a defensive copy of the amount.
func NewCoin(denom string, amount *big.Int) Coin {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return Coin{Denom: strings.TrimSpace(denom), Amount: new(big.Int).Set(amount)}
}

// Validate rejects coins with an empty denom or a negative amount.
func (c Coin) Validate() error {
	if strings.TrimSpace(c.Denom) == "" {
		return fmt.Errorf("coin: empty denom")
	}
	if c.Amount == nil || c.Amount.Sign() < 0 {
		return fmt.Errorf("coin: negative amount")
	}
	return nil
}

// IsZero reports whether the coin carries no value.
func (c Coin) IsZero() bool {
	return c.Amount == nil || c.Amount.Sign() == 0
}

func (c Coin) String() string {
	if c.Amount == nil {
		return "0" + c.Denom
	}
	return c.Amount.String() + c.Denom
}
