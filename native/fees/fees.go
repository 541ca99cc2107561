package fees

import (
	"fmt"
	"math/big"
)

// MaxBps is the whole of a deposit expressed in basis points.
const MaxBps = 10_000

// SecondsPerDay converts between Unix-second intervals and whole stay units.
const SecondsPerDay = 86_400

// Quote captures the amounts involved in funding a reservation: the rent that
// becomes the escrowed deposit, the platform fee due at creation time, and the
// total the renter must attach.
type Quote struct {
	Rent     *big.Int
	Fee      *big.Int
	Required *big.Int
}

// QuoteDeposit computes the create-time funding requirement for a stay of the
// given number of units (nights or months) at the listed unit price.
// required = rent + floor(rent * feeBps / 10000).
func QuoteDeposit(pricePerUnit uint64, units uint64, feeBps uint64) (Quote, error) {
	if feeBps > MaxBps {
		return Quote{}, fmt.Errorf("fees: bps out of range: %d", feeBps)
	}
	rent := new(big.Int).Mul(new(big.Int).SetUint64(pricePerUnit), new(big.Int).SetUint64(units))
	fee := new(big.Int).Mul(rent, new(big.Int).SetUint64(feeBps))
	fee.Div(fee, big.NewInt(MaxBps))
	required := new(big.Int).Add(rent, fee)
	return Quote{Rent: rent, Fee: fee, Required: required}, nil
}

// PayoutFee returns floor(amount * feeBps / 10000), the platform cut deducted
// from an escrowed deposit before it is paid out to the host.
func PayoutFee(amount *big.Int, feeBps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || feeBps == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(feeBps))
	fee.Div(fee, big.NewInt(MaxBps))
	if fee.Cmp(amount) > 0 {
		return new(big.Int).Set(amount)
	}
	return fee
}

// Units converts a half-open [checkin, checkout) interval to whole stay units.
// The remainder below a full day is discarded, matching the deposit formula.
func Units(checkin, checkout uint64) uint64 {
	if checkout <= checkin {
		return 0
	}
	return (checkout - checkin) / SecondsPerDay
}
