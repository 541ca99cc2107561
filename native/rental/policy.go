package rental

import (
	"math/big"
	"sort"

	"staychain/core/types"
)

// refundAmount computes the refundable share of a deposit when a renter
// cancels diffDays whole days before checkin.
//
// Tiers are scanned in descending refund-percent order and the first tier
// whose deadline lies strictly below diffDays wins. Two deliberate edge
// cases are preserved from observed behaviour: an empty schedule refunds the
// full deposit, while a non-empty schedule with no qualifying tier refunds
// nothing and forfeits the whole deposit. Schedule authors, not the engine,
// are expected to close that gap with a zero-deadline tier.
func refundAmount(deposit *big.Int, tiers []types.CancellationTier, diffDays uint64) *big.Int {
	if deposit == nil || deposit.Sign() <= 0 {
		return big.NewInt(0)
	}
	if len(tiers) == 0 {
		return new(big.Int).Set(deposit)
	}
	sorted := append([]types.CancellationTier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RefundPercent > sorted[j].RefundPercent
	})
	for _, tier := range sorted {
		if tier.DeadlineDays < diffDays {
			refund := new(big.Int).Mul(deposit, new(big.Int).SetUint64(tier.RefundPercent))
			refund.Div(refund, big.NewInt(100))
			if refund.Cmp(deposit) > 0 {
				return new(big.Int).Set(deposit)
			}
			return refund
		}
	}
	return big.NewInt(0)
}
