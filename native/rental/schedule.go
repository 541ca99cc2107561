package rental

import (
	"staychain/core/types"
)

// insertionIndex decides whether the candidate [checkin, checkout) interval
// fits into the token's booking timeline and where it belongs. The rentals
// slice is sorted ascending by checkin with no overlaps. Intervals are
// half-open, so boundary equality is not an overlap: a stay may check in the
// second its neighbour checks out.
//
// The scan tracks a gap-open flag confirming the candidate clears the
// previous neighbour before the next one is checked. A one-sided comparison
// would wrongly admit a candidate that fits before one neighbour but overlaps
// the neighbour on the other side.
func insertionIndex(rentals []types.Booking, checkin, checkout uint64) (int, error) {
	place := -1
	gapOpen := false
	for i := range rentals {
		existingCheckin := rentals[i].Checkin
		existingCheckout := rentals[i].Checkout
		if checkout <= existingCheckin {
			if i == 0 {
				place = 0
				break
			}
			if gapOpen {
				place = i
				break
			}
		} else if existingCheckout <= checkin {
			gapOpen = true
			if i == len(rentals)-1 {
				place = len(rentals)
				break
			}
		} else {
			gapOpen = false
		}
	}
	if place == -1 {
		if len(rentals) > 0 {
			return -1, ErrUnavailablePeriod
		}
		place = 0
	}
	return place, nil
}
