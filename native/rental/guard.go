package rental

import (
	"staychain/core/types"
)

// canEdit decides whether the token's rental terms may be changed or
// cleared. Editing is allowed only when no booking is in flight: the rentals
// list is empty, or the last entry's checkout has already passed.
//
// Because rentals is sorted by checkin and bookings never overlap, the last
// entry also has the latest checkout. That assumption holds only while the
// scheduler enforces the no-overlap invariant; if parallel bookings were
// ever allowed this would need to become a true maximum.
func canEdit(token *types.Token, now uint64) error {
	if token == nil || len(token.Rentals) == 0 {
		return nil
	}
	lastCheckout := token.Rentals[len(token.Rentals)-1].Checkout
	if lastCheckout < now {
		return nil
	}
	return ErrRentalActive
}
