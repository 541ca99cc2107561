package rental

import (
	"math/big"
	"strconv"

	"staychain/core/types"
)

const (
	EventTypeListingCreated       = "rental.listing.created"
	EventTypeListingCleared       = "rental.listing.cleared"
	EventTypeReservationCreated   = "rental.reservation.created"
	EventTypeReservationApproved  = "rental.reservation.approved"
	EventTypeReservationRejected  = "rental.reservation.rejected"
	EventTypeReservationCancelled = "rental.reservation.cancelled"
	EventTypeReservationDeposited = "rental.reservation.deposited"
	EventTypeReservationFinalized = "rental.reservation.finalized"
	EventTypeFeeUpdated           = "rental.fee.updated"
	EventTypePlatformWithdrawn    = "rental.platform.withdrawn"
)

func newListingEvent(eventType string, token *types.Token, caller string) *types.Event {
	attrs := map[string]string{
		"tokenId": token.ID,
		"sender":  caller,
	}
	if token.Listing != nil {
		attrs["kind"] = token.Listing.Kind.String()
		attrs["denom"] = token.Listing.Denom
		attrs["pricePerUnit"] = strconv.FormatUint(token.Listing.PricePerUnit, 10)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newBookingEvent(eventType string, token *types.Token, booking *types.Booking) *types.Event {
	attrs := map[string]string{
		"tokenId": token.ID,
	}
	if booking != nil {
		attrs["renter"] = booking.Renter
		attrs["checkin"] = strconv.FormatUint(booking.Checkin, 10)
		attrs["checkout"] = strconv.FormatUint(booking.Checkout, 10)
		attrs["kind"] = booking.Kind.String()
		attrs["denom"] = booking.Denom
		if booking.Deposit != nil {
			attrs["deposit"] = booking.Deposit.String()
		}
		attrs["approved"] = strconv.FormatBool(booking.IsApproved())
		attrs["cancelled"] = strconv.FormatBool(booking.Cancelled)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newFinalizeEvent(token *types.Token, booking *types.Booking, payee string, payout *big.Int) *types.Event {
	evt := newBookingEvent(EventTypeReservationFinalized, token, booking)
	evt.Attributes["payee"] = payee
	if payout != nil {
		evt.Attributes["payout"] = payout.String()
	}
	return evt
}

func stampPlatformFee(evt *types.Event, fee *big.Int) {
	if evt == nil || fee == nil || fee.Sign() <= 0 {
		return
	}
	evt.Attributes[types.AttrPlatformFee] = fee.String()
}

func newFeeEvent(bps uint64) *types.Event {
	return &types.Event{
		Type: EventTypeFeeUpdated,
		Attributes: map[string]string{
			"feeBps": strconv.FormatUint(bps, 10),
		},
	}
}

func newWithdrawEvent(target string, amount types.Coin) *types.Event {
	attrs := map[string]string{
		"target": target,
		"denom":  amount.Denom,
	}
	if amount.Amount != nil {
		attrs["amount"] = amount.Amount.String()
	}
	return &types.Event{Type: EventTypePlatformWithdrawn, Attributes: attrs}
}
