package rental

import "errors"

// Error taxonomy surfaced by the reservation engine. Every failure is
// returned synchronously and aborts the whole call; nothing is retried
// internally.
var (
	errNilState = errors.New("rental engine: state not configured")

	// ErrTokenNotFound means no token record exists for the id.
	ErrTokenNotFound = errors.New("token not found")
	// ErrNotListed means the token has no rental listing of the required kind.
	ErrNotListed = errors.New("property is not listed")
	// ErrUnauthorized means the caller lacks owner/operator/approval rights.
	ErrUnauthorized = errors.New("caller is not owner or operator")
	// ErrUnavailablePeriod means the candidate interval overlaps an existing
	// booking.
	ErrUnavailablePeriod = errors.New("someone reserved this period already")
	// ErrLessThanMinimum means the stay is shorter than the listing minimum.
	ErrLessThanMinimum = errors.New("rental period is too short")
	// ErrInvalidDeposit means the attached funds use the wrong denom.
	ErrInvalidDeposit = errors.New("invalid deposit denom")
	// ErrInsufficientDeposit means the attached amount is below the required
	// deposit plus fee.
	ErrInsufficientDeposit = errors.New("insufficient deposit amount")
	// ErrNotReserved means no booking matches the given renter and interval.
	ErrNotReserved = errors.New("not reserved")
	// ErrApprovedAlready means the booking was already accepted by the host.
	ErrApprovedAlready = errors.New("approved already")
	// ErrNotApproved means the operation requires a host-approved booking.
	ErrNotApproved = errors.New("rental is not approved")
	// ErrRentalAlreadyStarted means checkin has passed and the operation is
	// no longer permitted.
	ErrRentalAlreadyStarted = errors.New("rental started already")
	// ErrRentalActive guards listing edits and early finalization while a
	// booking is still in flight.
	ErrRentalActive = errors.New("rental is still active")
	// ErrUnavailableAmount means a withdrawal exceeds the accumulated
	// platform balance.
	ErrUnavailableAmount = errors.New("cannot withdraw such amount")
	// ErrInvalidInput covers malformed intervals and other unparseable
	// caller input.
	ErrInvalidInput = errors.New("invalid input")
)
