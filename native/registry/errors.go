package registry

import "errors"

var (
	errNilState = errors.New("registry: state backend not configured")

	// ErrTokenNotFound indicates the token id has never been minted.
	ErrTokenNotFound = errors.New("registry: token not found")
	// ErrTokenClaimed indicates a mint against an id that already exists.
	ErrTokenClaimed = errors.New("registry: token id already claimed")
	// ErrUnauthorized indicates the caller lacks the required rights.
	ErrUnauthorized = errors.New("registry: caller not authorized")
	// ErrApprovalExpired indicates a grant whose expiry is already in the past.
	ErrApprovalExpired = errors.New("registry: approval already expired")
	// ErrTokenOccupied indicates a burn while bookings or bids still hold escrow.
	ErrTokenOccupied = errors.New("registry: token has active bookings or bids")
	// ErrRentalActive indicates a metadata edit while a booking is in flight.
	ErrRentalActive = errors.New("registry: rental still active")
	// ErrInvalidInput indicates a malformed argument.
	ErrInvalidInput = errors.New("registry: invalid input")
)
