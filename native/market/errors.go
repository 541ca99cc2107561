package market

import "errors"

var (
	errNilState = errors.New("market: state backend not configured")

	// ErrTokenNotFound indicates the token id has never been minted.
	ErrTokenNotFound = errors.New("market: token not found")
	// ErrUnauthorized indicates the caller lacks manage rights over the token.
	ErrUnauthorized = errors.New("market: caller not authorized")
	// ErrNotForSale indicates the token carries no sale listing.
	ErrNotForSale = errors.New("market: token not listed for sale")
	// ErrInvalidBid indicates the attached funds do not form a valid bid.
	ErrInvalidBid = errors.New("market: invalid bid")
	// ErrInsufficientFunds indicates the bidder cannot cover the bid.
	ErrInsufficientFunds = errors.New("market: insufficient funds")
	// ErrInvalidInput indicates a malformed argument.
	ErrInvalidInput = errors.New("market: invalid input")
)
