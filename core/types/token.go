package types

import (
	"fmt"
	"math/big"
	"strings"
)

// BookingKind discriminates the two rental modes a listing can be created
// for. Long-term bookings accept incremental deposit top-ups; short-term
// bookings carry a single fixed deposit.
type BookingKind uint8

const (
	ShortTerm BookingKind = iota
	LongTerm
)

// Valid reports whether the kind is within the supported range.
func (k BookingKind) Valid() bool {
	switch k {
	case ShortTerm, LongTerm:
		return true
	default:
		return false
	}
}

func (k BookingKind) String() string {
	switch k {
	case ShortTerm:
		return "short_term"
	case LongTerm:
		return "long_term"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// CancellationTier is one rule of a tiered refund schedule: cancelling more
// than DeadlineDays before checkin refunds RefundPercent of the deposit.
type CancellationTier struct {
	DeadlineDays  uint64 `json:"deadlineDays"`
	RefundPercent uint64 `json:"refundPercent"`
}

// Booking is one reservation of a token for a half-open [Checkin, Checkout)
// interval. Renter and interval are immutable after creation; Deposit grows
// on long-term top-ups and shrinks on cancellation; Cancelled is a one-way
// latch. A booking leaves the token's rentals list exactly once, at
// finalization or rejection.
type Booking struct {
	Renter   string      `json:"renter"`
	Checkin  uint64      `json:"checkin"`
	Checkout uint64      `json:"checkout"`
	Kind     BookingKind `json:"kind"`
	Denom    string      `json:"denom"`
	Deposit  *big.Int    `json:"deposit"`
	// Approved marks host acceptance for short-term bookings. Long-term
	// bookings record an opaque marker string instead.
	Approved       bool   `json:"approved"`
	ApprovedMarker string `json:"approvedMarker,omitempty"`
	Cancelled      bool   `json:"cancelled"`
	Guests         uint64 `json:"guests"`
}

// IsApproved reports host acceptance for either kind.
func (b *Booking) IsApproved() bool {
	if b == nil {
		return false
	}
	if b.Kind == LongTerm {
		return b.ApprovedMarker != ""
	}
	return b.Approved
}

// Matches reports whether the booking belongs to renter over exactly the
// given interval. Operations always address bookings by (renter, interval).
func (b *Booking) Matches(renter string, checkin, checkout uint64) bool {
	return b != nil && b.Renter == renter && b.Checkin == checkin && b.Checkout == checkout
}

// Clone returns a deep copy of the booking.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	clone := *b
	if b.Deposit != nil {
		clone.Deposit = new(big.Int).Set(b.Deposit)
	} else {
		clone.Deposit = big.NewInt(0)
	}
	return &clone
}

// RentalListing carries the rental terms a host published for a token.
// AvailablePeriod is an advisory hint for clients; the scheduler does not
// enforce it.
type RentalListing struct {
	Kind            BookingKind        `json:"kind"`
	Denom           string             `json:"denom"`
	PricePerUnit    uint64             `json:"pricePerUnit"`
	AutoApprove     bool               `json:"autoApprove"`
	MinimumStay     uint64             `json:"minimumStay"`
	Cancellation    []CancellationTier `json:"cancellation,omitempty"`
	AvailablePeriod []string           `json:"availablePeriod,omitempty"`
}

// Clone returns a deep copy of the listing.
func (l *RentalListing) Clone() *RentalListing {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Cancellation = append([]CancellationTier(nil), l.Cancellation...)
	clone.AvailablePeriod = append([]string(nil), l.AvailablePeriod...)
	return &clone
}

// SaleListing is a fixed-price sale offer for a token.
type SaleListing struct {
	Denom       string   `json:"denom"`
	Price       *big.Int `json:"price"`
	AutoApprove bool     `json:"autoApprove"`
}

// Clone returns a deep copy of the sale listing.
func (s *SaleListing) Clone() *SaleListing {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Price != nil {
		clone.Price = new(big.Int).Set(s.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// Bid is one live escrowed offer against a token's sale listing. At most one
// bid exists per bidder address; placing again withdraws it.
type Bid struct {
	Bidder string   `json:"bidder"`
	Denom  string   `json:"denom"`
	Amount *big.Int `json:"amount"`
}

// Clone returns a deep copy of the bid.
func (b Bid) Clone() Bid {
	clone := b
	if b.Amount != nil {
		clone.Amount = new(big.Int).Set(b.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return clone
}

// Approval grants a spender send-permission over a single token until the
// expiry timestamp. A zero expiry never expires.
type Approval struct {
	Spender string `json:"spender"`
	Expires uint64 `json:"expires"`
}

// Expired reports whether the grant has lapsed at the given time.
func (a Approval) Expired(now uint64) bool {
	return a.Expires != 0 && a.Expires <= now
}

// Token is the persisted record of one resource token: its owner, delegated
// approvals and the rental/sale state the engines operate on. Rentals is
// kept sorted ascending by checkin and never holds two overlapping bookings;
// the scheduler is the only writer allowed to insert into it.
type Token struct {
	ID        string         `json:"id"`
	Owner     string         `json:"owner"`
	URI       string         `json:"uri,omitempty"`
	Approvals []Approval     `json:"approvals,omitempty"`
	Listing   *RentalListing `json:"listing,omitempty"`
	Rentals   []Booking      `json:"rentals,omitempty"`
	Sale      *SaleListing   `json:"sale,omitempty"`
	Bids      []Bid          `json:"bids,omitempty"`
}

// Clone returns a deep copy so engines can stage mutations without touching
// the stored record.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := &Token{ID: t.ID, Owner: t.Owner, URI: t.URI}
	clone.Approvals = append([]Approval(nil), t.Approvals...)
	clone.Listing = t.Listing.Clone()
	clone.Sale = t.Sale.Clone()
	if len(t.Rentals) > 0 {
		clone.Rentals = make([]Booking, len(t.Rentals))
		for i := range t.Rentals {
			clone.Rentals[i] = *t.Rentals[i].Clone()
		}
	}
	if len(t.Bids) > 0 {
		clone.Bids = make([]Bid, len(t.Bids))
		for i := range t.Bids {
			clone.Bids[i] = t.Bids[i].Clone()
		}
	}
	return clone
}

// HasApproval reports whether spender holds a live per-token approval.
func (t *Token) HasApproval(spender string, now uint64) bool {
	if t == nil {
		return false
	}
	for _, apr := range t.Approvals {
		if apr.Spender == spender && !apr.Expired(now) {
			return true
		}
	}
	return false
}

// BidBy returns the index of the bidder's live bid, or -1.
func (t *Token) BidBy(bidder string) int {
	if t == nil {
		return -1
	}
	for i := range t.Bids {
		if t.Bids[i].Bidder == bidder {
			return i
		}
	}
	return -1
}

// FindBooking returns the index of the booking matching (renter, interval),
// or -1. Indices are only valid within the current call: any insert or
// remove shifts them.
func (t *Token) FindBooking(renter string, checkin, checkout uint64) int {
	if t == nil {
		return -1
	}
	for i := range t.Rentals {
		if t.Rentals[i].Matches(renter, checkin, checkout) {
			return i
		}
	}
	return -1
}

// SanitizeToken validates a token record and returns a normalized deep copy.
func SanitizeToken(t *Token) (*Token, error) {
	if t == nil {
		return nil, fmt.Errorf("nil token")
	}
	if strings.TrimSpace(t.ID) == "" {
		return nil, fmt.Errorf("token id must not be empty")
	}
	if strings.TrimSpace(t.Owner) == "" {
		return nil, fmt.Errorf("token owner must not be empty")
	}
	clone := t.Clone()
	if clone.Listing != nil && !clone.Listing.Kind.Valid() {
		return nil, fmt.Errorf("invalid listing kind: %d", clone.Listing.Kind)
	}
	for i := range clone.Rentals {
		b := &clone.Rentals[i]
		if b.Checkin >= b.Checkout {
			return nil, fmt.Errorf("booking interval inverted: [%d, %d)", b.Checkin, b.Checkout)
		}
		if b.Deposit == nil {
			b.Deposit = big.NewInt(0)
		}
		if b.Deposit.Sign() < 0 {
			return nil, fmt.Errorf("booking deposit must be non-negative")
		}
		if i > 0 && clone.Rentals[i-1].Checkout > b.Checkin {
			return nil, fmt.Errorf("bookings overlap at position %d", i)
		}
	}
	for i := range clone.Bids {
		if clone.Bids[i].Amount == nil {
			clone.Bids[i].Amount = big.NewInt(0)
		}
		if clone.Bids[i].Amount.Sign() < 0 {
			return nil, fmt.Errorf("bid amount must be non-negative")
		}
	}
	return clone, nil
}
