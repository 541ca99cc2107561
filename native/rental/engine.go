package rental

import (
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"time"

	"staychain/core/events"
	"staychain/core/state"
	"staychain/core/types"
	"staychain/native/common"
	"staychain/native/fees"
)

type engineState interface {
	TokenGet(id string) (*types.Token, bool, error)
	TokenPut(*types.Token) error
	OperatorExpiry(owner, operator string) (uint64, bool, error)
	FeeBps() (uint64, error)
	SetFeeBps(bps uint64) error
	PlatformBalance(denom string) (*big.Int, error)
	PlatformCredit(denom string, amount *big.Int) error
	PlatformDebit(denom string, amount *big.Int) error
	Transfer(from, to, denom string, amount *big.Int) error
	Admin() (string, error)
}

type rentalEvent struct {
	evt *types.Event
}

func (e rentalEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e rentalEvent) Event() *types.Event { return e.evt }

// Engine is the reservation state machine. It orchestrates the scheduler,
// the fee math and the cancellation policy over one token record at a time,
// and moves escrowed funds through the vault account. The engine holds no
// state of its own between calls; everything is loaded from and stored to
// the configured backend within a single operation.
type Engine struct {
	state   engineState
	emitter events.Emitter
	vault   string
	nowFn   func() uint64
}

// NewEngine creates a reservation engine with a no-op emitter and the vault
// address derived from the module seed. Callers can override both.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		vault:   state.VaultAddress(),
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(st engineState) { e.state = st }

// SetVault overrides the escrow vault address.
func (e *Engine) SetVault(addr string) { e.vault = addr }

// SetNowFunc overrides the time source used by the engine. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(rentalEvent{evt: event})
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

func (e *Engine) loadToken(id string) (*types.Token, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	token, ok, err := e.state.TokenGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

func (e *Engine) requireManage(token *types.Token, caller string) error {
	ok, err := common.CanManage(e.state, token.Owner, caller, e.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) requireSend(token *types.Token, caller string) error {
	ok, err := common.CanSend(e.state, token, caller, e.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) requireAdmin(caller string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	admin, err := e.state.Admin()
	if err != nil {
		return err
	}
	if admin == "" || caller != admin {
		return ErrUnauthorized
	}
	return nil
}

// List publishes rental terms for a token. Re-listing replaces the previous
// terms and is blocked while a booking is still active.
func (e *Engine) List(caller, tokenID string, listing types.RentalListing) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireManage(token, caller); err != nil {
		return err
	}
	if err := canEdit(token, e.now()); err != nil {
		return err
	}
	if !listing.Kind.Valid() {
		return fmt.Errorf("%w: listing kind %d", ErrInvalidInput, listing.Kind)
	}
	if strings.TrimSpace(listing.Denom) == "" {
		return fmt.Errorf("%w: empty listing denom", ErrInvalidInput)
	}
	token.Listing = listing.Clone()
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newListingEvent(EventTypeListingCreated, token, caller))
	return nil
}

// Unlist clears a token's rental terms, guarded against in-flight bookings.
func (e *Engine) Unlist(caller, tokenID string) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireManage(token, caller); err != nil {
		return err
	}
	if err := canEdit(token, e.now()); err != nil {
		return err
	}
	token.Listing = nil
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newListingEvent(EventTypeListingCleared, token, caller))
	return nil
}

// Reserve admits a new booking against the token's timeline and escrows the
// attached funds. For short-term listings the deposit is rent plus the
// create-time platform fee; the fee-sized excess (and any overpayment) is
// credited irrevocably to the platform balance. Long-term listings escrow
// exactly the attached funds with no fee at create time.
func (e *Engine) Reserve(caller, tokenID string, checkin, checkout uint64, guests uint64, funds types.Coin) (*types.Booking, error) {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return nil, err
	}
	listing := token.Listing
	if listing == nil {
		return nil, ErrNotListed
	}
	if checkin >= checkout {
		return nil, fmt.Errorf("%w: interval [%d, %d)", ErrInvalidInput, checkin, checkout)
	}
	units := fees.Units(checkin, checkout)
	if units < listing.MinimumStay {
		return nil, ErrLessThanMinimum
	}
	place, err := insertionIndex(token.Rentals, checkin, checkout)
	if err != nil {
		return nil, err
	}
	if funds.Denom != listing.Denom {
		return nil, ErrInvalidDeposit
	}
	if funds.Amount == nil || funds.Amount.Sign() <= 0 {
		return nil, ErrInsufficientDeposit
	}

	deposit := new(big.Int).Set(funds.Amount)
	platformCut := new(big.Int)
	if listing.Kind == types.ShortTerm {
		feeBps, err := e.state.FeeBps()
		if err != nil {
			return nil, err
		}
		quote, err := fees.QuoteDeposit(listing.PricePerUnit, units, feeBps)
		if err != nil {
			return nil, err
		}
		if funds.Amount.Cmp(quote.Required) < 0 {
			return nil, ErrInsufficientDeposit
		}
		// Everything above the rent is platform revenue, including
		// accidental overpayment. It is never returned to the payer.
		platformCut.Sub(funds.Amount, quote.Rent)
		if err := e.state.PlatformCredit(listing.Denom, platformCut); err != nil {
			return nil, err
		}
		deposit = quote.Rent
	}

	if err := e.state.Transfer(caller, e.vault, listing.Denom, funds.Amount); err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			return nil, ErrInsufficientDeposit
		}
		return nil, err
	}

	booking := types.Booking{
		Renter:   caller,
		Checkin:  checkin,
		Checkout: checkout,
		Kind:     listing.Kind,
		Denom:    listing.Denom,
		Deposit:  deposit,
		Guests:   guests,
	}
	if listing.AutoApprove {
		e.markApproved(&booking)
	}
	token.Rentals = slices.Insert(token.Rentals, place, booking)
	if err := e.state.TokenPut(token); err != nil {
		return nil, err
	}
	evt := newBookingEvent(EventTypeReservationCreated, token, &booking)
	stampPlatformFee(evt, platformCut)
	e.emit(evt)
	return booking.Clone(), nil
}

func (e *Engine) markApproved(b *types.Booking) {
	if b.Kind == types.LongTerm {
		b.ApprovedMarker = strconv.FormatUint(e.now(), 10)
		return
	}
	b.Approved = true
}

// Approve records the host's acceptance of a pending booking. Approval must
// happen before checkin and exactly once.
func (e *Engine) Approve(caller, tokenID, renter string, checkin, checkout uint64) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireManage(token, caller); err != nil {
		return err
	}
	if e.now() >= checkin {
		return ErrRentalAlreadyStarted
	}
	place := token.FindBooking(renter, checkin, checkout)
	if place == -1 {
		return ErrNotReserved
	}
	booking := &token.Rentals[place]
	if booking.IsApproved() {
		return ErrApprovedAlready
	}
	e.markApproved(booking)
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newBookingEvent(EventTypeReservationApproved, token, booking))
	return nil
}

// Reject removes a booking at the host's discretion, before or after
// approval, refunding the renter's full current deposit.
func (e *Engine) Reject(caller, tokenID, renter string, checkin, checkout uint64) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireManage(token, caller); err != nil {
		return err
	}
	place := token.FindBooking(renter, checkin, checkout)
	if place == -1 {
		return ErrNotReserved
	}
	booking := token.Rentals[place].Clone()
	token.Rentals = slices.Delete(token.Rentals, place, place+1)
	if err := e.state.Transfer(e.vault, renter, booking.Denom, booking.Deposit); err != nil {
		return err
	}
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newBookingEvent(EventTypeReservationRejected, token, booking))
	return nil
}

// CancelBeforeApproval lets the renter withdraw an unapproved booking for a
// full refund. Once the host has approved, only CancelAfterApproval applies.
func (e *Engine) CancelBeforeApproval(caller, tokenID string, checkin, checkout uint64) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	place := token.FindBooking(caller, checkin, checkout)
	if place == -1 {
		return ErrNotReserved
	}
	if token.Rentals[place].IsApproved() {
		return ErrApprovedAlready
	}
	booking := token.Rentals[place].Clone()
	token.Rentals = slices.Delete(token.Rentals, place, place+1)
	if err := e.state.Transfer(e.vault, caller, booking.Denom, booking.Deposit); err != nil {
		return err
	}
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newBookingEvent(EventTypeReservationCancelled, token, booking))
	return nil
}

// CancelAfterApproval cancels an approved booking before checkin. The refund
// follows the listing's cancellation schedule; the forfeited residual stays
// escrowed on the booking until finalization pays it to the host. The
// booking itself is not removed here. Returns the refunded amount.
func (e *Engine) CancelAfterApproval(caller, tokenID string, checkin, checkout uint64) (*big.Int, error) {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return nil, err
	}
	place := token.FindBooking(caller, checkin, checkout)
	if place == -1 {
		return nil, ErrNotReserved
	}
	booking := &token.Rentals[place]
	if !booking.IsApproved() || booking.Cancelled {
		return nil, ErrNotApproved
	}
	now := e.now()
	if now >= checkin {
		return nil, ErrRentalAlreadyStarted
	}
	diffDays := (checkin - now) / fees.SecondsPerDay
	var tiers []types.CancellationTier
	if token.Listing != nil {
		tiers = token.Listing.Cancellation
	}
	refund := refundAmount(booking.Deposit, tiers, diffDays)
	booking.Cancelled = true
	booking.Deposit = new(big.Int).Sub(booking.Deposit, refund)
	if refund.Sign() > 0 {
		if err := e.state.Transfer(e.vault, caller, booking.Denom, refund); err != nil {
			return nil, err
		}
	}
	if err := e.state.TokenPut(token); err != nil {
		return nil, err
	}
	e.emit(newBookingEvent(EventTypeReservationCancelled, token, booking))
	return refund, nil
}

// TopUpDeposit adds attached funds to an existing long-term booking's
// escrowed deposit. No fee is taken at top-up time.
func (e *Engine) TopUpDeposit(caller, tokenID string, checkin, checkout uint64, funds types.Coin) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	place := token.FindBooking(caller, checkin, checkout)
	if place == -1 {
		return ErrNotReserved
	}
	booking := &token.Rentals[place]
	if booking.Kind != types.LongTerm {
		return fmt.Errorf("%w: top-up applies to long-term bookings only", ErrInvalidInput)
	}
	if booking.Cancelled {
		return ErrNotApproved
	}
	if funds.Denom != booking.Denom {
		return ErrInvalidDeposit
	}
	if funds.Amount == nil || funds.Amount.Sign() <= 0 {
		return ErrInsufficientDeposit
	}
	if err := e.state.Transfer(caller, e.vault, booking.Denom, funds.Amount); err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			return ErrInsufficientDeposit
		}
		return err
	}
	booking.Deposit = new(big.Int).Add(booking.Deposit, funds.Amount)
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newBookingEvent(EventTypeReservationDeposited, token, booking))
	return nil
}

// Finalize removes a booking and issues its terminal payout. A cancelled
// booking may be finalized early because its disposition is already decided;
// otherwise checkout must have passed. The payee depends on how the booking
// ended: cancelled bookings pay the forfeited residual to the host, bookings
// the host never accepted return the full deposit to the renter, and
// completed approved stays pay the host minus the payout-time platform fee.
func (e *Engine) Finalize(caller, tokenID, renter string, checkin, checkout uint64) (string, *big.Int, error) {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return "", nil, err
	}
	if err := e.requireSend(token, caller); err != nil {
		return "", nil, err
	}
	place := token.FindBooking(renter, checkin, checkout)
	if place == -1 {
		return "", nil, ErrNotReserved
	}
	booking := token.Rentals[place].Clone()
	if !booking.Cancelled && e.now() < checkout {
		return "", nil, ErrRentalActive
	}

	payee := token.Owner
	payout := new(big.Int).Set(booking.Deposit)
	fee := new(big.Int)
	switch {
	case booking.Cancelled:
		// Forfeited residual goes to the host as-is; the payout fee was
		// only ever charged on completed approved stays.
	case !booking.IsApproved():
		// The host never accepted, so the renter is made whole.
		payee = renter
	default:
		feeBps, err := e.state.FeeBps()
		if err != nil {
			return "", nil, err
		}
		fee = fees.PayoutFee(booking.Deposit, feeBps)
		if fee.Sign() > 0 {
			if err := e.state.PlatformCredit(booking.Denom, fee); err != nil {
				return "", nil, err
			}
			payout.Sub(payout, fee)
		}
	}

	token.Rentals = slices.Delete(token.Rentals, place, place+1)
	if payout.Sign() > 0 {
		if err := e.state.Transfer(e.vault, payee, booking.Denom, payout); err != nil {
			return "", nil, err
		}
	}
	if err := e.state.TokenPut(token); err != nil {
		return "", nil, err
	}
	evt := newFinalizeEvent(token, booking, payee, payout)
	stampPlatformFee(evt, fee)
	e.emit(evt)
	return payee, payout, nil
}

// SetFeeBps stores the platform fee, administrator only.
func (e *Engine) SetFeeBps(caller string, bps uint64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if bps > fees.MaxBps {
		return fmt.Errorf("%w: fee bps %d out of range", ErrInvalidInput, bps)
	}
	if err := e.state.SetFeeBps(bps); err != nil {
		return err
	}
	e.emit(newFeeEvent(bps))
	return nil
}

// WithdrawPlatform pays accumulated platform revenue out to a target
// address, bounded by the per-denom balance. Administrator only.
func (e *Engine) WithdrawPlatform(caller, target string, amount types.Coin) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := amount.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if strings.TrimSpace(target) == "" {
		return fmt.Errorf("%w: empty withdrawal target", ErrInvalidInput)
	}
	if err := e.state.PlatformDebit(amount.Denom, amount.Amount); err != nil {
		if errors.Is(err, state.ErrPlatformUnderflow) {
			return ErrUnavailableAmount
		}
		return err
	}
	if err := e.state.Transfer(e.vault, target, amount.Denom, amount.Amount); err != nil {
		return err
	}
	e.emit(newWithdrawEvent(target, amount))
	return nil
}
