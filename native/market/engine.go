package market

import (
	"errors"
	"fmt"
	"math/big"
	"slices"
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
	PlatformCredit(denom string, amount *big.Int) error
	Transfer(from, to, denom string, amount *big.Int) error
}

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

// Engine runs fixed-price sales. A sale listing names a price; buyers escrow
// bids against it and the matching bid settles when ownership actually moves.
// Price discovery beyond the fixed ask is out of scope.
type Engine struct {
	state   engineState
	emitter events.Emitter
	vault   string
	nowFn   func() uint64
}

// NewEngine creates a marketplace engine with a no-op emitter and the shared
// escrow vault address.
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

// SetNowFunc overrides the time source used by the engine.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
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
	e.emitter.Emit(marketEvent{evt: event})
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

// ListForSale publishes a fixed-price sale offer for a token. Re-listing
// replaces the previous offer; live bids stay escrowed against the new terms.
func (e *Engine) ListForSale(caller, tokenID string, sale types.SaleListing) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireManage(token, caller); err != nil {
		return err
	}
	if strings.TrimSpace(sale.Denom) == "" {
		return fmt.Errorf("%w: empty sale denom", ErrInvalidInput)
	}
	if sale.Price == nil || sale.Price.Sign() <= 0 {
		return fmt.Errorf("%w: sale price must be positive", ErrInvalidInput)
	}
	token.Sale = sale.Clone()
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newSaleEvent(EventTypeSaleListed, token, caller))
	return nil
}

// Delist withdraws the sale offer and refunds every escrowed bid, so no
// buyer's funds stay locked against an offer that no longer exists.
func (e *Engine) Delist(caller, tokenID string) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireManage(token, caller); err != nil {
		return err
	}
	if token.Sale == nil {
		return ErrNotForSale
	}
	for _, bid := range token.Bids {
		if err := e.state.Transfer(e.vault, bid.Bidder, bid.Denom, bid.Amount); err != nil {
			return err
		}
	}
	evt := newSaleEvent(EventTypeSaleDelisted, token, caller)
	token.Sale = nil
	token.Bids = nil
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(evt)
	return nil
}

// PlaceOrWithdrawBid toggles the caller's bid. With no live bid the attached
// funds are escrowed as a new one against the token's sale offer; with a live
// bid the escrow is refunded and the bid removed, and no funds may be
// attached. Withdrawal does not require a live offer: a bid left behind by a
// settlement or re-listing must always be recoverable. When the listing
// auto-approves and the bid meets the asking price, the bidder receives a
// transfer approval on the spot.
func (e *Engine) PlaceOrWithdrawBid(caller, tokenID string, funds types.Coin) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}

	if place := token.BidBy(caller); place != -1 {
		if funds.Amount != nil && funds.Amount.Sign() > 0 {
			return fmt.Errorf("%w: funds attached to a bid withdrawal", ErrInvalidInput)
		}
		bid := token.Bids[place].Clone()
		token.Bids = slices.Delete(token.Bids, place, place+1)
		if err := e.state.Transfer(e.vault, caller, bid.Denom, bid.Amount); err != nil {
			return err
		}
		if err := e.state.TokenPut(token); err != nil {
			return err
		}
		e.emit(newBidEvent(EventTypeBidWithdrawn, token, bid))
		return nil
	}

	if token.Sale == nil {
		return ErrNotForSale
	}
	if caller == token.Owner {
		return fmt.Errorf("%w: owner cannot bid on own token", ErrInvalidInput)
	}
	if funds.Denom != token.Sale.Denom {
		return fmt.Errorf("%w: denom %s does not match sale denom %s", ErrInvalidBid, funds.Denom, token.Sale.Denom)
	}
	if funds.Amount == nil || funds.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: bid amount must be positive", ErrInvalidBid)
	}
	if err := e.state.Transfer(caller, e.vault, funds.Denom, funds.Amount); err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			return ErrInsufficientFunds
		}
		return err
	}
	bid := types.Bid{
		Bidder: caller,
		Denom:  funds.Denom,
		Amount: new(big.Int).Set(funds.Amount),
	}
	token.Bids = append(token.Bids, bid)
	if token.Sale.AutoApprove && funds.Amount.Cmp(token.Sale.Price) >= 0 && !token.HasApproval(caller, e.now()) {
		token.Approvals = append(token.Approvals, types.Approval{Spender: caller})
	}
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newBidEvent(EventTypeBidPlaced, token, bid))
	return nil
}

// SettleOnTransfer completes the sale when token ownership moves to a
// bidder. The settled bid pays the previous owner minus the payout-time
// platform fee; only that bid leaves the escrow, and the sale offer is
// cleared. Tokens with no sale or no matching bid settle as a no-op.
//
// The caller owns the token record: this mutates the in-memory copy and
// moves funds but does not store it.
func (e *Engine) SettleOnTransfer(token *types.Token, previousOwner, newOwner string) (*types.Bid, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if token == nil || token.Sale == nil {
		return nil, nil
	}
	place := token.BidBy(newOwner)
	if place == -1 {
		return nil, nil
	}
	bid := token.Bids[place].Clone()
	token.Bids = slices.Delete(token.Bids, place, place+1)
	token.Sale = nil

	feeBps, err := e.state.FeeBps()
	if err != nil {
		return nil, err
	}
	proceeds := new(big.Int).Set(bid.Amount)
	fee := fees.PayoutFee(bid.Amount, feeBps)
	if fee.Sign() > 0 {
		if err := e.state.PlatformCredit(bid.Denom, fee); err != nil {
			return nil, err
		}
		proceeds.Sub(proceeds, fee)
	}
	if proceeds.Sign() > 0 {
		if err := e.state.Transfer(e.vault, previousOwner, bid.Denom, proceeds); err != nil {
			return nil, err
		}
	}
	e.emit(newSettleEvent(token, bid, previousOwner, proceeds.String(), fee))
	return &bid, nil
}
