package registry

import (
	"fmt"
	"strings"
	"time"

	"staychain/core/events"
	"staychain/core/types"
	"staychain/native/common"
)

type engineState interface {
	TokenGet(id string) (*types.Token, bool, error)
	TokenPut(*types.Token) error
	TokenDelete(id string) error
	TokenHas(id string) (bool, error)
	TokenCount() (uint64, error)
	SetTokenCount(count uint64) error
	OperatorExpiry(owner, operator string) (uint64, bool, error)
	OperatorPut(owner, operator string, expires uint64) error
	OperatorDelete(owner, operator string) error
}

// Settler completes a pending sale when ownership moves to a bidder. The
// token record is shared: the settler mutates the copy it is handed and the
// registry stores it afterwards.
type Settler interface {
	SettleOnTransfer(token *types.Token, previousOwner, newOwner string) (*types.Bid, error)
}

type registryEvent struct {
	evt *types.Event
}

func (e registryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e registryEvent) Event() *types.Event { return e.evt }

// Engine owns the token records themselves: minting, ownership transfer,
// per-token approvals, contract-wide operator grants and burning. The rental
// and marketplace engines operate on records this engine creates.
type Engine struct {
	state   engineState
	emitter events.Emitter
	settler Settler
	nowFn   func() uint64
}

// NewEngine creates a registry engine with a no-op emitter and no settler.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(st engineState) { e.state = st }

// SetSettler wires the marketplace settlement hook invoked on transfer.
func (e *Engine) SetSettler(s Settler) { e.settler = s }

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
	e.emitter.Emit(registryEvent{evt: event})
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

// Mint creates a token record owned by the caller. Token ids are claimed
// exactly once and never reused, even after a burn.
func (e *Engine) Mint(caller, tokenID, uri string) (*types.Token, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if strings.TrimSpace(tokenID) == "" {
		return nil, fmt.Errorf("%w: empty token id", ErrInvalidInput)
	}
	if strings.TrimSpace(caller) == "" {
		return nil, fmt.Errorf("%w: empty minter address", ErrInvalidInput)
	}
	claimed, err := e.state.TokenHas(tokenID)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, ErrTokenClaimed
	}
	token := &types.Token{ID: tokenID, Owner: caller, URI: uri}
	if err := e.state.TokenPut(token); err != nil {
		return nil, err
	}
	count, err := e.state.TokenCount()
	if err != nil {
		return nil, err
	}
	if err := e.state.SetTokenCount(count + 1); err != nil {
		return nil, err
	}
	e.emit(newTokenEvent(EventTypeTokenMinted, tokenID, caller))
	return token.Clone(), nil
}

// Transfer moves ownership of a token to the recipient. The caller needs
// send rights; every per-token approval is cleared so grants never outlive
// the ownership they were given under. When a sale listing has a bid from
// the recipient, the settlement hook pays out the previous owner.
func (e *Engine) Transfer(caller, tokenID, recipient string) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireSend(token, caller); err != nil {
		return err
	}
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("%w: empty recipient", ErrInvalidInput)
	}
	if e.settler != nil {
		if _, err := e.settler.SettleOnTransfer(token, token.Owner, recipient); err != nil {
			return err
		}
	}
	token.Owner = recipient
	token.Approvals = nil
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newTransferEvent(tokenID, caller, recipient))
	return nil
}

// Approve grants spender send rights over one token until expires; zero
// means no expiry. Re-approving the same spender replaces the old grant.
func (e *Engine) Approve(caller, tokenID, spender string, expires uint64) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireManage(token, caller); err != nil {
		return err
	}
	if expires != 0 && expires <= e.now() {
		return ErrApprovalExpired
	}
	token.Approvals = removeApproval(token.Approvals, spender)
	token.Approvals = append(token.Approvals, types.Approval{Spender: spender, Expires: expires})
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newApprovalEvent(EventTypeApprovalGranted, tokenID, caller, spender, expires))
	return nil
}

// Revoke removes spender's per-token approval, if any.
func (e *Engine) Revoke(caller, tokenID, spender string) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireManage(token, caller); err != nil {
		return err
	}
	token.Approvals = removeApproval(token.Approvals, spender)
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newApprovalEvent(EventTypeApprovalRevoked, tokenID, caller, spender, 0))
	return nil
}

func removeApproval(approvals []types.Approval, spender string) []types.Approval {
	kept := approvals[:0]
	for _, apr := range approvals {
		if apr.Spender != spender {
			kept = append(kept, apr)
		}
	}
	return kept
}

// ApproveAll grants operator manage and send rights over every token the
// caller owns, now and in the future, until expires; zero means no expiry.
func (e *Engine) ApproveAll(caller, operator string, expires uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if strings.TrimSpace(operator) == "" {
		return fmt.Errorf("%w: empty operator", ErrInvalidInput)
	}
	if expires != 0 && expires <= e.now() {
		return ErrApprovalExpired
	}
	if err := e.state.OperatorPut(caller, operator, expires); err != nil {
		return err
	}
	e.emit(newOperatorEvent(EventTypeOperatorGranted, caller, operator, expires))
	return nil
}

// RevokeAll removes the caller's operator grant for operator.
func (e *Engine) RevokeAll(caller, operator string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.state.OperatorDelete(caller, operator); err != nil {
		return err
	}
	e.emit(newOperatorEvent(EventTypeOperatorRevoked, caller, operator, 0))
	return nil
}

// Burn destroys a token record. Escrow must be empty first: a token with
// live bookings or bids holds other people's money in the vault.
func (e *Engine) Burn(caller, tokenID string) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireSend(token, caller); err != nil {
		return err
	}
	if len(token.Rentals) > 0 || len(token.Bids) > 0 {
		return ErrTokenOccupied
	}
	if err := e.state.TokenDelete(tokenID); err != nil {
		return err
	}
	count, err := e.state.TokenCount()
	if err != nil {
		return err
	}
	if count > 0 {
		if err := e.state.SetTokenCount(count - 1); err != nil {
			return err
		}
	}
	e.emit(newTokenEvent(EventTypeTokenBurned, tokenID, caller))
	return nil
}

// SetMetadata updates the token's URI. Blocked while a booking is in
// flight, same as editing the rental terms.
func (e *Engine) SetMetadata(caller, tokenID, uri string) error {
	token, err := e.loadToken(tokenID)
	if err != nil {
		return err
	}
	if err := e.requireManage(token, caller); err != nil {
		return err
	}
	if n := len(token.Rentals); n > 0 && token.Rentals[n-1].Checkout >= e.now() {
		return ErrRentalActive
	}
	token.URI = uri
	if err := e.state.TokenPut(token); err != nil {
		return err
	}
	e.emit(newTokenEvent(EventTypeMetadataUpdated, tokenID, caller))
	return nil
}
