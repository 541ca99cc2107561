package core

import (
	"fmt"
	"math/big"
	"sync"

	"staychain/core/events"
	"staychain/core/state"
	"staychain/core/types"
	"staychain/native/common"
	"staychain/native/market"
	"staychain/native/registry"
	"staychain/native/rental"
	"staychain/storage"
)

// Module names used for administrative pausing.
const (
	ModuleRental   = "rental"
	ModuleMarket   = "market"
	ModuleRegistry = "registry"
)

// Genesis seeds initial state on an empty store. Values already present in
// the store always win; genesis never overwrites.
type Genesis struct {
	AdminAddress  string
	DefaultFeeBps uint64
}

// Node is the single entry point for every state-changing operation. It
// serializes callers with one mutex and runs each operation against a staged
// overlay of the store, committing only on success. The engines themselves
// are stateless, so a fresh set is assembled around each call's overlay.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	emitter events.Emitter
	nowFn   func() uint64
	paused  map[string]bool
}

// NewNode wraps a database and applies genesis seeding.
func NewNode(db storage.Database, genesis Genesis) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: nil database")
	}
	n := &Node{
		db:      db,
		emitter: events.NoopEmitter{},
		paused:  make(map[string]bool),
	}
	mgr := state.NewManager(db)
	admin, err := mgr.Admin()
	if err != nil {
		return nil, err
	}
	if admin == "" && genesis.AdminAddress != "" {
		if err := mgr.SetAdmin(genesis.AdminAddress); err != nil {
			return nil, err
		}
	}
	configured, err := mgr.FeeConfigured()
	if err != nil {
		return nil, err
	}
	if !configured {
		if err := mgr.SetFeeBps(genesis.DefaultFeeBps); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// SetEmitter configures the emitter handed to every engine. Passing nil
// resets to a no-op.
func (n *Node) SetEmitter(emitter events.Emitter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if emitter == nil {
		n.emitter = events.NoopEmitter{}
		return
	}
	n.emitter = emitter
}

// SetNowFunc overrides the time source handed to every engine.
func (n *Node) SetNowFunc(now func() uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nowFn = now
}

// SetPaused marks a module as administratively paused or unpaused.
func (n *Node) SetPaused(module string, paused bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paused[module] = paused
}

// IsPaused implements common.PauseView.
func (n *Node) IsPaused(module string) bool {
	return n.paused[module]
}

type engineSet struct {
	rental   *rental.Engine
	market   *market.Engine
	registry *registry.Engine
}

func (n *Node) engines(mgr *state.Manager) *engineSet {
	set := &engineSet{
		rental:   rental.NewEngine(),
		market:   market.NewEngine(),
		registry: registry.NewEngine(),
	}
	set.rental.SetState(mgr)
	set.rental.SetEmitter(n.emitter)
	set.market.SetState(mgr)
	set.market.SetEmitter(n.emitter)
	set.registry.SetState(mgr)
	set.registry.SetEmitter(n.emitter)
	set.registry.SetSettler(set.market)
	if n.nowFn != nil {
		set.rental.SetNowFunc(n.nowFn)
		set.market.SetNowFunc(n.nowFn)
		set.registry.SetNowFunc(n.nowFn)
	}
	return set
}

// withEngines runs one state-changing operation. The overlay isolates the
// store from partial writes: any error discards everything the operation
// staged.
func (n *Node) withEngines(module string, fn func(*engineSet) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := common.Guard(n, module); err != nil {
		return err
	}
	staged := state.NewStaged(n.db)
	set := n.engines(state.NewManager(staged))
	if err := fn(set); err != nil {
		staged.Discard()
		return err
	}
	return staged.Commit()
}

// --- Rental operations ---

func (n *Node) ListRental(caller, tokenID string, listing types.RentalListing) error {
	return n.withEngines(ModuleRental, func(set *engineSet) error {
		return set.rental.List(caller, tokenID, listing)
	})
}

func (n *Node) UnlistRental(caller, tokenID string) error {
	return n.withEngines(ModuleRental, func(set *engineSet) error {
		return set.rental.Unlist(caller, tokenID)
	})
}

func (n *Node) Reserve(caller, tokenID string, checkin, checkout, guests uint64, funds types.Coin) (*types.Booking, error) {
	var booking *types.Booking
	err := n.withEngines(ModuleRental, func(set *engineSet) error {
		var err error
		booking, err = set.rental.Reserve(caller, tokenID, checkin, checkout, guests, funds)
		return err
	})
	return booking, err
}

func (n *Node) ApproveReservation(caller, tokenID, renter string, checkin, checkout uint64) error {
	return n.withEngines(ModuleRental, func(set *engineSet) error {
		return set.rental.Approve(caller, tokenID, renter, checkin, checkout)
	})
}

func (n *Node) RejectReservation(caller, tokenID, renter string, checkin, checkout uint64) error {
	return n.withEngines(ModuleRental, func(set *engineSet) error {
		return set.rental.Reject(caller, tokenID, renter, checkin, checkout)
	})
}

func (n *Node) CancelBeforeApproval(caller, tokenID string, checkin, checkout uint64) error {
	return n.withEngines(ModuleRental, func(set *engineSet) error {
		return set.rental.CancelBeforeApproval(caller, tokenID, checkin, checkout)
	})
}

func (n *Node) CancelAfterApproval(caller, tokenID string, checkin, checkout uint64) (*big.Int, error) {
	var refund *big.Int
	err := n.withEngines(ModuleRental, func(set *engineSet) error {
		var err error
		refund, err = set.rental.CancelAfterApproval(caller, tokenID, checkin, checkout)
		return err
	})
	return refund, err
}

func (n *Node) TopUpDeposit(caller, tokenID string, checkin, checkout uint64, funds types.Coin) error {
	return n.withEngines(ModuleRental, func(set *engineSet) error {
		return set.rental.TopUpDeposit(caller, tokenID, checkin, checkout, funds)
	})
}

func (n *Node) FinalizeReservation(caller, tokenID, renter string, checkin, checkout uint64) (string, *big.Int, error) {
	var (
		payee  string
		payout *big.Int
	)
	err := n.withEngines(ModuleRental, func(set *engineSet) error {
		var err error
		payee, payout, err = set.rental.Finalize(caller, tokenID, renter, checkin, checkout)
		return err
	})
	return payee, payout, err
}

func (n *Node) SetFeeBps(caller string, bps uint64) error {
	return n.withEngines(ModuleRental, func(set *engineSet) error {
		return set.rental.SetFeeBps(caller, bps)
	})
}

func (n *Node) WithdrawPlatform(caller, target string, amount types.Coin) error {
	return n.withEngines(ModuleRental, func(set *engineSet) error {
		return set.rental.WithdrawPlatform(caller, target, amount)
	})
}

// --- Marketplace operations ---

func (n *Node) ListForSale(caller, tokenID string, sale types.SaleListing) error {
	return n.withEngines(ModuleMarket, func(set *engineSet) error {
		return set.market.ListForSale(caller, tokenID, sale)
	})
}

func (n *Node) DelistSale(caller, tokenID string) error {
	return n.withEngines(ModuleMarket, func(set *engineSet) error {
		return set.market.Delist(caller, tokenID)
	})
}

func (n *Node) PlaceOrWithdrawBid(caller, tokenID string, funds types.Coin) error {
	return n.withEngines(ModuleMarket, func(set *engineSet) error {
		return set.market.PlaceOrWithdrawBid(caller, tokenID, funds)
	})
}

// --- Registry operations ---

func (n *Node) MintToken(caller, tokenID, uri string) (*types.Token, error) {
	var token *types.Token
	err := n.withEngines(ModuleRegistry, func(set *engineSet) error {
		var err error
		token, err = set.registry.Mint(caller, tokenID, uri)
		return err
	})
	return token, err
}

func (n *Node) TransferToken(caller, tokenID, recipient string) error {
	return n.withEngines(ModuleRegistry, func(set *engineSet) error {
		return set.registry.Transfer(caller, tokenID, recipient)
	})
}

func (n *Node) ApproveSpender(caller, tokenID, spender string, expires uint64) error {
	return n.withEngines(ModuleRegistry, func(set *engineSet) error {
		return set.registry.Approve(caller, tokenID, spender, expires)
	})
}

func (n *Node) RevokeSpender(caller, tokenID, spender string) error {
	return n.withEngines(ModuleRegistry, func(set *engineSet) error {
		return set.registry.Revoke(caller, tokenID, spender)
	})
}

func (n *Node) ApproveOperator(caller, operator string, expires uint64) error {
	return n.withEngines(ModuleRegistry, func(set *engineSet) error {
		return set.registry.ApproveAll(caller, operator, expires)
	})
}

func (n *Node) RevokeOperator(caller, operator string) error {
	return n.withEngines(ModuleRegistry, func(set *engineSet) error {
		return set.registry.RevokeAll(caller, operator)
	})
}

func (n *Node) BurnToken(caller, tokenID string) error {
	return n.withEngines(ModuleRegistry, func(set *engineSet) error {
		return set.registry.Burn(caller, tokenID)
	})
}

func (n *Node) SetTokenMetadata(caller, tokenID, uri string) error {
	return n.withEngines(ModuleRegistry, func(set *engineSet) error {
		return set.registry.SetMetadata(caller, tokenID, uri)
	})
}

// --- Queries ---

// Token returns a copy of a token record.
func (n *Node) Token(id string) (*types.Token, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return state.NewManager(n.db).TokenGet(id)
}

// Account returns a copy of an account, zero-balance when unknown.
func (n *Node) Account(addr string) (*types.Account, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return state.NewManager(n.db).AccountGet(addr)
}

// FeeBps returns the platform fee.
func (n *Node) FeeBps() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return state.NewManager(n.db).FeeBps()
}

// PlatformBalance returns accumulated platform revenue for a denom.
func (n *Node) PlatformBalance(denom string) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return state.NewManager(n.db).PlatformBalance(denom)
}

// TokenCount returns the number of minted tokens.
func (n *Node) TokenCount() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return state.NewManager(n.db).TokenCount()
}

// Mint credits funds to an address. Exposed for genesis tooling and local
// networks; production deployments gate it behind the admin token at the RPC
// layer.
func (n *Node) Mint(caller, addr, denom string, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	mgr := state.NewManager(n.db)
	admin, err := mgr.Admin()
	if err != nil {
		return err
	}
	if admin == "" || caller != admin {
		return fmt.Errorf("core: caller not authorized to mint")
	}
	return mgr.Mint(addr, denom, amount)
}
