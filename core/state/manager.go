package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"staychain/core/types"
	"staychain/crypto"
	"staychain/storage"
)

var (
	// ErrInsufficientBalance is returned by Transfer when the source account
	// cannot cover the amount in the given denom.
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	// ErrPlatformUnderflow is returned when a debit exceeds the accumulated
	// platform balance for a denom.
	ErrPlatformUnderflow = errors.New("state: platform balance underflow")
)

const (
	keyFee        = "fee"
	keyAdmin      = "admin"
	keyTokenCount = "tokencount"

	prefixToken    = "token/"
	prefixAccount  = "account/"
	prefixPlatform = "platform/"
	prefixOperator = "operator/"
)

// Manager persists the engine's entire state in a keyed store: token records
// by id, accounts by address, the fee scalar, per-denom platform balances and
// the operator delegation table. No other process-wide state exists, so a
// node can be replayed from the store alone.
type Manager struct {
	db storage.Database
}

// NewManager wraps a key-value database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// VaultAddress is the module account that holds all escrowed deposits and
// accumulated platform revenue. Derived, not owned: no key exists for it.
func VaultAddress() string {
	hash := ethcrypto.Keccak256([]byte("staychain/escrow-vault"))
	return crypto.NewAddress(hash[12:]).String()
}

func (m *Manager) getJSON(key string, out interface{}) (bool, error) {
	raw, err := m.db.Get([]byte(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.db.Put([]byte(key), raw)
}

// --- Token records ---

// TokenGet loads a token record by id.
func (m *Manager) TokenGet(id string) (*types.Token, bool, error) {
	token := &types.Token{}
	ok, err := m.getJSON(prefixToken+id, token)
	if err != nil || !ok {
		return nil, false, err
	}
	return token, true, nil
}

// TokenPut validates and stores a token record.
func (m *Manager) TokenPut(token *types.Token) error {
	sanitized, err := types.SanitizeToken(token)
	if err != nil {
		return err
	}
	return m.putJSON(prefixToken+sanitized.ID, sanitized)
}

// TokenDelete removes a token record.
func (m *Manager) TokenDelete(id string) error {
	return m.db.Delete([]byte(prefixToken + id))
}

// TokenHas reports whether a token id is already claimed.
func (m *Manager) TokenHas(id string) (bool, error) {
	return m.db.Has([]byte(prefixToken + id))
}

// TokenCount returns the number of minted tokens.
func (m *Manager) TokenCount() (uint64, error) {
	raw, err := m.db.Get([]byte(keyTokenCount))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("state: malformed token count")
	}
	return binary.BigEndian.Uint64(raw), nil
}

// SetTokenCount stores the minted token counter.
func (m *Manager) SetTokenCount(count uint64) error {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, count)
	return m.db.Put([]byte(keyTokenCount), raw)
}

// --- Accounts / bank ---

// AccountGet loads an account, returning a zero-balance account when none is
// stored yet.
func (m *Manager) AccountGet(addr string) (*types.Account, error) {
	acc := &types.Account{}
	ok, err := m.getJSON(prefixAccount+addr, acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balances: make(map[string]*big.Int)}, nil
	}
	if acc.Balances == nil {
		acc.Balances = make(map[string]*big.Int)
	}
	return acc, nil
}

// AccountPut stores an account.
func (m *Manager) AccountPut(addr string, acc *types.Account) error {
	if acc == nil {
		return fmt.Errorf("state: nil account")
	}
	return m.putJSON(prefixAccount+addr, acc)
}

// Transfer moves amount of denom from one address to another. It is the
// monetary primitive every money-moving operation uses; a failure here must
// fail the whole call.
func (m *Manager) Transfer(from, to, denom string, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative transfer amount")
	}
	if strings.TrimSpace(denom) == "" {
		return fmt.Errorf("state: empty denom")
	}
	fromAcc, err := m.AccountGet(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance(denom).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toAcc, err := m.AccountGet(to)
	if err != nil {
		return err
	}
	fromAcc.SetBalance(denom, new(big.Int).Sub(fromAcc.Balance(denom), amount))
	toAcc.SetBalance(denom, new(big.Int).Add(toAcc.Balance(denom), amount))
	if err := m.AccountPut(from, fromAcc); err != nil {
		return err
	}
	return m.AccountPut(to, toAcc)
}

// Mint credits freshly issued funds to an address. Used by genesis seeding
// and tests; the engine itself never mints.
func (m *Manager) Mint(addr, denom string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: mint amount must be positive")
	}
	acc, err := m.AccountGet(addr)
	if err != nil {
		return err
	}
	acc.SetBalance(denom, new(big.Int).Add(acc.Balance(denom), amount))
	return m.AccountPut(addr, acc)
}

// --- Platform fee accounting ---

// FeeBps returns the platform fee in basis points, zero when unset.
func (m *Manager) FeeBps() (uint64, error) {
	var bps uint64
	ok, err := m.getJSON(keyFee, &bps)
	if err != nil || !ok {
		return 0, err
	}
	return bps, nil
}

// SetFeeBps stores the platform fee scalar.
func (m *Manager) SetFeeBps(bps uint64) error {
	return m.putJSON(keyFee, bps)
}

// FeeConfigured reports whether a fee has ever been stored. An explicit zero
// is distinct from never-configured; genesis seeding relies on that.
func (m *Manager) FeeConfigured() (bool, error) {
	return m.db.Has([]byte(keyFee))
}

// PlatformBalance returns the accumulated platform revenue for a denom.
func (m *Manager) PlatformBalance(denom string) (*big.Int, error) {
	var stored string
	ok, err := m.getJSON(prefixPlatform+denom, &stored)
	if err != nil || !ok {
		return big.NewInt(0), err
	}
	bal, valid := new(big.Int).SetString(stored, 10)
	if !valid {
		return nil, fmt.Errorf("state: malformed platform balance for %s", denom)
	}
	return bal, nil
}

// PlatformCredit adds revenue to the per-denom accumulator.
func (m *Manager) PlatformCredit(denom string, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative platform credit")
	}
	bal, err := m.PlatformBalance(denom)
	if err != nil {
		return err
	}
	return m.putJSON(prefixPlatform+denom, new(big.Int).Add(bal, amount).String())
}

// PlatformDebit removes revenue from the accumulator, bounded by what has
// been collected.
func (m *Manager) PlatformDebit(denom string, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative platform debit")
	}
	bal, err := m.PlatformBalance(denom)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrPlatformUnderflow
	}
	return m.putJSON(prefixPlatform+denom, new(big.Int).Sub(bal, amount).String())
}

// --- Operators ---

func operatorKey(owner, operator string) string {
	return prefixOperator + owner + "/" + operator
}

// OperatorExpiry resolves the (owner, operator) delegation table.
func (m *Manager) OperatorExpiry(owner, operator string) (uint64, bool, error) {
	var expires uint64
	ok, err := m.getJSON(operatorKey(owner, operator), &expires)
	if err != nil || !ok {
		return 0, false, err
	}
	return expires, true, nil
}

// OperatorPut grants operator rights over all of owner's tokens.
func (m *Manager) OperatorPut(owner, operator string, expires uint64) error {
	return m.putJSON(operatorKey(owner, operator), expires)
}

// OperatorDelete revokes an operator grant.
func (m *Manager) OperatorDelete(owner, operator string) error {
	return m.db.Delete([]byte(operatorKey(owner, operator)))
}

// --- Administration ---

// Admin returns the administrator address, empty when unset.
func (m *Manager) Admin() (string, error) {
	var admin string
	ok, err := m.getJSON(keyAdmin, &admin)
	if err != nil || !ok {
		return "", err
	}
	return admin, nil
}

// SetAdmin stores the administrator address.
func (m *Manager) SetAdmin(addr string) error {
	return m.putJSON(keyAdmin, addr)
}
