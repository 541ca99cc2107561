package registry

import (
	"errors"
	"math/big"
	"testing"

	"staychain/core/state"
	"staychain/core/types"
	"staychain/storage"
)

const (
	testOwner  = "stay1owner"
	testBuyer  = "stay1buyer"
	testOther  = "stay1other"
	testToken  = "villa-1"
	testExpiry = uint64(5_000)
)

type testEnv struct {
	eng *Engine
	mgr *state.Manager
	now uint64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		mgr: state.NewManager(storage.NewMemDB()),
		now: 1_000,
	}
	env.eng = NewEngine()
	env.eng.SetState(env.mgr)
	env.eng.SetNowFunc(func() uint64 { return env.now })
	return env
}

func (env *testEnv) mint(t *testing.T) {
	t.Helper()
	if _, err := env.eng.Mint(testOwner, testToken, "ipfs://villa-1"); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func (env *testEnv) token(t *testing.T) *types.Token {
	t.Helper()
	token, ok, err := env.mgr.TokenGet(testToken)
	if err != nil || !ok {
		t.Fatalf("token lookup: ok=%v err=%v", ok, err)
	}
	return token
}

type recordingSettler struct {
	calls    int
	previous string
	next     string
	err      error
}

func (s *recordingSettler) SettleOnTransfer(token *types.Token, previousOwner, newOwner string) (*types.Bid, error) {
	s.calls++
	s.previous = previousOwner
	s.next = newOwner
	return nil, s.err
}

func TestMint(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.eng.Mint(testOwner, testToken, "ipfs://villa-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if token.Owner != testOwner || token.URI != "ipfs://villa-1" {
		t.Fatalf("minted token = %+v", token)
	}
	count, err := env.mgr.TokenCount()
	if err != nil || count != 1 {
		t.Fatalf("count = %d err = %v, want 1", count, err)
	}

	if _, err := env.eng.Mint(testOther, testToken, ""); !errors.Is(err, ErrTokenClaimed) {
		t.Fatalf("duplicate mint: err = %v, want ErrTokenClaimed", err)
	}
	if _, err := env.eng.Mint(testOwner, "  ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank id: err = %v, want ErrInvalidInput", err)
	}
}

func TestTransfer(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t)

	if err := env.eng.Transfer(testOther, testToken, testBuyer); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger transfer: err = %v, want ErrUnauthorized", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testOther, testExpiry); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := env.eng.Transfer(testOwner, testToken, testBuyer); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	token := env.token(t)
	if token.Owner != testBuyer {
		t.Fatalf("owner = %s, want buyer", token.Owner)
	}
	// Grants given by the previous owner die with the transfer.
	if len(token.Approvals) != 0 {
		t.Fatalf("approvals = %d, want cleared", len(token.Approvals))
	}
	if err := env.eng.Transfer(testOther, testToken, testOther); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stale approval: err = %v, want ErrUnauthorized", err)
	}
}

func TestTransferByApprovedSpender(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t)
	if err := env.eng.Approve(testOwner, testToken, testOther, testExpiry); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// A live approval carries send rights.
	if err := env.eng.Transfer(testOther, testToken, testBuyer); err != nil {
		t.Fatalf("approved transfer: %v", err)
	}
	if env.token(t).Owner != testBuyer {
		t.Fatal("ownership did not move")
	}
}

func TestTransferExpiredApprovalRejected(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t)
	if err := env.eng.Approve(testOwner, testToken, testOther, testExpiry); err != nil {
		t.Fatalf("approve: %v", err)
	}
	env.now = testExpiry
	if err := env.eng.Transfer(testOther, testToken, testBuyer); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired approval: err = %v, want ErrUnauthorized", err)
	}
}

func TestTransferInvokesSettler(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t)
	settler := &recordingSettler{}
	env.eng.SetSettler(settler)

	if err := env.eng.Transfer(testOwner, testToken, testBuyer); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if settler.calls != 1 || settler.previous != testOwner || settler.next != testBuyer {
		t.Fatalf("settler saw %+v", settler)
	}

	// A settlement failure aborts the transfer.
	settler.err = errors.New("settlement broken")
	if err := env.eng.Transfer(testBuyer, testToken, testOther); err == nil {
		t.Fatal("expected settlement error to propagate")
	}
	if env.token(t).Owner != testBuyer {
		t.Fatal("ownership moved despite failed settlement")
	}
}

func TestApproveRevoke(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t)

	if err := env.eng.Approve(testOther, testToken, testOther, 0); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger approve: err = %v, want ErrUnauthorized", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testOther, env.now); !errors.Is(err, ErrApprovalExpired) {
		t.Fatalf("already-expired grant: err = %v, want ErrApprovalExpired", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testOther, testExpiry); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// Re-approving replaces rather than stacking.
	if err := env.eng.Approve(testOwner, testToken, testOther, 0); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	token := env.token(t)
	if len(token.Approvals) != 1 || token.Approvals[0].Expires != 0 {
		t.Fatalf("approvals = %+v, want single never-expiring grant", token.Approvals)
	}

	if err := env.eng.Revoke(testOwner, testToken, testOther); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(env.token(t).Approvals) != 0 {
		t.Fatal("approval not removed")
	}
}

func TestOperatorGrants(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t)

	if err := env.eng.ApproveAll(testOwner, testOther, env.now); !errors.Is(err, ErrApprovalExpired) {
		t.Fatalf("expired operator grant: err = %v, want ErrApprovalExpired", err)
	}
	if err := env.eng.ApproveAll(testOwner, testOther, testExpiry); err != nil {
		t.Fatalf("approve all: %v", err)
	}
	// Operators hold manage rights over every token of the owner.
	if err := env.eng.Approve(testOther, testToken, testBuyer, 0); err != nil {
		t.Fatalf("operator approve: %v", err)
	}

	env.now = testExpiry
	if err := env.eng.Revoke(testOther, testToken, testBuyer); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired operator: err = %v, want ErrUnauthorized", err)
	}
	env.now = 1_000
	if err := env.eng.RevokeAll(testOwner, testOther); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if err := env.eng.Revoke(testOther, testToken, testBuyer); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("revoked operator: err = %v, want ErrUnauthorized", err)
	}
}

func TestBurn(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t)

	token := env.token(t)
	token.Rentals = []types.Booking{{
		Renter:   testOther,
		Checkin:  2_000,
		Checkout: 3_000,
		Denom:    "unhb",
		Deposit:  big.NewInt(100),
	}}
	if err := env.mgr.TokenPut(token); err != nil {
		t.Fatalf("store token: %v", err)
	}
	if err := env.eng.Burn(testOwner, testToken); !errors.Is(err, ErrTokenOccupied) {
		t.Fatalf("burn with booking: err = %v, want ErrTokenOccupied", err)
	}

	token.Rentals = nil
	if err := env.mgr.TokenPut(token); err != nil {
		t.Fatalf("store token: %v", err)
	}
	if err := env.eng.Burn(testOther, testToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger burn: err = %v, want ErrUnauthorized", err)
	}
	if err := env.eng.Burn(testOwner, testToken); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if _, ok, _ := env.mgr.TokenGet(testToken); ok {
		t.Fatal("token record survived burn")
	}
	count, err := env.mgr.TokenCount()
	if err != nil || count != 0 {
		t.Fatalf("count = %d err = %v, want 0", count, err)
	}
}

func TestSetMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t)

	token := env.token(t)
	token.Rentals = []types.Booking{{
		Renter:   testOther,
		Checkin:  2_000,
		Checkout: 3_000,
		Denom:    "unhb",
		Deposit:  big.NewInt(100),
	}}
	if err := env.mgr.TokenPut(token); err != nil {
		t.Fatalf("store token: %v", err)
	}

	if err := env.eng.SetMetadata(testOwner, testToken, "ipfs://villa-1-v2"); !errors.Is(err, ErrRentalActive) {
		t.Fatalf("edit during booking: err = %v, want ErrRentalActive", err)
	}
	env.now = 3_001
	if err := env.eng.SetMetadata(testOwner, testToken, "ipfs://villa-1-v2"); err != nil {
		t.Fatalf("set metadata: %v", err)
	}
	if got := env.token(t).URI; got != "ipfs://villa-1-v2" {
		t.Fatalf("uri = %s", got)
	}
}
