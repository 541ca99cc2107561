package rental

import (
	"errors"
	"math/big"
	"testing"

	"staychain/core/events"
	"staychain/core/state"
	"staychain/core/types"
	"staychain/storage"
)

const (
	testOwner  = "stay1owner"
	testRenter = "stay1renter"
	testAdmin  = "stay1admin"
	testDenom  = "unhb"
	testToken  = "villa-1"
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
		now: 1 * day,
	}
	env.eng = NewEngine()
	env.eng.SetState(env.mgr)
	env.eng.SetNowFunc(func() uint64 { return env.now })
	if err := env.mgr.SetAdmin(testAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := env.mgr.SetFeeBps(500); err != nil {
		t.Fatalf("seed fee: %v", err)
	}
	if err := env.mgr.Mint(testRenter, testDenom, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("seed renter: %v", err)
	}
	return env
}

func (env *testEnv) seedToken(t *testing.T, listing *types.RentalListing) {
	t.Helper()
	token := &types.Token{ID: testToken, Owner: testOwner, Listing: listing}
	if err := env.mgr.TokenPut(token); err != nil {
		t.Fatalf("seed token: %v", err)
	}
}

func shortTermListing() *types.RentalListing {
	return &types.RentalListing{
		Kind:         types.ShortTerm,
		Denom:        testDenom,
		PricePerUnit: 100,
		MinimumStay:  1,
		Cancellation: []types.CancellationTier{
			{DeadlineDays: 7, RefundPercent: 50},
			{DeadlineDays: 2, RefundPercent: 20},
		},
	}
}

func (env *testEnv) balance(t *testing.T, addr string) *big.Int {
	t.Helper()
	acc, err := env.mgr.AccountGet(addr)
	if err != nil {
		t.Fatalf("account %s: %v", addr, err)
	}
	return acc.Balance(testDenom)
}

func (env *testEnv) platform(t *testing.T) *big.Int {
	t.Helper()
	bal, err := env.mgr.PlatformBalance(testDenom)
	if err != nil {
		t.Fatalf("platform balance: %v", err)
	}
	return bal
}

func (env *testEnv) token(t *testing.T) *types.Token {
	t.Helper()
	token, ok, err := env.mgr.TokenGet(testToken)
	if err != nil || !ok {
		t.Fatalf("token lookup: ok=%v err=%v", ok, err)
	}
	return token
}

func coin(amount int64) types.Coin {
	return types.Coin{Denom: testDenom, Amount: big.NewInt(amount)}
}

func TestReserveShortTerm(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())

	// 3 nights at 100 with a 5% fee: rent 300, fee 15, required 315.
	booking, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 2, coin(315))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if booking.Deposit.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("deposit = %s, want 300", booking.Deposit)
	}
	if booking.IsApproved() {
		t.Fatal("booking should not be auto-approved")
	}
	if got := env.platform(t); got.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("platform balance = %s, want 15", got)
	}
	if got := env.balance(t, state.VaultAddress()); got.Cmp(big.NewInt(315)) != 0 {
		t.Fatalf("vault balance = %s, want 315", got)
	}
	if got := env.balance(t, testRenter); got.Cmp(big.NewInt(999_685)) != 0 {
		t.Fatalf("renter balance = %s, want 999685", got)
	}
	if n := len(env.token(t).Rentals); n != 1 {
		t.Fatalf("stored rentals = %d, want 1", n)
	}
}

func TestReserveOverpaymentGoesToPlatform(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())

	booking, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(400))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	// Deposit is clamped to rent; the extra 100 on top of the fee is kept.
	if booking.Deposit.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("deposit = %s, want 300", booking.Deposit)
	}
	if got := env.platform(t); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("platform balance = %s, want 100", got)
	}
}

func TestReserveRejections(t *testing.T) {
	env := newTestEnv(t)
	listing := shortTermListing()
	listing.MinimumStay = 2
	env.seedToken(t, listing)

	cases := []struct {
		name     string
		checkin  uint64
		checkout uint64
		funds    types.Coin
		wantErr  error
	}{
		{"underpayment", 10 * day, 13 * day, coin(314), ErrInsufficientDeposit},
		{"wrong denom", 10 * day, 13 * day, types.Coin{Denom: "uatom", Amount: big.NewInt(315)}, ErrInvalidDeposit},
		{"zero funds", 10 * day, 13 * day, coin(0), ErrInsufficientDeposit},
		{"below minimum stay", 10 * day, 11 * day, coin(105), ErrLessThanMinimum},
		{"inverted interval", 13 * day, 10 * day, coin(315), ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.eng.Reserve(testRenter, testToken, tc.checkin, tc.checkout, 1, tc.funds); !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
	// Nothing was escrowed by the failed attempts.
	if got := env.balance(t, testRenter); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("renter balance = %s, want untouched", got)
	}
}

func TestReserveUnlistedAndMissing(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, nil)

	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); !errors.Is(err, ErrNotListed) {
		t.Fatalf("err = %v, want ErrNotListed", err)
	}
	if _, err := env.eng.Reserve(testRenter, "no-such-token", 10*day, 13*day, 1, coin(315)); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestReserveOverlapRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())

	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := env.eng.Reserve(testRenter, testToken, 12*day, 14*day, 1, coin(210)); !errors.Is(err, ErrUnavailablePeriod) {
		t.Fatalf("err = %v, want ErrUnavailablePeriod", err)
	}
	// Touching the existing checkout is fine.
	if _, err := env.eng.Reserve(testRenter, testToken, 13*day, 14*day, 1, coin(105)); err != nil {
		t.Fatalf("adjacent reserve: %v", err)
	}
}

func TestApproveFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := env.eng.Approve(testRenter, testToken, testRenter, 10*day, 13*day); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("renter approving own booking: err = %v, want ErrUnauthorized", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 10*day, 12*day); !errors.Is(err, ErrNotReserved) {
		t.Fatalf("wrong interval: err = %v, want ErrNotReserved", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 10*day, 13*day); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !env.token(t).Rentals[0].IsApproved() {
		t.Fatal("booking not marked approved")
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 10*day, 13*day); !errors.Is(err, ErrApprovedAlready) {
		t.Fatalf("second approve: err = %v, want ErrApprovedAlready", err)
	}

	env.now = 10 * day
	// Checkin has arrived, approval window is closed.
	if err := env.eng.Approve(testOwner, testToken, testRenter, 10*day, 13*day); !errors.Is(err, ErrRentalAlreadyStarted) {
		t.Fatalf("late approve: err = %v, want ErrRentalAlreadyStarted", err)
	}
}

func TestRejectRefundsDeposit(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 10*day, 13*day); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Rejection works before and after approval and refunds the deposit,
	// but the create-time fee is platform revenue and stays collected.
	if err := env.eng.Reject(testOwner, testToken, testRenter, 10*day, 13*day); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := env.balance(t, testRenter); got.Cmp(big.NewInt(999_985)) != 0 {
		t.Fatalf("renter balance = %s, want 999985", got)
	}
	if got := env.platform(t); got.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("platform balance = %s, want 15", got)
	}
	if n := len(env.token(t).Rentals); n != 0 {
		t.Fatalf("rentals = %d, want 0", n)
	}
	if err := env.eng.Reject(testOwner, testToken, testRenter, 10*day, 13*day); !errors.Is(err, ErrNotReserved) {
		t.Fatalf("second reject: err = %v, want ErrNotReserved", err)
	}
}

func TestCancelBeforeApproval(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := env.eng.CancelBeforeApproval(testRenter, testToken, 10*day, 13*day); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := env.balance(t, testRenter); got.Cmp(big.NewInt(999_985)) != 0 {
		t.Fatalf("renter balance = %s, want 999985", got)
	}
	if n := len(env.token(t).Rentals); n != 0 {
		t.Fatalf("rentals = %d, want 0", n)
	}
}

func TestCancelBeforeApprovalBlockedOnceApproved(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 10*day, 13*day); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := env.eng.CancelBeforeApproval(testRenter, testToken, 10*day, 13*day); !errors.Is(err, ErrApprovedAlready) {
		t.Fatalf("err = %v, want ErrApprovedAlready", err)
	}
}

func TestCancelAfterApproval(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	// now = 1 day, checkin = 11 days out: the 50% tier applies.
	if _, err := env.eng.Reserve(testRenter, testToken, 12*day, 15*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 12*day, 15*day); err != nil {
		t.Fatalf("approve: %v", err)
	}

	refund, err := env.eng.CancelAfterApproval(testRenter, testToken, 12*day, 15*day)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if refund.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("refund = %s, want 150", refund)
	}
	token := env.token(t)
	if n := len(token.Rentals); n != 1 {
		t.Fatalf("rentals = %d, want 1 (cancelled booking stays until finalize)", n)
	}
	booking := token.Rentals[0]
	if !booking.Cancelled {
		t.Fatal("cancelled latch not set")
	}
	if booking.Deposit.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("residual deposit = %s, want 150", booking.Deposit)
	}

	// The latch is one-way; a second cancel is refused.
	if _, err := env.eng.CancelAfterApproval(testRenter, testToken, 12*day, 15*day); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("second cancel: err = %v, want ErrNotApproved", err)
	}

	// The residual goes to the host on finalize, fee-free, even before checkout.
	payee, payout, err := env.eng.Finalize(testOwner, testToken, testRenter, 12*day, 15*day)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if payee != testOwner {
		t.Fatalf("payee = %s, want owner", payee)
	}
	if payout.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("payout = %s, want 150", payout)
	}
	if got := env.platform(t); got.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("platform balance = %s, want 15 (create-time fee only)", got)
	}
}

func TestCancelAfterApprovalInsideDeadlineForfeitsAll(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 2*day, 5*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 2*day, 5*day); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// One day before checkin no tier qualifies.
	refund, err := env.eng.CancelAfterApproval(testRenter, testToken, 2*day, 5*day)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if refund.Sign() != 0 {
		t.Fatalf("refund = %s, want 0", refund)
	}
	if got := env.token(t).Rentals[0].Deposit; got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("residual deposit = %s, want 300", got)
	}
}

func TestCancelAfterApprovalGuards(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// Unapproved bookings take the other cancellation path.
	if _, err := env.eng.CancelAfterApproval(testRenter, testToken, 10*day, 13*day); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("err = %v, want ErrNotApproved", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 10*day, 13*day); err != nil {
		t.Fatalf("approve: %v", err)
	}
	env.now = 10 * day
	if _, err := env.eng.CancelAfterApproval(testRenter, testToken, 10*day, 13*day); !errors.Is(err, ErrRentalAlreadyStarted) {
		t.Fatalf("err = %v, want ErrRentalAlreadyStarted", err)
	}
}

func TestFinalizeApprovedStay(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 10*day, 13*day); err != nil {
		t.Fatalf("approve: %v", err)
	}

	env.now = 12 * day
	if _, _, err := env.eng.Finalize(testOwner, testToken, testRenter, 10*day, 13*day); !errors.Is(err, ErrRentalActive) {
		t.Fatalf("early finalize: err = %v, want ErrRentalActive", err)
	}

	env.now = 13 * day
	payee, payout, err := env.eng.Finalize(testOwner, testToken, testRenter, 10*day, 13*day)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if payee != testOwner {
		t.Fatalf("payee = %s, want owner", payee)
	}
	// 5% payout fee on the 300 deposit.
	if payout.Cmp(big.NewInt(285)) != 0 {
		t.Fatalf("payout = %s, want 285", payout)
	}
	if got := env.balance(t, testOwner); got.Cmp(big.NewInt(285)) != 0 {
		t.Fatalf("owner balance = %s, want 285", got)
	}
	if got := env.platform(t); got.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("platform balance = %s, want 30", got)
	}
	// Vault retains exactly the platform's uncollected revenue.
	if got := env.balance(t, state.VaultAddress()); got.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("vault balance = %s, want 30", got)
	}
	if n := len(env.token(t).Rentals); n != 0 {
		t.Fatalf("rentals = %d, want 0", n)
	}
}

func TestFinalizeUnapprovedRefundsRenter(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	env.now = 13 * day
	payee, payout, err := env.eng.Finalize(testOwner, testToken, testRenter, 10*day, 13*day)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if payee != testRenter {
		t.Fatalf("payee = %s, want renter", payee)
	}
	if payout.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("payout = %s, want 300", payout)
	}
	if got := env.balance(t, testRenter); got.Cmp(big.NewInt(999_985)) != 0 {
		t.Fatalf("renter balance = %s, want 999985", got)
	}
}

func TestFinalizeRequiresSendRights(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	env.now = 13 * day
	if _, _, err := env.eng.Finalize("stay1stranger", testToken, testRenter, 10*day, 13*day); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLongTermReserveAndTopUp(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, &types.RentalListing{
		Kind:         types.LongTerm,
		Denom:        testDenom,
		PricePerUnit: 100,
		AutoApprove:  true,
	})

	// Long-term escrows exactly what was attached, no fee at create time.
	booking, err := env.eng.Reserve(testRenter, testToken, 30*day, 90*day, 1, coin(1000))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if booking.Deposit.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("deposit = %s, want 1000", booking.Deposit)
	}
	if !booking.IsApproved() {
		t.Fatal("auto-approve should mark the booking")
	}
	if booking.ApprovedMarker == "" {
		t.Fatal("long-term approval records a marker")
	}
	if got := env.platform(t); got.Sign() != 0 {
		t.Fatalf("platform balance = %s, want 0", got)
	}

	if err := env.eng.TopUpDeposit(testRenter, testToken, 30*day, 90*day, coin(500)); err != nil {
		t.Fatalf("top-up: %v", err)
	}
	if got := env.token(t).Rentals[0].Deposit; got.Cmp(big.NewInt(1500)) != 0 {
		t.Fatalf("deposit = %s, want 1500", got)
	}
	if got := env.balance(t, state.VaultAddress()); got.Cmp(big.NewInt(1500)) != 0 {
		t.Fatalf("vault balance = %s, want 1500", got)
	}
}

func TestTopUpShortTermRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := env.eng.TopUpDeposit(testRenter, testToken, 10*day, 13*day, coin(100)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestListAndUnlist(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, nil)

	listing := shortTermListing()
	if err := env.eng.List("stay1stranger", testToken, *listing); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger list: err = %v, want ErrUnauthorized", err)
	}
	if err := env.eng.List(testOwner, testToken, *listing); err != nil {
		t.Fatalf("list: %v", err)
	}
	if env.token(t).Listing == nil {
		t.Fatal("listing not stored")
	}

	// A booking in flight freezes the terms.
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := env.eng.Unlist(testOwner, testToken); !errors.Is(err, ErrRentalActive) {
		t.Fatalf("unlist during booking: err = %v, want ErrRentalActive", err)
	}
	env.now = 14 * day
	if err := env.eng.Unlist(testOwner, testToken); err != nil {
		t.Fatalf("unlist: %v", err)
	}
	if env.token(t).Listing != nil {
		t.Fatal("listing not cleared")
	}
}

func TestOperatorCanList(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, nil)
	if err := env.mgr.OperatorPut(testOwner, "stay1operator", 0); err != nil {
		t.Fatalf("seed operator: %v", err)
	}
	if err := env.eng.List("stay1operator", testToken, *shortTermListing()); err != nil {
		t.Fatalf("operator list: %v", err)
	}
}

func TestSetFeeBps(t *testing.T) {
	env := newTestEnv(t)
	if err := env.eng.SetFeeBps(testRenter, 250); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-admin: err = %v, want ErrUnauthorized", err)
	}
	if err := env.eng.SetFeeBps(testAdmin, 10_001); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("out of range: err = %v, want ErrInvalidInput", err)
	}
	if err := env.eng.SetFeeBps(testAdmin, 250); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	bps, err := env.mgr.FeeBps()
	if err != nil || bps != 250 {
		t.Fatalf("fee = %d err = %v, want 250", bps, err)
	}
}

func TestWithdrawPlatform(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 1, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := env.eng.WithdrawPlatform(testRenter, testAdmin, coin(10)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-admin: err = %v, want ErrUnauthorized", err)
	}
	if err := env.eng.WithdrawPlatform(testAdmin, testAdmin, coin(16)); !errors.Is(err, ErrUnavailableAmount) {
		t.Fatalf("overdraw: err = %v, want ErrUnavailableAmount", err)
	}
	if err := env.eng.WithdrawPlatform(testAdmin, testAdmin, coin(10)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := env.platform(t); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("platform balance = %s, want 5", got)
	}
	if got := env.balance(t, testAdmin); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("admin balance = %s, want 10", got)
	}
	if got := env.balance(t, state.VaultAddress()); got.Cmp(big.NewInt(305)) != 0 {
		t.Fatalf("vault balance = %s, want 305", got)
	}
}

type recordingEmitter struct {
	emitted []*types.Event
}

func (r *recordingEmitter) Emit(evt events.Event) {
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		r.emitted = append(r.emitted, carrier.Event())
	}
}

func TestFeeBearingEventsCarryPlatformFee(t *testing.T) {
	env := newTestEnv(t)
	env.seedToken(t, shortTermListing())
	rec := &recordingEmitter{}
	env.eng.SetEmitter(rec)

	if _, err := env.eng.Reserve(testRenter, testToken, 10*day, 13*day, 2, coin(315)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := env.eng.Approve(testOwner, testToken, testRenter, 10*day, 13*day); err != nil {
		t.Fatalf("approve: %v", err)
	}
	env.now = 14 * day
	if _, _, err := env.eng.Finalize(testOwner, testToken, testRenter, 10*day, 13*day); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	byType := make(map[string]*types.Event)
	for _, evt := range rec.emitted {
		byType[evt.Type] = evt
	}
	created := byType[EventTypeReservationCreated]
	if created == nil || created.Attributes[types.AttrPlatformFee] != "15" {
		t.Fatalf("created event = %+v, want platform fee 15", created)
	}
	finalized := byType[EventTypeReservationFinalized]
	if finalized == nil || finalized.Attributes[types.AttrPlatformFee] != "15" {
		t.Fatalf("finalized event = %+v, want platform fee 15", finalized)
	}
	// Approval moves no money and must not claim revenue.
	approved := byType[EventTypeReservationApproved]
	if approved == nil {
		t.Fatal("missing approval event")
	}
	if _, ok := approved.Attributes[types.AttrPlatformFee]; ok {
		t.Fatal("approval event should not carry a platform fee")
	}
}
