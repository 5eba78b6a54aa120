package market_test

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
	"time"

	"byobmarket/core/events"
	"byobmarket/core/state"
	"byobmarket/native/market"
	"byobmarket/native/nft"
	"byobmarket/native/token"
	"byobmarket/storage"
)

const startTime int64 = 1_700_000_000

// testEnv wires the marketplace engine to a real in-memory state manager so
// the tests exercise the same paths the node runs in production.
type testEnv struct {
	t        *testing.T
	engine   *market.Engine
	ledger   *token.Ledger
	registry *nft.Registry
	recorder *events.Recorder
	now      int64

	admin [20]byte
	addr1 [20]byte
	addr2 [20]byte
}

func testAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	env := &testEnv{
		t:        t,
		recorder: &events.Recorder{},
		now:      startTime,
		admin:    testAddress(0x01),
		addr1:    testAddress(0x02),
		addr2:    testAddress(0x03),
	}

	env.ledger = token.NewLedger()
	env.ledger.SetState(manager)
	env.ledger.SetEmitter(env.recorder)
	env.ledger.SetAdmin(env.admin)
	if err := env.ledger.Mint(env.admin, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("mint initial supply: %v", err)
	}

	env.registry = nft.NewRegistry()
	env.registry.SetState(manager)
	env.registry.SetEmitter(env.recorder)
	env.registry.TransferOwnership(market.ModuleAddress)

	env.engine = market.NewEngine(env.ledger, env.registry)
	env.engine.SetState(manager)
	env.engine.SetEmitter(env.recorder)
	env.engine.SetNowFunc(func() int64 { return env.now })
	return env
}

func (e *testEnv) advance(d time.Duration) { e.now += int64(d / time.Second) }

func (e *testEnv) createItem(owner [20]byte) uint64 {
	e.t.Helper()
	id, err := e.engine.CreateItem("ipfs://item", owner)
	if err != nil {
		e.t.Fatalf("CreateItem error: %v", err)
	}
	return id
}

// listedItem mints an item to addr1 and lists it for sale at the given price.
func (e *testEnv) listedItem(price int64) uint64 {
	e.t.Helper()
	id := e.createItem(e.addr1)
	e.approveItem(e.addr1, id)
	if err := e.engine.ListItem(e.addr1, id, big.NewInt(price)); err != nil {
		e.t.Fatalf("ListItem error: %v", err)
	}
	return id
}

// auctionedItem mints an item to addr1 and opens an auction at the given
// minimum price.
func (e *testEnv) auctionedItem(minPrice int64) uint64 {
	e.t.Helper()
	id := e.createItem(e.addr1)
	e.approveItem(e.addr1, id)
	if err := e.engine.ListItemOnAuction(e.addr1, id, big.NewInt(minPrice)); err != nil {
		e.t.Fatalf("ListItemOnAuction error: %v", err)
	}
	return id
}

func (e *testEnv) approveItem(owner [20]byte, id uint64) {
	e.t.Helper()
	if err := e.registry.Approve(owner, id, market.ModuleAddress); err != nil {
		e.t.Fatalf("nft approve error: %v", err)
	}
}

func (e *testEnv) fund(addr [20]byte, amount int64) {
	e.t.Helper()
	if err := e.ledger.Transfer(e.admin, addr, big.NewInt(amount)); err != nil {
		e.t.Fatalf("fund transfer error: %v", err)
	}
}

func (e *testEnv) approveTokens(owner [20]byte, amount int64) {
	e.t.Helper()
	if err := e.ledger.Approve(owner, market.ModuleAddress, big.NewInt(amount)); err != nil {
		e.t.Fatalf("token approve error: %v", err)
	}
}

func (e *testEnv) balance(addr [20]byte) int64 {
	e.t.Helper()
	balance, err := e.ledger.BalanceOf(addr)
	if err != nil {
		e.t.Fatalf("BalanceOf error: %v", err)
	}
	return balance.Int64()
}

func (e *testEnv) itemCount(addr [20]byte) uint64 {
	e.t.Helper()
	count, err := e.registry.BalanceOf(addr)
	if err != nil {
		e.t.Fatalf("nft BalanceOf error: %v", err)
	}
	return count
}

func (e *testEnv) itemOwner(id uint64) [20]byte {
	e.t.Helper()
	owner, err := e.registry.OwnerOf(id)
	if err != nil {
		e.t.Fatalf("OwnerOf error: %v", err)
	}
	return owner
}

// assertConservation checks that every minted unit is still held by exactly
// one of the participating accounts.
func (e *testEnv) assertConservation() {
	e.t.Helper()
	supply, err := e.ledger.TotalSupply()
	if err != nil {
		e.t.Fatalf("TotalSupply error: %v", err)
	}
	total := int64(0)
	for _, addr := range [][20]byte{e.admin, e.addr1, e.addr2, market.ModuleAddress} {
		total += e.balance(addr)
	}
	if total != supply.Int64() {
		e.t.Fatalf("token conservation broken: accounts hold %d, supply is %s", total, supply)
	}
}

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t)
	id := env.createItem(env.addr2)
	if id != 1 {
		t.Fatalf("first item id = %d, want 1", id)
	}
	if env.itemCount(env.addr2) != 1 {
		t.Fatalf("addr2 item count = %d, want 1", env.itemCount(env.addr2))
	}
	if owner := env.itemOwner(id); owner != env.addr2 {
		t.Fatalf("item owner mismatch")
	}
}

func TestListItemEscrowsAsset(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)
	if env.itemCount(env.addr1) != 0 {
		t.Fatalf("seller still holds the item")
	}
	if owner := env.itemOwner(id); owner != market.ModuleAddress {
		t.Fatalf("marketplace does not hold the escrowed item")
	}
	order, ok, err := env.engine.GetOrder(id)
	if err != nil || !ok {
		t.Fatalf("GetOrder = %v, %v", ok, err)
	}
	if !order.Active || order.Kind != market.KindSale || order.Price.Int64() != 100 {
		t.Fatalf("unexpected order record: %+v", order)
	}
}

func TestListItemRequiresOwnershipAndApproval(t *testing.T) {
	env := newTestEnv(t)
	id := env.createItem(env.addr1)

	// No approval granted yet.
	err := env.engine.ListItem(env.addr1, id, big.NewInt(100))
	if !errors.Is(err, market.ErrNotOwnerOrNotApproved) {
		t.Fatalf("ListItem error = %v, want ErrNotOwnerOrNotApproved", err)
	}

	// Approved, but the caller is not the owner.
	env.approveItem(env.addr1, id)
	err = env.engine.ListItem(env.addr2, id, big.NewInt(100))
	if !errors.Is(err, market.ErrNotOwnerOrNotApproved) {
		t.Fatalf("ListItem error = %v, want ErrNotOwnerOrNotApproved", err)
	}
	if env.itemCount(env.addr1) != 1 {
		t.Fatalf("failed listing moved the item")
	}
}

func TestBuyItem(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 100)

	if err := env.engine.BuyItem(env.addr2, id); err != nil {
		t.Fatalf("BuyItem error: %v", err)
	}
	if got := env.balance(env.addr1); got != 100 {
		t.Fatalf("seller balance = %d, want 100", got)
	}
	if got := env.balance(env.addr2); got != 9_900 {
		t.Fatalf("buyer balance = %d, want 9900", got)
	}
	if env.itemCount(env.addr2) != 1 || env.itemCount(market.ModuleAddress) != 0 {
		t.Fatalf("item did not leave escrow for the buyer")
	}
	if got := env.balance(market.ModuleAddress); got != 0 {
		t.Fatalf("marketplace escrow balance = %d, want 0", got)
	}
	env.assertConservation()
}

func TestBuyItemInactiveOffer(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 200)
	if err := env.engine.BuyItem(env.addr2, id); err != nil {
		t.Fatalf("BuyItem error: %v", err)
	}

	err := env.engine.BuyItem(env.addr2, id)
	if !errors.Is(err, market.ErrOfferNotActive) {
		t.Fatalf("second BuyItem error = %v, want ErrOfferNotActive", err)
	}
	if got := env.balance(env.addr2); got != 9_900 {
		t.Fatalf("buyer balance changed by rejected buy: %d", got)
	}
	env.assertConservation()
}

func TestBuyItemSelfTrade(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)
	env.fund(env.addr1, 1_000)
	env.approveTokens(env.addr1, 100)

	err := env.engine.BuyItem(env.addr1, id)
	if !errors.Is(err, market.ErrSelfTrade) {
		t.Fatalf("BuyItem error = %v, want ErrSelfTrade", err)
	}
	if got := env.balance(env.addr1); got != 1_000 {
		t.Fatalf("seller balance changed by rejected self trade: %d", got)
	}
	if owner := env.itemOwner(id); owner != market.ModuleAddress {
		t.Fatalf("item left escrow on rejected self trade")
	}
}

func TestBuyItemInsufficientFundsLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)
	env.fund(env.addr2, 50)
	env.approveTokens(env.addr2, 100)

	err := env.engine.BuyItem(env.addr2, id)
	if !errors.Is(err, token.ErrInsufficientFunds) {
		t.Fatalf("BuyItem error = %v, want token.ErrInsufficientFunds", err)
	}
	order, ok, err := env.engine.GetOrder(id)
	if err != nil || !ok {
		t.Fatalf("GetOrder = %v, %v", ok, err)
	}
	if !order.Active {
		t.Fatalf("rejected buy deactivated the order")
	}
	env.assertConservation()
}

func TestBuyItemInsufficientAllowance(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 99)

	err := env.engine.BuyItem(env.addr2, id)
	if !errors.Is(err, token.ErrInsufficientAllowance) {
		t.Fatalf("BuyItem error = %v, want token.ErrInsufficientAllowance", err)
	}
}

func TestCancelListing(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)
	if err := env.engine.Cancel(env.addr1, id); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if env.itemCount(env.addr1) != 1 || env.itemCount(market.ModuleAddress) != 0 {
		t.Fatalf("cancelled listing did not return the item")
	}

	err := env.engine.Cancel(env.addr1, id)
	if !errors.Is(err, market.ErrOfferNotActive) {
		t.Fatalf("second Cancel error = %v, want ErrOfferNotActive", err)
	}
}

func TestCancelRejectsNonSeller(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)
	err := env.engine.Cancel(env.addr2, id)
	if !errors.Is(err, market.ErrNotSeller) {
		t.Fatalf("Cancel error = %v, want ErrNotSeller", err)
	}
	if owner := env.itemOwner(id); owner != market.ModuleAddress {
		t.Fatalf("item left escrow on rejected cancel")
	}
}

func TestSaleAndAuctionShareOrderSpace(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)

	// The escrowed item cannot be listed again in either engine.
	err := env.engine.ListItemOnAuction(env.addr1, id, big.NewInt(100))
	if !errors.Is(err, market.ErrAlreadyListed) {
		t.Fatalf("ListItemOnAuction error = %v, want ErrAlreadyListed", err)
	}
	err = env.engine.ListItem(env.addr1, id, big.NewInt(100))
	if !errors.Is(err, market.ErrAlreadyListed) {
		t.Fatalf("ListItem error = %v, want ErrAlreadyListed", err)
	}

	// Sale operations do not touch auction records and vice versa.
	err = env.engine.MakeBid(env.addr2, id, big.NewInt(200))
	if !errors.Is(err, market.ErrAuctionNotActive) {
		t.Fatalf("MakeBid on sale error = %v, want ErrAuctionNotActive", err)
	}
}

func TestListItemOnAuction(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	order, ok, err := env.engine.GetOrder(id)
	if err != nil || !ok {
		t.Fatalf("GetOrder = %v, %v", ok, err)
	}
	if order.Kind != market.KindAuction || !order.Active {
		t.Fatalf("unexpected order record: %+v", order)
	}
	wantEnd := uint64(startTime + 3*24*60*60)
	if order.EndTime != wantEnd {
		t.Fatalf("end time = %d, want %d", order.EndTime, wantEnd)
	}
	if order.BidCount != 0 || order.HasBidder {
		t.Fatalf("fresh auction reports bids")
	}
	if owner := env.itemOwner(id); owner != market.ModuleAddress {
		t.Fatalf("auctioned item not in escrow")
	}
}

func TestMakeBidEscrowsFunds(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 200)

	if err := env.engine.MakeBid(env.addr2, id, big.NewInt(200)); err != nil {
		t.Fatalf("MakeBid error: %v", err)
	}
	if got := env.balance(env.addr2); got != 9_800 {
		t.Fatalf("bidder balance = %d, want 9800", got)
	}
	if got := env.balance(market.ModuleAddress); got != 200 {
		t.Fatalf("escrow balance = %d, want 200", got)
	}
	order, _, err := env.engine.GetOrder(id)
	if err != nil {
		t.Fatalf("GetOrder error: %v", err)
	}
	if order.Price.Int64() != 200 || !order.HasBidder || order.HighBidder != env.addr2 || order.BidCount != 1 {
		t.Fatalf("unexpected order after bid: %+v", order)
	}
	env.assertConservation()
}

func TestMakeBidRejectsInactiveAuction(t *testing.T) {
	env := newTestEnv(t)
	id := env.createItem(env.addr1)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 200)

	err := env.engine.MakeBid(env.addr2, id, big.NewInt(200))
	if !errors.Is(err, market.ErrAuctionNotActive) {
		t.Fatalf("MakeBid error = %v, want ErrAuctionNotActive", err)
	}
	if got := env.balance(env.addr2); got != 10_000 {
		t.Fatalf("rejected bid moved funds: %d", got)
	}
}

func TestMakeBidRejectsExpiredAuction(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 200)
	env.advance(4 * 24 * time.Hour)

	err := env.engine.MakeBid(env.addr2, id, big.NewInt(200))
	if !errors.Is(err, market.ErrAuctionEnded) {
		t.Fatalf("MakeBid error = %v, want ErrAuctionEnded", err)
	}
	if got := env.balance(env.addr2); got != 10_000 {
		t.Fatalf("rejected bid moved funds: %d", got)
	}
}

func TestMakeBidRejectsLowAndTiedBids(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 200)
	if err := env.engine.MakeBid(env.addr2, id, big.NewInt(200)); err != nil {
		t.Fatalf("MakeBid error: %v", err)
	}

	env.approveTokens(env.admin, 200)
	err := env.engine.MakeBid(env.admin, id, big.NewInt(150))
	if !errors.Is(err, market.ErrBidTooLow) {
		t.Fatalf("low bid error = %v, want ErrBidTooLow", err)
	}
	err = env.engine.MakeBid(env.admin, id, big.NewInt(200))
	if !errors.Is(err, market.ErrBidTooLow) {
		t.Fatalf("tied bid error = %v, want ErrBidTooLow", err)
	}
	if got := env.balance(market.ModuleAddress); got != 200 {
		t.Fatalf("escrow balance = %d, want 200", got)
	}
}

func TestOutbidRefundsPreviousBidder(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 200)
	if err := env.engine.MakeBid(env.addr2, id, big.NewInt(200)); err != nil {
		t.Fatalf("MakeBid error: %v", err)
	}

	adminBefore := env.balance(env.admin)
	env.approveTokens(env.admin, 250)
	if err := env.engine.MakeBid(env.admin, id, big.NewInt(250)); err != nil {
		t.Fatalf("second MakeBid error: %v", err)
	}
	if got := env.balance(env.addr2); got != 10_000 {
		t.Fatalf("outbid bidder balance = %d, want full refund to 10000", got)
	}
	if got := env.balance(env.admin); got != adminBefore-250 {
		t.Fatalf("new bidder balance = %d, want %d", got, adminBefore-250)
	}
	if got := env.balance(market.ModuleAddress); got != 250 {
		t.Fatalf("escrow balance = %d, want 250", got)
	}
	env.assertConservation()
}

func TestFinishAuctionWithMultipleBidders(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	adminStart := env.balance(env.admin)

	env.approveTokens(env.admin, 200)
	if err := env.engine.MakeBid(env.admin, id, big.NewInt(200)); err != nil {
		t.Fatalf("bid 200 error: %v", err)
	}
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 250)
	if err := env.engine.MakeBid(env.addr2, id, big.NewInt(250)); err != nil {
		t.Fatalf("bid 250 error: %v", err)
	}
	env.approveTokens(env.admin, 300)
	if err := env.engine.MakeBid(env.admin, id, big.NewInt(300)); err != nil {
		t.Fatalf("bid 300 error: %v", err)
	}

	env.advance(4 * 24 * time.Hour)
	if err := env.engine.FinishAuction(env.addr1, id); err != nil {
		t.Fatalf("FinishAuction error: %v", err)
	}

	if got := env.balance(env.addr1); got != 300 {
		t.Fatalf("seller balance = %d, want 300", got)
	}
	if got := env.balance(env.addr2); got != 10_000 {
		t.Fatalf("outbid bidder balance = %d, want 10000", got)
	}
	if got := env.balance(env.admin); got != adminStart-10_000-300 {
		t.Fatalf("winner balance = %d, want %d", got, adminStart-10_000-300)
	}
	if owner := env.itemOwner(id); owner != env.admin {
		t.Fatalf("winner did not receive the item")
	}
	if got := env.balance(market.ModuleAddress); got != 0 {
		t.Fatalf("escrow balance = %d, want 0", got)
	}
	if env.itemCount(market.ModuleAddress) != 0 {
		t.Fatalf("escrow still holds an item")
	}
	env.assertConservation()
}

func TestFinishAuctionRejectsInactive(t *testing.T) {
	env := newTestEnv(t)
	id := env.createItem(env.addr1)
	err := env.engine.FinishAuction(env.addr1, id)
	if !errors.Is(err, market.ErrAuctionNotActive) {
		t.Fatalf("FinishAuction error = %v, want ErrAuctionNotActive", err)
	}
}

func TestFinishAuctionRejectsBeforeExpiry(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	err := env.engine.FinishAuction(env.addr1, id)
	if !errors.Is(err, market.ErrAuctionNotExpired) {
		t.Fatalf("FinishAuction error = %v, want ErrAuctionNotExpired", err)
	}
	if owner := env.itemOwner(id); owner != market.ModuleAddress {
		t.Fatalf("item left escrow before expiry")
	}
}

func TestFinishAuctionRequiresTwoBids(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 200)
	if err := env.engine.MakeBid(env.addr2, id, big.NewInt(200)); err != nil {
		t.Fatalf("MakeBid error: %v", err)
	}
	env.advance(4 * 24 * time.Hour)

	err := env.engine.FinishAuction(env.addr1, id)
	if !errors.Is(err, market.ErrInsufficientBids) {
		t.Fatalf("FinishAuction error = %v, want ErrInsufficientBids", err)
	}
	// The lone bid stays escrowed until the seller cancels.
	if got := env.balance(env.addr2); got != 9_800 {
		t.Fatalf("lone bidder balance = %d, want 9800", got)
	}
	if got := env.balance(market.ModuleAddress); got != 200 {
		t.Fatalf("escrow balance = %d, want 200", got)
	}
	if owner := env.itemOwner(id); owner != market.ModuleAddress {
		t.Fatalf("item left escrow on rejected finish")
	}
	env.assertConservation()
}

func TestCancelAuctionAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.advance(4 * 24 * time.Hour)
	if err := env.engine.CancelAuction(env.addr1, id); err != nil {
		t.Fatalf("CancelAuction error: %v", err)
	}
	if env.itemCount(env.addr1) != 1 || env.itemCount(market.ModuleAddress) != 0 {
		t.Fatalf("cancelled auction did not return the item")
	}

	err := env.engine.CancelAuction(env.addr1, id)
	if !errors.Is(err, market.ErrAuctionNotActive) {
		t.Fatalf("second CancelAuction error = %v, want ErrAuctionNotActive", err)
	}
}

func TestCancelAuctionRefundsLoneBidder(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 200)
	if err := env.engine.MakeBid(env.addr2, id, big.NewInt(200)); err != nil {
		t.Fatalf("MakeBid error: %v", err)
	}
	env.advance(4 * 24 * time.Hour)

	if err := env.engine.CancelAuction(env.addr1, id); err != nil {
		t.Fatalf("CancelAuction error: %v", err)
	}
	if got := env.balance(env.addr2); got != 10_000 {
		t.Fatalf("lone bidder balance = %d, want full refund to 10000", got)
	}
	if got := env.balance(market.ModuleAddress); got != 0 {
		t.Fatalf("escrow balance = %d, want 0", got)
	}
	if env.itemCount(env.addr1) != 1 {
		t.Fatalf("seller did not get the item back")
	}
	env.assertConservation()
}

func TestCancelAuctionRejectsBeforeExpiry(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	err := env.engine.CancelAuction(env.addr1, id)
	if !errors.Is(err, market.ErrAuctionNotExpired) {
		t.Fatalf("CancelAuction error = %v, want ErrAuctionNotExpired", err)
	}
	if owner := env.itemOwner(id); owner != market.ModuleAddress {
		t.Fatalf("item left escrow on rejected cancel")
	}
}

func TestCancelAuctionRejectsNonSeller(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.advance(4 * 24 * time.Hour)
	err := env.engine.CancelAuction(env.addr2, id)
	if !errors.Is(err, market.ErrNotSeller) {
		t.Fatalf("CancelAuction error = %v, want ErrNotSeller", err)
	}
}

func TestBidPricesAreStrictlyIncreasing(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.fund(env.addr2, 10_000)

	last := int64(100)
	for _, amount := range []int64{150, 151, 400, 999} {
		env.approveTokens(env.addr2, amount)
		if err := env.engine.MakeBid(env.addr2, id, big.NewInt(amount)); err != nil {
			t.Fatalf("MakeBid(%d) error: %v", amount, err)
		}
		order, _, err := env.engine.GetOrder(id)
		if err != nil {
			t.Fatalf("GetOrder error: %v", err)
		}
		if order.Price.Int64() <= last {
			t.Fatalf("price %d did not increase past %d", order.Price.Int64(), last)
		}
		last = order.Price.Int64()
	}
	order, _, err := env.engine.GetOrder(id)
	if err != nil {
		t.Fatalf("GetOrder error: %v", err)
	}
	if order.BidCount != 4 {
		t.Fatalf("bid count = %d, want 4", order.BidCount)
	}
}

func TestRelistAfterSettlement(t *testing.T) {
	env := newTestEnv(t)
	id := env.listedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 100)
	if err := env.engine.BuyItem(env.addr2, id); err != nil {
		t.Fatalf("BuyItem error: %v", err)
	}

	// The new owner can run a fresh cycle on the same id, this time as an
	// auction.
	env.approveItem(env.addr2, id)
	if err := env.engine.ListItemOnAuction(env.addr2, id, big.NewInt(500)); err != nil {
		t.Fatalf("relist error: %v", err)
	}
	order, ok, err := env.engine.GetOrder(id)
	if err != nil || !ok {
		t.Fatalf("GetOrder = %v, %v", ok, err)
	}
	if !order.Active || order.Kind != market.KindAuction || order.Seller != env.addr2 {
		t.Fatalf("unexpected relisted order: %+v", order)
	}
}

func TestMarketEventsAreEmitted(t *testing.T) {
	env := newTestEnv(t)
	id := env.auctionedItem(100)
	env.fund(env.addr2, 10_000)
	env.approveTokens(env.addr2, 200)
	if err := env.engine.MakeBid(env.addr2, id, big.NewInt(200)); err != nil {
		t.Fatalf("MakeBid error: %v", err)
	}

	if len(env.recorder.Typed(market.EventTypeAuctionListed)) != 1 {
		t.Fatalf("expected one auction_listed event")
	}
	bids := env.recorder.Typed(market.EventTypeBid)
	if len(bids) != 1 {
		t.Fatalf("expected one bid event, got %d", len(bids))
	}
	payload := events.Payload(bids[0])
	if payload == nil || payload.Attributes["price"] != "200" {
		t.Fatalf("bid event payload mismatch: %+v", payload)
	}
}
