package market

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"byobmarket/core/events"
	"byobmarket/core/types"
	"byobmarket/native/nft"
	"byobmarket/native/token"
)

const (
	// DefaultAuctionDuration is how long a freshly listed auction accepts
	// bids before expiry can be enforced.
	DefaultAuctionDuration = 3 * 24 * time.Hour
	// MinFinishBids is the number of accepted bids an auction needs before
	// finishAuction may clear it. A lone bidder cannot force settlement and
	// must wait for the seller to cancel after expiry.
	MinFinishBids = 2
)

var (
	errNilState    = errors.New("market engine: state not configured")
	errNilLedger   = errors.New("market engine: payment ledger not configured")
	errNilRegistry = errors.New("market engine: nft registry not configured")
)

// ModuleAddress is the account under which the marketplace escrows assets and
// bid funds. Derived deterministically so every deployment agrees on it.
var ModuleAddress = func() [20]byte {
	var addr [20]byte
	hash := ethcrypto.Keccak256([]byte("byobmarket/market/escrow"))
	copy(addr[:], hash[12:])
	return addr
}()

type engineState interface {
	OrderPut(*Order) error
	OrderGet(id uint64) (*Order, bool, error)
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

// Engine mediates fixed-price sales and English auctions between untrusted
// parties. It holds the listed item and the current high bid in escrow under
// ModuleAddress and releases both only through a settlement or cancellation
// transition. All value moves go through the payment ledger and the asset
// registry; the engine never touches their internals.
//
// Requests must be applied serially. The engine orders each request so that
// the only effect that can fail on caller funds happens before any state is
// mutated, making every request all-or-nothing.
type Engine struct {
	state           engineState
	ledger          *token.Ledger
	registry        *nft.Registry
	emitter         events.Emitter
	nowFn           func() int64
	auctionDuration time.Duration
}

// NewEngine creates a marketplace engine bound to the supplied ledger and
// registry, with a no-op emitter and the default auction duration.
func NewEngine(ledger *token.Ledger, registry *nft.Registry) *Engine {
	return &Engine{
		ledger:          ledger,
		registry:        registry,
		emitter:         events.NoopEmitter{},
		nowFn:           func() int64 { return time.Now().Unix() },
		auctionDuration: DefaultAuctionDuration,
	}
}

// SetState configures the order storage backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for auction deadlines. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetAuctionDuration overrides the bidding window applied to new auctions.
// Non-positive values restore the default.
func (e *Engine) SetAuctionDuration(d time.Duration) {
	if d <= 0 {
		e.auctionDuration = DefaultAuctionDuration
		return
	}
	e.auctionDuration = d
}

// PaymentToken returns the ledger settling payments for this marketplace.
func (e *Engine) PaymentToken() *token.Ledger { return e.ledger }

// NFTToken returns the registry holding the assets traded on this marketplace.
func (e *Engine) NFTToken() *nft.Registry { return e.registry }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(marketEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	switch {
	case e == nil || e.state == nil:
		return errNilState
	case e.ledger == nil:
		return errNilLedger
	case e.registry == nil:
		return errNilRegistry
	}
	return nil
}

// GetOrder returns the most recent order record for the item id, active or
// not, and whether one exists.
func (e *Engine) GetOrder(itemID uint64) (*Order, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	order, ok, err := e.state.OrderGet(itemID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return order.Clone(), true, nil
}

// CreateItem mints a fresh asset with the given metadata URI directly to the
// requested owner and returns its id.
func (e *Engine) CreateItem(uri string, owner [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	id, err := e.registry.MintTo(ModuleAddress, owner, uri)
	if err != nil {
		return 0, err
	}
	e.emit(NewItemCreatedEvent(id, owner, uri))
	return id, nil
}

// escrowItem verifies the caller owns the item and has approved the
// marketplace, then takes custody. Shared by both listing paths.
func (e *Engine) escrowItem(caller [20]byte, itemID uint64) error {
	order, ok, err := e.state.OrderGet(itemID)
	if err != nil {
		return err
	}
	if ok && order.Active {
		return ErrAlreadyListed
	}
	owner, err := e.registry.OwnerOf(itemID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotOwnerOrNotApproved, err)
	}
	if owner != caller {
		return ErrNotOwnerOrNotApproved
	}
	approved, err := e.registry.GetApproved(itemID)
	if err != nil {
		return err
	}
	if approved != ModuleAddress {
		return ErrNotOwnerOrNotApproved
	}
	return e.registry.TransferFrom(ModuleAddress, caller, ModuleAddress, itemID)
}

// ListItem escrows the item and creates an active fixed-price sale order.
func (e *Engine) ListItem(caller [20]byte, itemID uint64, price *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if price == nil || price.Sign() <= 0 {
		return fmt.Errorf("market: price must be positive")
	}
	if err := e.escrowItem(caller, itemID); err != nil {
		return err
	}
	order := &Order{
		ItemID:    itemID,
		Seller:    caller,
		Price:     new(big.Int).Set(price),
		Kind:      KindSale,
		Active:    true,
		CreatedAt: uint64(e.now()),
	}
	if err := e.state.OrderPut(order); err != nil {
		return err
	}
	e.emit(NewListedEvent(order))
	return nil
}

// BuyItem settles an active sale: price moves buyer to seller, the item moves
// escrow to buyer, and the order deactivates. The payment is the only effect
// that can fail, and it is applied first, so the three effects commit together
// or not at all.
func (e *Engine) BuyItem(caller [20]byte, itemID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	order, err := e.activeOrder(itemID, KindSale)
	if err != nil {
		return err
	}
	if caller == order.Seller {
		return ErrSelfTrade
	}
	if err := e.ledger.TransferFrom(ModuleAddress, caller, order.Seller, order.Price); err != nil {
		return err
	}
	if err := e.registry.TransferFrom(ModuleAddress, ModuleAddress, caller, itemID); err != nil {
		return err
	}
	order.Active = false
	if err := e.state.OrderPut(order); err != nil {
		return err
	}
	e.emit(NewSoldEvent(order, caller))
	return nil
}

// Cancel unwinds an active sale: the item returns to the seller and the order
// deactivates. Only the seller may cancel.
func (e *Engine) Cancel(caller [20]byte, itemID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	order, err := e.activeOrder(itemID, KindSale)
	if err != nil {
		return err
	}
	if caller != order.Seller {
		return ErrNotSeller
	}
	if err := e.registry.TransferFrom(ModuleAddress, ModuleAddress, order.Seller, itemID); err != nil {
		return err
	}
	order.Active = false
	if err := e.state.OrderPut(order); err != nil {
		return err
	}
	e.emit(NewCancelledEvent(order))
	return nil
}

// ListItemOnAuction escrows the item and opens an active auction order with
// the given minimum price. Bids are accepted until the configured duration
// elapses; expiry is enforced lazily on the next matching request.
func (e *Engine) ListItemOnAuction(caller [20]byte, itemID uint64, minPrice *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if minPrice == nil || minPrice.Sign() <= 0 {
		return fmt.Errorf("market: minimum price must be positive")
	}
	if err := e.escrowItem(caller, itemID); err != nil {
		return err
	}
	now := e.now()
	order := &Order{
		ItemID:    itemID,
		Seller:    caller,
		Price:     new(big.Int).Set(minPrice),
		Kind:      KindAuction,
		Active:    true,
		CreatedAt: uint64(now),
		EndTime:   uint64(now + int64(e.auctionDuration/time.Second)),
	}
	if err := e.state.OrderPut(order); err != nil {
		return err
	}
	e.emit(NewAuctionListedEvent(order))
	return nil
}

// MakeBid ratchets the auction price. The new bid is collected into escrow
// first (the only failable effect); the outbid account is then refunded in
// full from escrow, which by the escrow invariant holds exactly the prior
// bid.
func (e *Engine) MakeBid(caller [20]byte, itemID uint64, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	order, err := e.activeOrder(itemID, KindAuction)
	if err != nil {
		return err
	}
	if e.now() >= int64(order.EndTime) {
		return ErrAuctionEnded
	}
	if amount == nil || amount.Cmp(order.Price) <= 0 {
		return ErrBidTooLow
	}
	if err := e.ledger.TransferFrom(ModuleAddress, caller, ModuleAddress, amount); err != nil {
		return err
	}
	if order.HasBidder {
		if err := e.ledger.Transfer(ModuleAddress, order.HighBidder, order.Price); err != nil {
			return fmt.Errorf("market: refund previous bidder: %w", err)
		}
	}
	outbid := order.HighBidder
	order.Price = new(big.Int).Set(amount)
	order.HighBidder = caller
	order.HasBidder = true
	order.BidCount++
	if err := e.state.OrderPut(order); err != nil {
		return err
	}
	e.emit(NewBidEvent(order, outbid))
	return nil
}

// FinishAuction settles an expired auction that attracted at least
// MinFinishBids bids: the escrowed high bid pays the seller and the item goes
// to the high bidder. Anyone may trigger settlement once the deadline passed.
func (e *Engine) FinishAuction(caller [20]byte, itemID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	order, err := e.activeOrder(itemID, KindAuction)
	if err != nil {
		return err
	}
	if e.now() < int64(order.EndTime) {
		return ErrAuctionNotExpired
	}
	if order.BidCount < MinFinishBids {
		return ErrInsufficientBids
	}
	if err := e.ledger.Transfer(ModuleAddress, order.Seller, order.Price); err != nil {
		return fmt.Errorf("market: pay out seller: %w", err)
	}
	if err := e.registry.TransferFrom(ModuleAddress, ModuleAddress, order.HighBidder, itemID); err != nil {
		return err
	}
	order.Active = false
	if err := e.state.OrderPut(order); err != nil {
		return err
	}
	e.emit(NewAuctionFinishedEvent(order))
	return nil
}

// CancelAuction unwinds an expired auction: the item returns to the seller and
// any standing high bid is refunded in full. This is the only exit for
// auctions that expired below the bid threshold. Only the seller may cancel,
// and only after expiry.
func (e *Engine) CancelAuction(caller [20]byte, itemID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	order, err := e.activeOrder(itemID, KindAuction)
	if err != nil {
		return err
	}
	if e.now() < int64(order.EndTime) {
		return ErrAuctionNotExpired
	}
	if caller != order.Seller {
		return ErrNotSeller
	}
	if err := e.registry.TransferFrom(ModuleAddress, ModuleAddress, order.Seller, itemID); err != nil {
		return err
	}
	if order.HasBidder {
		if err := e.ledger.Transfer(ModuleAddress, order.HighBidder, order.Price); err != nil {
			return fmt.Errorf("market: refund high bidder: %w", err)
		}
	}
	order.Active = false
	if err := e.state.OrderPut(order); err != nil {
		return err
	}
	e.emit(NewAuctionCancelledEvent(order))
	return nil
}

// activeOrder loads the order for itemID and checks it is active and of the
// expected kind. Inactive, missing, and wrong-kind orders all surface the
// kind-specific not-active reason.
func (e *Engine) activeOrder(itemID uint64, kind OrderKind) (*Order, error) {
	order, ok, err := e.state.OrderGet(itemID)
	if err != nil {
		return nil, err
	}
	notActive := ErrOfferNotActive
	if kind == KindAuction {
		notActive = ErrAuctionNotActive
	}
	if !ok || !order.Active || order.Kind != kind {
		return nil, notActive
	}
	return order, nil
}
