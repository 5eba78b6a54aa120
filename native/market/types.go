package market

import (
	"fmt"
	"math/big"
)

// OrderKind distinguishes the two listing flavours sharing the order space.
type OrderKind uint8

const (
	KindSale OrderKind = iota
	KindAuction
)

// String returns the lowercase name of the kind.
func (k OrderKind) String() string {
	switch k {
	case KindSale:
		return "sale"
	case KindAuction:
		return "auction"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Valid reports whether the kind is within the supported range.
func (k OrderKind) Valid() bool {
	return k == KindSale || k == KindAuction
}

// Order is the marketplace's record of an active sale or auction for one item
// id. At most one order per id is active at a time; settled and cancelled
// orders stay addressable with Active=false until the id is listed again.
//
// For a sale, Price is the fixed buyout amount. For an auction, Price starts
// at the seller-declared minimum and ratchets up with each accepted bid.
type Order struct {
	ItemID     uint64
	Seller     [20]byte
	Price      *big.Int
	Kind       OrderKind
	Active     bool
	CreatedAt  uint64
	EndTime    uint64
	HighBidder [20]byte
	HasBidder  bool
	BidCount   uint32
}

// Clone returns a deep copy of the order so callers can safely mutate the copy
// without affecting the stored instance.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Price != nil {
		clone.Price = new(big.Int).Set(o.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// SanitizeOrder validates the supplied order and returns a cloned instance
// with a non-nil price. The original value is not mutated.
func SanitizeOrder(o *Order) (*Order, error) {
	if o == nil {
		return nil, fmt.Errorf("market: nil order")
	}
	if !o.Kind.Valid() {
		return nil, fmt.Errorf("market: invalid order kind %d", o.Kind)
	}
	clone := o.Clone()
	if clone.Price.Sign() < 0 {
		return nil, fmt.Errorf("market: negative order price")
	}
	if clone.Kind == KindSale && (clone.HasBidder || clone.BidCount != 0 || clone.EndTime != 0) {
		return nil, fmt.Errorf("market: sale order carries auction fields")
	}
	return clone, nil
}
