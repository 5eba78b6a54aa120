package market

import (
	"encoding/hex"
	"strconv"

	"byobmarket/core/types"
)

const (
	EventTypeItemCreated      = "market.item_created"
	EventTypeListed           = "market.listed"
	EventTypeSold             = "market.sold"
	EventTypeCancelled        = "market.cancelled"
	EventTypeAuctionListed    = "market.auction_listed"
	EventTypeBid              = "market.bid"
	EventTypeAuctionFinished  = "market.auction_finished"
	EventTypeAuctionCancelled = "market.auction_cancelled"
)

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func orderAttributes(o *Order) map[string]string {
	attrs := map[string]string{
		"itemId": strconv.FormatUint(o.ItemID, 10),
		"seller": hexAddr(o.Seller),
		"price":  o.Price.String(),
		"kind":   o.Kind.String(),
	}
	if o.Kind == KindAuction {
		attrs["endTime"] = strconv.FormatUint(o.EndTime, 10)
		attrs["bidCount"] = strconv.FormatUint(uint64(o.BidCount), 10)
		if o.HasBidder {
			attrs["highBidder"] = hexAddr(o.HighBidder)
		}
	}
	return attrs
}

func newOrderEvent(eventType string, o *Order) *types.Event {
	return &types.Event{Type: eventType, Attributes: orderAttributes(o)}
}

// NewItemCreatedEvent returns the payload emitted when the factory mints a
// fresh item.
func NewItemCreatedEvent(id uint64, owner [20]byte, uri string) *types.Event {
	return &types.Event{
		Type: EventTypeItemCreated,
		Attributes: map[string]string{
			"itemId": strconv.FormatUint(id, 10),
			"owner":  hexAddr(owner),
			"uri":    uri,
		},
	}
}

// NewListedEvent returns the payload emitted when a sale order opens.
func NewListedEvent(o *Order) *types.Event { return newOrderEvent(EventTypeListed, o) }

// NewSoldEvent returns the payload emitted when a sale settles.
func NewSoldEvent(o *Order, buyer [20]byte) *types.Event {
	evt := newOrderEvent(EventTypeSold, o)
	evt.Attributes["buyer"] = hexAddr(buyer)
	return evt
}

// NewCancelledEvent returns the payload emitted when a seller withdraws a
// sale listing.
func NewCancelledEvent(o *Order) *types.Event { return newOrderEvent(EventTypeCancelled, o) }

// NewAuctionListedEvent returns the payload emitted when an auction opens.
func NewAuctionListedEvent(o *Order) *types.Event { return newOrderEvent(EventTypeAuctionListed, o) }

// NewBidEvent returns the payload emitted when a bid is accepted. The outbid
// attribute names the refunded previous high bidder, if any.
func NewBidEvent(o *Order, outbid [20]byte) *types.Event {
	evt := newOrderEvent(EventTypeBid, o)
	if outbid != ([20]byte{}) {
		evt.Attributes["outbid"] = hexAddr(outbid)
	}
	return evt
}

// NewAuctionFinishedEvent returns the payload emitted when an expired auction
// settles to the high bidder.
func NewAuctionFinishedEvent(o *Order) *types.Event {
	return newOrderEvent(EventTypeAuctionFinished, o)
}

// NewAuctionCancelledEvent returns the payload emitted when an expired
// auction unwinds to the seller.
func NewAuctionCancelledEvent(o *Order) *types.Event {
	return newOrderEvent(EventTypeAuctionCancelled, o)
}
