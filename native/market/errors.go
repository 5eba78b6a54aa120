package market

import "errors"

// Every rejected request surfaces one of these stable reasons so callers can
// assert on cause. A rejection aborts the whole request with no partial
// effects.
var (
	// ErrNotOwnerOrNotApproved rejects a listing when the caller does not own
	// the item or has not approved the marketplace to take custody.
	ErrNotOwnerOrNotApproved = errors.New("market: not item owner or marketplace not approved")
	// ErrOfferNotActive rejects sale operations on ids without an active sale.
	ErrOfferNotActive = errors.New("market: offer is not active")
	// ErrSelfTrade rejects a buyout by the listing's own seller.
	ErrSelfTrade = errors.New("market: cannot buy from yourself")
	// ErrNotSeller rejects a cancellation by anyone but the seller.
	ErrNotSeller = errors.New("market: not seller")
	// ErrAuctionNotActive rejects auction operations on ids without an active
	// auction.
	ErrAuctionNotActive = errors.New("market: auction is not active")
	// ErrAuctionEnded rejects bids placed after the auction deadline.
	ErrAuctionEnded = errors.New("market: auction has ended")
	// ErrAuctionNotExpired rejects settlement or cancellation before the
	// auction deadline.
	ErrAuctionNotExpired = errors.New("market: auction has not expired yet")
	// ErrBidTooLow rejects bids that do not strictly exceed the current high
	// bid (or minimum price while no bid stands). Ties are rejected.
	ErrBidTooLow = errors.New("market: bid must be higher than last bid")
	// ErrInsufficientBids rejects finishing an auction that attracted fewer
	// than the required number of competitive bids.
	ErrInsufficientBids = errors.New("market: not enough bids")
	// ErrAlreadyListed rejects a listing for an id that already has an active
	// order.
	ErrAlreadyListed = errors.New("market: item already has an active order")
)
