package rpc

import (
	"errors"
	"net/http"

	"byobmarket/native/market"
	"byobmarket/native/nft"
	"byobmarket/native/token"
)

const (
	codePrecondition = -32021
	codeState        = -32022
	codeValue        = -32023
	codeResource     = -32024
	codeNotFound     = -32025
)

// classifyError maps engine errors onto a small violation taxonomy so RPC
// clients can branch on a stable code.
func classifyError(err error) (code int, status int, reason string) {
	switch {
	case errors.Is(err, market.ErrNotOwnerOrNotApproved),
		errors.Is(err, market.ErrNotSeller),
		errors.Is(err, market.ErrSelfTrade),
		errors.Is(err, nft.ErrNotOwnerOrApproved),
		errors.Is(err, nft.ErrNotRegistryOwner),
		errors.Is(err, nft.ErrWrongFrom),
		errors.Is(err, token.ErrNotAdmin):
		return codePrecondition, http.StatusForbidden, "precondition_violation"
	case errors.Is(err, market.ErrOfferNotActive),
		errors.Is(err, market.ErrAuctionNotActive),
		errors.Is(err, market.ErrAuctionEnded),
		errors.Is(err, market.ErrAuctionNotExpired),
		errors.Is(err, market.ErrAlreadyListed):
		return codeState, http.StatusConflict, "state_violation"
	case errors.Is(err, market.ErrBidTooLow),
		errors.Is(err, market.ErrInsufficientBids):
		return codeValue, http.StatusConflict, "value_violation"
	case errors.Is(err, token.ErrInsufficientFunds),
		errors.Is(err, token.ErrInsufficientAllowance):
		return codeResource, http.StatusConflict, "resource_violation"
	case errors.Is(err, nft.ErrUnknownItem):
		return codeNotFound, http.StatusNotFound, "not_found"
	default:
		return codeInvalidParams, http.StatusBadRequest, "invalid_params"
	}
}
