package token

import (
	"encoding/hex"
	"math/big"

	"byobmarket/core/types"
)

const (
	EventTypeTransfer = "token.transfer"
	EventTypeApproval = "token.approval"
)

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// NewTransferEvent returns the canonical event payload for a balance movement.
// Mints report the zero address as source, burns as destination.
func NewTransferEvent(from, to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"from":   hexAddr(from),
			"to":     hexAddr(to),
			"amount": amount.String(),
		},
	}
}

// NewApprovalEvent returns the canonical event payload emitted when an
// allowance is set or adjusted.
func NewApprovalEvent(owner, spender [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeApproval,
		Attributes: map[string]string{
			"owner":   hexAddr(owner),
			"spender": hexAddr(spender),
			"amount":  amount.String(),
		},
	}
}
