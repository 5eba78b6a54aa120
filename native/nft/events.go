package nft

import (
	"encoding/hex"
	"strconv"

	"byobmarket/core/types"
)

const (
	EventTypeTransfer = "nft.transfer"
	EventTypeApproval = "nft.approval"
	EventTypeMinted   = "nft.minted"
)

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// NewTransferEvent returns the canonical event payload for a custody change.
func NewTransferEvent(from, to [20]byte, id uint64) *types.Event {
	return &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"from":   hexAddr(from),
			"to":     hexAddr(to),
			"itemId": strconv.FormatUint(id, 10),
		},
	}
}

// NewApprovalEvent returns the canonical event payload emitted when a per-item
// approval is granted or cleared.
func NewApprovalEvent(owner, spender [20]byte, id uint64) *types.Event {
	return &types.Event{
		Type: EventTypeApproval,
		Attributes: map[string]string{
			"owner":   hexAddr(owner),
			"spender": hexAddr(spender),
			"itemId":  strconv.FormatUint(id, 10),
		},
	}
}

// NewMintedEvent returns the canonical event payload emitted when a fresh item
// enters circulation.
func NewMintedEvent(to [20]byte, id uint64, uri string) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"to":     hexAddr(to),
			"itemId": strconv.FormatUint(id, 10),
			"uri":    uri,
		},
	}
}
