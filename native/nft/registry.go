package nft

import (
	"errors"
	"fmt"

	"byobmarket/core/events"
	"byobmarket/core/types"
)

// Collection metadata fixed at deployment.
const (
	Name   = "BaseNFT"
	Symbol = "BASE"
)

var (
	// ErrUnknownItem is returned when the item id has never been minted.
	ErrUnknownItem = errors.New("nft: unknown item")
	// ErrNotOwnerOrApproved is returned when the caller holds neither
	// ownership of nor approval for the item.
	ErrNotOwnerOrApproved = errors.New("nft: caller is not owner or approved")
	// ErrNotRegistryOwner is returned when minting is attempted by an account
	// other than the registry owner.
	ErrNotRegistryOwner = errors.New("nft: caller is not the registry owner")
	// ErrWrongFrom is returned when the stated source of a transfer does not
	// own the item.
	ErrWrongFrom = errors.New("nft: from account does not own item")

	errNilState = errors.New("nft registry: state not configured")
)

type registryState interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	NFTOwner(id uint64) ([20]byte, bool, error)
	SetNFTOwner(id uint64, owner [20]byte) error
	NFTApproved(id uint64) ([20]byte, error)
	SetNFTApproved(id uint64, spender [20]byte) error
	NFTTokenURI(id uint64) (string, error)
	SetNFTTokenURI(id uint64, uri string) error
	NextNFTID() (uint64, error)
}

type nftEvent struct {
	evt *types.Event
}

func (e nftEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e nftEvent) Event() *types.Event { return e.evt }

// Registry maintains unique-id ownership and per-id transfer approval for the
// asset collection. Ids are minted once, sequentially from 1, and never
// destroyed. Minting is gated on the registry owner, which the marketplace
// takes over at wiring time.
type Registry struct {
	state   registryState
	emitter events.Emitter
	owner   [20]byte
}

// NewRegistry creates an asset registry with a no-op emitter.
func NewRegistry() *Registry {
	return &Registry{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// TransferOwnership hands minting authority to addr.
func (r *Registry) TransferOwnership(addr [20]byte) { r.owner = addr }

// Owner returns the account holding minting authority.
func (r *Registry) Owner() [20]byte { return r.owner }

func (r *Registry) emit(evt *types.Event) {
	if r == nil || r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(nftEvent{evt: evt})
}

// OwnerOf returns the current owner of the item id.
func (r *Registry) OwnerOf(id uint64) ([20]byte, error) {
	if r == nil || r.state == nil {
		return [20]byte{}, errNilState
	}
	owner, ok, err := r.state.NFTOwner(id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, fmt.Errorf("%w: %d", ErrUnknownItem, id)
	}
	return owner, nil
}

// BalanceOf returns the number of items currently owned by addr.
func (r *Registry) BalanceOf(addr [20]byte) (uint64, error) {
	if r == nil || r.state == nil {
		return 0, errNilState
	}
	account, err := r.state.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	return account.Collectibles, nil
}

// TokenURI returns the metadata URI recorded when the item was minted.
func (r *Registry) TokenURI(id uint64) (string, error) {
	if r == nil || r.state == nil {
		return "", errNilState
	}
	if _, err := r.OwnerOf(id); err != nil {
		return "", err
	}
	return r.state.NFTTokenURI(id)
}

// GetApproved returns the account approved to move the item, or the zero
// address when no approval is set.
func (r *Registry) GetApproved(id uint64) ([20]byte, error) {
	if r == nil || r.state == nil {
		return [20]byte{}, errNilState
	}
	if _, err := r.OwnerOf(id); err != nil {
		return [20]byte{}, err
	}
	return r.state.NFTApproved(id)
}

// Approve grants spender the right to transfer the item. Only the current
// owner may approve.
func (r *Registry) Approve(caller [20]byte, id uint64, spender [20]byte) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	owner, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != caller {
		return ErrNotOwnerOrApproved
	}
	if err := r.state.SetNFTApproved(id, spender); err != nil {
		return err
	}
	r.emit(NewApprovalEvent(owner, spender, id))
	return nil
}

func (r *Registry) adjustCollectibles(addr [20]byte, delta int64) error {
	account, err := r.state.GetAccount(addr)
	if err != nil {
		return err
	}
	if delta < 0 && account.Collectibles == 0 {
		return fmt.Errorf("nft: collectible count underflow")
	}
	account.Collectibles = uint64(int64(account.Collectibles) + delta)
	return r.state.PutAccount(addr, account)
}

// TransferFrom moves the item from its current owner to the recipient. The
// caller must be the owner or the approved account; any approval is cleared
// on transfer.
func (r *Registry) TransferFrom(caller, from, to [20]byte, id uint64) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	owner, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != from {
		return ErrWrongFrom
	}
	if caller != owner {
		approved, err := r.state.NFTApproved(id)
		if err != nil {
			return err
		}
		if approved == ([20]byte{}) || approved != caller {
			return ErrNotOwnerOrApproved
		}
	}
	if err := r.state.SetNFTOwner(id, to); err != nil {
		return err
	}
	if err := r.state.SetNFTApproved(id, [20]byte{}); err != nil {
		return err
	}
	if err := r.adjustCollectibles(from, -1); err != nil {
		return err
	}
	if err := r.adjustCollectibles(to, 1); err != nil {
		return err
	}
	r.emit(NewTransferEvent(from, to, id))
	return nil
}

// MintTo creates a fresh item owned by the recipient and returns its id. Only
// the registry owner may mint.
func (r *Registry) MintTo(caller, to [20]byte, uri string) (uint64, error) {
	if r == nil || r.state == nil {
		return 0, errNilState
	}
	if r.owner == ([20]byte{}) || caller != r.owner {
		return 0, ErrNotRegistryOwner
	}
	id, err := r.state.NextNFTID()
	if err != nil {
		return 0, err
	}
	if err := r.state.SetNFTOwner(id, to); err != nil {
		return 0, err
	}
	if err := r.state.SetNFTTokenURI(id, uri); err != nil {
		return 0, err
	}
	if err := r.adjustCollectibles(to, 1); err != nil {
		return 0, err
	}
	r.emit(NewMintedEvent(to, id, uri))
	return id, nil
}
