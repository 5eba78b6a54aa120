package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"byobmarket/core/types"
	"byobmarket/native/market"
	"byobmarket/storage"
)

const (
	accountPrefix   = "acct/"
	allowancePrefix = "token/allowance/"
	supplyKey       = "token/supply"
	nftOwnerPrefix  = "nft/owner/"
	nftApprPrefix   = "nft/approved/"
	nftURIPrefix    = "nft/uri/"
	nftNextIDKey    = "nft/nextid"
	orderPrefix     = "market/order/"
)

// Manager provides typed access to the node state persisted in a key-value
// database. Records are RLP encoded. It implements the narrow state
// interfaces consumed by the token ledger, the NFT registry and the
// marketplace engine.
type Manager struct {
	db storage.Database
}

// NewManager wraps the supplied database in a typed state manager.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func itemKey(prefix string, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

func addrKey(prefix string, addr [20]byte) []byte {
	key := make([]byte, len(prefix)+20)
	copy(key, prefix)
	copy(key[len(prefix):], addr[:])
	return key
}

// GetAccount loads the account stored under addr. Unknown addresses resolve to
// a zero-balance account so callers never observe a missing record.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, err := m.db.Get(addrKey(accountPrefix, addr))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &types.Account{Balance: big.NewInt(0)}, nil
		}
		return nil, err
	}
	account := new(types.Account)
	if err := rlp.DecodeBytes(raw, account); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	return account, nil
}

// PutAccount persists the account under addr.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	stored := account.Clone()
	raw, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(addrKey(accountPrefix, addr), raw)
}

func allowanceKey(owner, spender [20]byte) []byte {
	key := make([]byte, len(allowancePrefix)+40)
	copy(key, allowancePrefix)
	copy(key[len(allowancePrefix):], owner[:])
	copy(key[len(allowancePrefix)+20:], spender[:])
	return key
}

// TokenAllowance returns the amount spender may draw from owner. Missing
// entries resolve to zero.
func (m *Manager) TokenAllowance(owner, spender [20]byte) (*big.Int, error) {
	raw, err := m.db.Get(allowanceKey(owner, spender))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

// SetTokenAllowance stores spender's allowance against owner. A zero amount
// removes the entry.
func (m *Manager) SetTokenAllowance(owner, spender [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: allowance must be non-negative")
	}
	key := allowanceKey(owner, spender)
	if amount.Sign() == 0 {
		return m.db.Delete(key)
	}
	return m.db.Put(key, amount.Bytes())
}

// TokenSupply returns the current total supply of the payment token.
func (m *Manager) TokenSupply() (*big.Int, error) {
	raw, err := m.db.Get([]byte(supplyKey))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

// SetTokenSupply stores the total supply of the payment token.
func (m *Manager) SetTokenSupply(supply *big.Int) error {
	if supply == nil || supply.Sign() < 0 {
		return fmt.Errorf("state: supply must be non-negative")
	}
	return m.db.Put([]byte(supplyKey), supply.Bytes())
}

// NFTOwner returns the owner of the given item id and whether the id exists.
func (m *Manager) NFTOwner(id uint64) ([20]byte, bool, error) {
	var owner [20]byte
	raw, err := m.db.Get(itemKey(nftOwnerPrefix, id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return owner, false, nil
		}
		return owner, false, err
	}
	if len(raw) != len(owner) {
		return owner, false, fmt.Errorf("state: malformed nft owner record for item %d", id)
	}
	copy(owner[:], raw)
	return owner, true, nil
}

// SetNFTOwner records the owner of the given item id.
func (m *Manager) SetNFTOwner(id uint64, owner [20]byte) error {
	return m.db.Put(itemKey(nftOwnerPrefix, id), owner[:])
}

// NFTApproved returns the account approved to transfer the given item id. The
// zero address means no approval is set.
func (m *Manager) NFTApproved(id uint64) ([20]byte, error) {
	var spender [20]byte
	raw, err := m.db.Get(itemKey(nftApprPrefix, id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return spender, nil
		}
		return spender, err
	}
	if len(raw) != len(spender) {
		return spender, fmt.Errorf("state: malformed nft approval record for item %d", id)
	}
	copy(spender[:], raw)
	return spender, nil
}

// SetNFTApproved stores the per-item transfer approval. The zero address
// clears it.
func (m *Manager) SetNFTApproved(id uint64, spender [20]byte) error {
	key := itemKey(nftApprPrefix, id)
	if spender == ([20]byte{}) {
		return m.db.Delete(key)
	}
	return m.db.Put(key, spender[:])
}

// NFTTokenURI returns the metadata URI recorded for the item id.
func (m *Manager) NFTTokenURI(id uint64) (string, error) {
	raw, err := m.db.Get(itemKey(nftURIPrefix, id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(raw), nil
}

// SetNFTTokenURI stores the metadata URI for the item id.
func (m *Manager) SetNFTTokenURI(id uint64, uri string) error {
	return m.db.Put(itemKey(nftURIPrefix, id), []byte(uri))
}

// NextNFTID allocates and returns the next sequential item id, starting at 1.
func (m *Manager) NextNFTID() (uint64, error) {
	var next uint64 = 1
	raw, err := m.db.Get([]byte(nftNextIDKey))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}
	if err == nil {
		if len(raw) != 8 {
			return 0, fmt.Errorf("state: malformed nft id counter")
		}
		next = binary.BigEndian.Uint64(raw)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next+1)
	if err := m.db.Put([]byte(nftNextIDKey), buf); err != nil {
		return 0, err
	}
	return next, nil
}

// OrderPut persists the marketplace order keyed by its item id.
func (m *Manager) OrderPut(order *market.Order) error {
	stored, err := market.SanitizeOrder(order)
	if err != nil {
		return err
	}
	raw, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return fmt.Errorf("state: encode order: %w", err)
	}
	return m.db.Put(itemKey(orderPrefix, stored.ItemID), raw)
}

// OrderGet loads the marketplace order for the item id, if one was ever
// created. Settled and cancelled orders remain addressable with Active=false.
func (m *Manager) OrderGet(id uint64) (*market.Order, bool, error) {
	raw, err := m.db.Get(itemKey(orderPrefix, id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	order := new(market.Order)
	if err := rlp.DecodeBytes(raw, order); err != nil {
		return nil, false, fmt.Errorf("state: decode order: %w", err)
	}
	if order.Price == nil {
		order.Price = big.NewInt(0)
	}
	return order, true, nil
}
