package token

import (
	"errors"
	"fmt"
	"math/big"

	"byobmarket/core/events"
	"byobmarket/core/types"
)

// Token metadata fixed at issuance.
const (
	Name     = "Bring Your Own Binaries"
	Symbol   = "BYOB"
	Decimals = 18
)

var (
	// ErrInsufficientFunds is returned when a transfer exceeds the sender's
	// balance.
	ErrInsufficientFunds = errors.New("token: not enough tokens")
	// ErrInsufficientAllowance is returned when a delegated transfer exceeds
	// the spender's remaining allowance.
	ErrInsufficientAllowance = errors.New("token: not enough allowance")
	// ErrNotAdmin is returned when a supply operation is attempted by an
	// account other than the designated administrator.
	ErrNotAdmin = errors.New("token: caller is not the token administrator")

	errNilState = errors.New("token ledger: state not configured")
)

// ZeroAddress is the mint source and burn sink reported in transfer events.
var ZeroAddress [20]byte

type ledgerState interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	TokenAllowance(owner, spender [20]byte) (*big.Int, error)
	SetTokenAllowance(owner, spender [20]byte, amount *big.Int) error
	TokenSupply() (*big.Int, error)
	SetTokenSupply(supply *big.Int) error
}

type tokenEvent struct {
	evt *types.Event
}

func (e tokenEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e tokenEvent) Event() *types.Event { return e.evt }

// Ledger maintains payment token balances and per-owner allowances. Supply
// expansion and contraction are restricted to a single designated
// administrator account set via SetAdmin.
type Ledger struct {
	state   ledgerState
	emitter events.Emitter
	admin   [20]byte
}

// NewLedger creates a token ledger with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewLedger() *Ledger {
	return &Ledger{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// SetAdmin designates the account allowed to mint and burn supply.
func (l *Ledger) SetAdmin(addr [20]byte) { l.admin = addr }

// Admin returns the designated supply administrator.
func (l *Ledger) Admin() [20]byte { return l.admin }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(tokenEvent{evt: evt})
}

func checkAmount(amount *big.Int) (*big.Int, error) {
	if amount == nil {
		return nil, fmt.Errorf("token: amount required")
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("token: negative amount")
	}
	return new(big.Int).Set(amount), nil
}

// BalanceOf returns the token balance of addr.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	account, err := l.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(account.Balance), nil
}

// TotalSupply returns the current total token supply.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenSupply()
}

// Allowance returns the amount spender may still draw from owner.
func (l *Ledger) Allowance(owner, spender [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenAllowance(owner, spender)
}

// move debits from and credits to. The balance check happens before any
// mutation so a rejected transfer leaves both accounts untouched.
func (l *Ledger) move(from, to [20]byte, amount *big.Int) error {
	fromAcc, err := l.state.GetAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance == nil || fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	if err := l.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	toAcc, err := l.state.GetAccount(to)
	if err != nil {
		return err
	}
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	return l.state.PutAccount(to, toAcc)
}

// Transfer moves amount from the caller to the recipient.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if err := l.move(from, to, amt); err != nil {
		return err
	}
	l.emit(NewTransferEvent(from, to, amt))
	return nil
}

// TransferFrom moves amount from the owner to the recipient on behalf of
// spender, consuming the spender's allowance. The balance is checked before
// the allowance so each rejection surfaces its own reason.
func (l *Ledger) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	balance, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	allowance, err := l.state.TokenAllowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amt) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amt); err != nil {
		return err
	}
	if err := l.state.SetTokenAllowance(from, spender, new(big.Int).Sub(allowance, amt)); err != nil {
		return err
	}
	l.emit(NewTransferEvent(from, to, amt))
	return nil
}

// Approve sets spender's allowance against owner to the exact amount.
func (l *Ledger) Approve(owner, spender [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenAllowance(owner, spender, amt); err != nil {
		return err
	}
	l.emit(NewApprovalEvent(owner, spender, amt))
	return nil
}

// IncreaseAllowance raises spender's allowance against owner by delta.
func (l *Ledger) IncreaseAllowance(owner, spender [20]byte, delta *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	amt, err := checkAmount(delta)
	if err != nil {
		return err
	}
	current, err := l.state.TokenAllowance(owner, spender)
	if err != nil {
		return err
	}
	updated := new(big.Int).Add(current, amt)
	if err := l.state.SetTokenAllowance(owner, spender, updated); err != nil {
		return err
	}
	l.emit(NewApprovalEvent(owner, spender, updated))
	return nil
}

// DecreaseAllowance lowers spender's allowance against owner by delta. The
// allowance cannot drop below zero.
func (l *Ledger) DecreaseAllowance(owner, spender [20]byte, delta *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	amt, err := checkAmount(delta)
	if err != nil {
		return err
	}
	current, err := l.state.TokenAllowance(owner, spender)
	if err != nil {
		return err
	}
	if current.Cmp(amt) < 0 {
		return ErrInsufficientAllowance
	}
	updated := new(big.Int).Sub(current, amt)
	if err := l.state.SetTokenAllowance(owner, spender, updated); err != nil {
		return err
	}
	l.emit(NewApprovalEvent(owner, spender, updated))
	return nil
}

// Mint credits amount to the administrator and expands the total supply. Only
// the administrator may mint.
func (l *Ledger) Mint(caller [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if caller != l.admin || l.admin == ZeroAddress {
		return ErrNotAdmin
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	account, err := l.state.GetAccount(caller)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amt)
	if err := l.state.PutAccount(caller, account); err != nil {
		return err
	}
	supply, err := l.state.TokenSupply()
	if err != nil {
		return err
	}
	if err := l.state.SetTokenSupply(new(big.Int).Add(supply, amt)); err != nil {
		return err
	}
	l.emit(NewTransferEvent(ZeroAddress, caller, amt))
	return nil
}

// Burn debits amount from the administrator and contracts the total supply.
// Only the administrator may burn.
func (l *Ledger) Burn(caller [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if caller != l.admin || l.admin == ZeroAddress {
		return ErrNotAdmin
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	account, err := l.state.GetAccount(caller)
	if err != nil {
		return err
	}
	if account.Balance == nil || account.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	account.Balance = new(big.Int).Sub(account.Balance, amt)
	if err := l.state.PutAccount(caller, account); err != nil {
		return err
	}
	supply, err := l.state.TokenSupply()
	if err != nil {
		return err
	}
	if supply.Cmp(amt) < 0 {
		return fmt.Errorf("token: supply underflow")
	}
	if err := l.state.SetTokenSupply(new(big.Int).Sub(supply, amt)); err != nil {
		return err
	}
	l.emit(NewTransferEvent(caller, ZeroAddress, amt))
	return nil
}
