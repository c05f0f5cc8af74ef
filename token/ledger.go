// Package token implements a fungible-token ledger with the standard
// ERC-20 semantics: balances, total supply, allowances, and Transfer
// and Approval notifications. It is the balance-and-supply base that
// tutorial contracts compose with an owner-check module; authorization
// is deliberately not its business.
package token

import (
	"github.com/holiman/uint256"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
)

// DefaultDecimals matches the common token display convention.
const DefaultDecimals = uint8(18)

// Ledger holds the token state. Amounts use 256-bit unsigned
// arithmetic; missing accounts read as zero. The ledger is not
// goroutine safe: the execution environment serializes access.
type Ledger struct {
	name       string
	symbol     string
	decimals   uint8
	supply     *uint256.Int
	balances   map[chain.Address]*uint256.Int
	allowances map[chain.Address]map[chain.Address]*uint256.Int
	emit       Emitter
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithDecimals overrides the default of 18.
func WithDecimals(d uint8) Option {
	return func(l *Ledger) { l.decimals = d }
}

// WithEmitter sets the log sink. Without one, logs are dropped.
func WithEmitter(emit Emitter) Option {
	return func(l *Ledger) { l.emit = emit }
}

// New creates an empty ledger registered under the given display name
// and symbol.
func New(name, symbol string, opts ...Option) *Ledger {
	l := &Ledger{
		name:       name,
		symbol:     symbol,
		decimals:   DefaultDecimals,
		supply:     uint256.NewInt(0),
		balances:   make(map[chain.Address]*uint256.Int),
		allowances: make(map[chain.Address]map[chain.Address]*uint256.Int),
		emit:       func(chain.Log) {},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the display name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the ticker symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// Decimals returns the display precision.
func (l *Ledger) Decimals() uint8 { return l.decimals }

// TotalSupply returns the issued supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(l.supply)
}

// BalanceOf returns the account's balance, zero for unknown accounts.
func (l *Ledger) BalanceOf(account chain.Address) *uint256.Int {
	if b, ok := l.balances[account]; ok {
		return new(uint256.Int).Set(b)
	}
	return uint256.NewInt(0)
}

// Allowance returns how much spender may move out of owner's balance.
func (l *Ledger) Allowance(owner, spender chain.Address) *uint256.Int {
	if inner, ok := l.allowances[owner]; ok {
		if a, ok := inner[spender]; ok {
			return new(uint256.Int).Set(a)
		}
	}
	return uint256.NewInt(0)
}

// Transfer moves amount from the caller to the recipient and emits a
// Transfer notification. Fails with no change when the recipient is the
// zero address or the caller's balance is short.
func (l *Ledger) Transfer(caller, to chain.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrAmountRequired
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	if l.BalanceOf(caller).Lt(amount) {
		return ErrInsufficientBalance
	}
	l.move(caller, to, amount)
	l.emit(transferLog(caller, to, amount))
	return nil
}

// Approve sets spender's allowance over the caller's balance,
// overwriting any previous value, and emits an Approval notification.
func (l *Ledger) Approve(caller, spender chain.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrAmountRequired
	}
	if spender.IsZero() {
		return ErrZeroAddress
	}
	inner, ok := l.allowances[caller]
	if !ok {
		inner = make(map[chain.Address]*uint256.Int)
		l.allowances[caller] = inner
	}
	inner[spender] = new(uint256.Int).Set(amount)
	l.emit(approvalLog(caller, spender, amount))
	return nil
}

// TransferFrom moves amount from one account to another on the
// strength of an allowance granted to the caller. An allowance of the
// maximum 256-bit value is treated as infinite and never decremented.
func (l *Ledger) TransferFrom(caller, from, to chain.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrAmountRequired
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	allowance := l.Allowance(from, caller)
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if l.BalanceOf(from).Lt(amount) {
		return ErrInsufficientBalance
	}
	if !isInfinite(allowance) {
		l.setAllowance(from, caller, allowance.Sub(allowance, amount))
	}
	l.move(from, to, amount)
	l.emit(transferLog(from, to, amount))
	return nil
}

// Mint issues amount to the recipient, growing the total supply, and
// emits a Transfer from the zero address. Callers gate access; the
// ledger only enforces the recipient and overflow checks.
func (l *Ledger) Mint(to chain.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrAmountRequired
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	sum, overflow := new(uint256.Int).AddOverflow(l.supply, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	l.supply = sum
	l.credit(to, amount)
	l.emit(transferLog(chain.ZeroAddress, to, amount))
	return nil
}

// Burn destroys amount from the account's balance, shrinking the total
// supply, and emits a Transfer to the zero address.
func (l *Ledger) Burn(from chain.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrAmountRequired
	}
	if l.BalanceOf(from).Lt(amount) {
		return ErrInsufficientBalance
	}
	l.debit(from, amount)
	l.supply = new(uint256.Int).Sub(l.supply, amount)
	l.emit(transferLog(from, chain.ZeroAddress, amount))
	return nil
}

// Snapshot returns a deep copy of the ledger state.
func (l *Ledger) Snapshot() *State {
	s := &State{
		Name:       l.name,
		Symbol:     l.symbol,
		Decimals:   l.decimals,
		Supply:     new(uint256.Int).Set(l.supply),
		Balances:   make(map[chain.Address]*uint256.Int, len(l.balances)),
		Allowances: make(map[chain.Address]map[chain.Address]*uint256.Int, len(l.allowances)),
	}
	for addr, b := range l.balances {
		s.Balances[addr] = new(uint256.Int).Set(b)
	}
	for owner, inner := range l.allowances {
		dst := make(map[chain.Address]*uint256.Int, len(inner))
		for spender, a := range inner {
			dst[spender] = new(uint256.Int).Set(a)
		}
		s.Allowances[owner] = dst
	}
	return s
}

// Restore resets the ledger to a previously taken snapshot.
func (l *Ledger) Restore(s *State) {
	clone := s.Clone()
	l.name = clone.Name
	l.symbol = clone.Symbol
	l.decimals = clone.Decimals
	l.supply = clone.Supply
	l.balances = clone.Balances
	l.allowances = clone.Allowances
}

func (l *Ledger) move(from, to chain.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	l.debit(from, amount)
	l.credit(to, amount)
}

func (l *Ledger) credit(account chain.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	b, ok := l.balances[account]
	if !ok {
		b = uint256.NewInt(0)
		l.balances[account] = b
	}
	b.Add(b, amount)
}

func (l *Ledger) debit(account chain.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	b := l.balances[account]
	b.Sub(b, amount)
	if b.IsZero() {
		delete(l.balances, account)
	}
}

func (l *Ledger) setAllowance(owner, spender chain.Address, amount *uint256.Int) {
	inner := l.allowances[owner]
	if amount.IsZero() {
		delete(inner, spender)
		if len(inner) == 0 {
			delete(l.allowances, owner)
		}
		return
	}
	inner[spender] = amount
}

func isInfinite(amount *uint256.Int) bool {
	return amount.Eq(new(uint256.Int).SetAllOne())
}
