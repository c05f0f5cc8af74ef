// Package mytoken is the workshop's tutorial contract: a fungible token
// whose entire first-party surface is its constructor and an
// owner-guarded Mint. Everything else, balances, transfers, allowances
// and the owner check itself, comes from the token and ownable base
// packages the contract composes at construction time, the same way the
// Solidity original inherits from its audited library.
package mytoken

import (
	"github.com/holiman/uint256"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/ownable"
	"github.com/tokenlab-xyz/go-tokenlab/token"
)

// Token is the tutorial contract. It implements chain.Contract; the
// chain serializes all access, so the per-call emit sink needs no lock.
type Token struct {
	name          string
	symbol        string
	initialSupply *uint256.Int

	ledger *token.Ledger
	owner  *ownable.Ownable

	sink *chain.CallCtx
}

// New holds the constructor arguments. Construction proper happens in
// Init when the chain deploys the contract, so the constructor's
// notifications land in the deploy receipt.
func New(name, symbol string, initialSupply *uint256.Int) *Token {
	supply := uint256.NewInt(0)
	if initialSupply != nil {
		supply = new(uint256.Int).Set(initialSupply)
	}
	return &Token{name: name, symbol: symbol, initialSupply: supply}
}

// Init is the constructor body: forward name and symbol to the token
// base, record the deployer as owner, and issue the initial supply to
// the deployer. Base construction order matches the Solidity original,
// so OwnershipTransferred precedes the initial-supply Transfer.
func (t *Token) Init(ctx *chain.CallCtx) error {
	t.sink = ctx
	defer func() { t.sink = nil }()

	owner, err := ownable.New(ctx.Caller, ownable.WithEmitter(t.route))
	if err != nil {
		return err
	}
	t.owner = owner
	t.ledger = token.New(t.name, t.symbol, token.WithEmitter(t.route))
	return t.ledger.Mint(ctx.Caller, t.initialSupply)
}

// Mint issues quantity to the recipient. Only the owner may call it;
// anyone else gets ownable.ErrNotOwner and no state changes. This is
// the contract's one guarded method.
func (t *Token) Mint(ctx *chain.CallCtx, recipient chain.Address, quantity *uint256.Int) error {
	if err := t.owner.Guard(ctx.Caller); err != nil {
		return err
	}
	return t.ledger.Mint(recipient, quantity)
}

// Owner returns the current owner.
func (t *Token) Owner() chain.Address { return t.owner.Owner() }

// Snapshot captures both bases for the chain's revert path.
func (t *Token) Snapshot() chain.Memento {
	return memento{ledger: t.ledger.Snapshot(), owner: t.owner.Snapshot()}
}

// Restore resets both bases to a snapshot taken by Snapshot.
func (t *Token) Restore(m chain.Memento) {
	s := m.(memento)
	t.ledger.Restore(s.ledger)
	t.owner.Restore(s.owner)
}

type memento struct {
	ledger *token.State
	owner  chain.Address
}

// route forwards base-library logs to the transaction in flight.
func (t *Token) route(l chain.Log) {
	if t.sink != nil {
		t.sink.Emit(l)
	}
}
