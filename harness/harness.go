// Package harness wires a ready-to-use workshop setup for tests and
// scripted scenarios: a running sandbox chain, a deployed tutorial
// token, and named identity handles backed by the deterministic dev
// accounts, so assertions can talk about "owner" and "alice" instead
// of raw addresses.
package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/holiman/uint256"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/journal"
	"github.com/tokenlab-xyz/go-tokenlab/keys"
	"github.com/tokenlab-xyz/go-tokenlab/mytoken"
)

// Identity is a named account: a dev key plus its derived address.
type Identity struct {
	Name string
	Key  *keys.Key
	Addr chain.Address
}

func (i *Identity) String() string { return i.Name }

// Fixture is a deployed workshop environment.
type Fixture struct {
	Chain *chain.Chain
	Token chain.Address

	// DeployReceipt is the tutorial token's deployment receipt,
	// carrying the constructor's notifications.
	DeployReceipt *chain.Receipt

	Owner *Identity
	Alice *Identity
	Bob   *Identity

	byName map[string]*Identity
	byAddr map[chain.Address]string
}

type config struct {
	name    string
	symbol  string
	supply  *uint256.Int
	journal journal.Store
}

// Option configures the fixture's deployment.
type Option func(*config)

// WithToken overrides the deployed token's name, symbol and supply.
func WithToken(name, symbol string, supply *uint256.Int) Option {
	return func(c *config) {
		c.name, c.symbol, c.supply = name, symbol, supply
	}
}

// WithJournal sets the chain's journal store.
func WithJournal(store journal.Store) Option {
	return func(c *config) { c.journal = store }
}

// New starts a chain, deploys the tutorial token from the owner
// account, and tears everything down when the test finishes.
func New(t *testing.T, opts ...Option) *Fixture {
	t.Helper()
	f, err := Start(opts...)
	if err != nil {
		t.Fatalf("harness: %v", err)
	}
	t.Cleanup(func() {
		if err := f.Close(); err != nil {
			t.Errorf("harness close: %v", err)
		}
	})
	return f
}

// Start builds the fixture without a testing.T, for scenario runs and
// the CLI demo. Callers must Close it.
func Start(opts ...Option) (*Fixture, error) {
	cfg := config{name: "My Token", symbol: "MTK", supply: uint256.NewInt(1000)}
	for _, opt := range opts {
		opt(&cfg)
	}

	accounts := keys.DevAccounts(3)
	f := &Fixture{
		Owner:  &Identity{Name: "owner", Key: accounts[0], Addr: accounts[0].Address()},
		Alice:  &Identity{Name: "alice", Key: accounts[1], Addr: accounts[1].Address()},
		Bob:    &Identity{Name: "bob", Key: accounts[2], Addr: accounts[2].Address()},
		byName: make(map[string]*Identity),
		byAddr: make(map[chain.Address]string),
	}
	for _, id := range []*Identity{f.Owner, f.Alice, f.Bob} {
		f.byName[id.Name] = id
		f.byAddr[id.Addr] = id.Name
	}

	chainOpts := []chain.Option{}
	if cfg.journal != nil {
		chainOpts = append(chainOpts, chain.WithJournal(cfg.journal))
	}
	f.Chain = chain.New(chainOpts...)

	addr, rcpt, err := f.Chain.Deploy(context.Background(), f.Owner.Addr,
		mytoken.New(cfg.name, cfg.symbol, cfg.supply))
	if err != nil {
		f.Chain.Close()
		return nil, fmt.Errorf("harness: deploy: %w", err)
	}
	f.Token = addr
	f.DeployReceipt = rcpt
	f.byAddr[addr] = "token"
	return f, nil
}

// Close shuts the chain down.
func (f *Fixture) Close() error { return f.Chain.Close() }

// Identity looks an identity up by name: owner, alice or bob.
func (f *Fixture) Identity(name string) (*Identity, bool) {
	id, ok := f.byName[name]
	return id, ok
}

// NameOf maps an address back to its identity name. Unknown addresses
// render as short hex. The zero address renders as "zero".
func (f *Fixture) NameOf(addr chain.Address) string {
	if addr.IsZero() {
		return "zero"
	}
	if name, ok := f.byAddr[addr]; ok {
		return name
	}
	hex := addr.Hex()
	return hex[:10] + ".."
}

// Session scopes calls to one identity, the way a wallet scopes
// transactions to one signer.
type Session struct {
	f  *Fixture
	id *Identity
}

// As returns a call-dispatch handle acting as the given identity.
func (f *Fixture) As(id *Identity) *Session {
	return &Session{f: f, id: id}
}

// Call submits a state-changing call to the token as this identity.
func (s *Session) Call(method string, args ...any) (*chain.Receipt, error) {
	return s.f.Chain.Call(context.Background(), s.id.Addr, s.f.Token, method, args...)
}

// View runs a read-only method against the token.
func (f *Fixture) View(method string, args ...any) (any, error) {
	return f.Chain.View(context.Background(), f.Token, method, args...)
}

// BalanceOf reads an identity's token balance.
func (f *Fixture) BalanceOf(id *Identity) (*uint256.Int, error) {
	v, err := f.View("balanceOf", id.Addr)
	if err != nil {
		return nil, err
	}
	return v.(*uint256.Int), nil
}

// TotalSupply reads the token's issued supply.
func (f *Fixture) TotalSupply() (*uint256.Int, error) {
	v, err := f.View("totalSupply")
	if err != nil {
		return nil, err
	}
	return v.(*uint256.Int), nil
}
