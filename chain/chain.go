// Package chain provides a minimal sandboxed execution environment for
// tutorial contracts: deployment with derived addresses, strictly
// serialized state-changing calls, atomic commit-or-revert semantics,
// and a journal of receipts and logs.
package chain

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tokenlab-xyz/go-tokenlab/journal"
)

// Chain is the sandbox. A single goroutine owns all contract state and
// processes submitted work one request at a time, so every call runs to
// completion before the next begins and no call ever observes another
// call's partial effects.
type Chain struct {
	log   *slog.Logger
	store journal.Store

	reqs chan *request
	quit chan struct{}
	done chan struct{}

	closeOnce sync.Once
	closeErr  error

	// Owned by the run loop. Never touched from outside it.
	contracts map[Address]Contract
	nonces    map[Address]uint64
	block     uint64
	subs      map[int]chan<- *Receipt
	nextSub   int
}

type request struct {
	run  func()
	done chan struct{}
}

// Option configures a Chain.
type Option func(*Chain)

// WithJournal sets the journal store receipts and logs are appended to.
// Defaults to an in-memory store.
func WithJournal(store journal.Store) Option {
	return func(c *Chain) { c.store = store }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Chain) { c.log = log }
}

// New starts a chain and returns it. Callers own the chain and must
// Close it when done.
func New(opts ...Option) *Chain {
	c := &Chain{
		log:       slog.Default(),
		reqs:      make(chan *request),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		contracts: make(map[Address]Contract),
		nonces:    make(map[Address]uint64),
		subs:      make(map[int]chan<- *Receipt),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = journal.NewMemoryStore()
	}
	go c.run()
	return c
}

func (c *Chain) run() {
	defer close(c.done)
	for {
		select {
		case req := <-c.reqs:
			req.run()
			close(req.done)
		case <-c.quit:
			return
		}
	}
}

// do submits fn to the run loop and waits for it to finish. Once a
// request is accepted it always runs to completion; ctx only bounds the
// wait for acceptance.
func (c *Chain) do(ctx context.Context, fn func()) error {
	req := &request{run: fn, done: make(chan struct{})}
	select {
	case c.reqs <- req:
		<-req.done
		return nil
	case <-c.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the chain and closes its journal store. Work submitted
// after Close returns ErrClosed.
func (c *Chain) Close() error {
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.done
		c.closeErr = c.store.Close()
	})
	return c.closeErr
}

// Deploy runs the contract's constructor and, on success, registers it
// under a freshly derived address. The returned receipt carries any
// logs the constructor emitted. A failed constructor leaves nothing
// registered.
func (c *Chain) Deploy(ctx context.Context, deployer Address, contract Contract) (Address, *Receipt, error) {
	if contract == nil {
		return ZeroAddress, nil, ErrNilContract
	}
	var (
		addr Address
		rcpt *Receipt
		err  error
	)
	if doErr := c.do(ctx, func() {
		addr, rcpt, err = c.deploy(ctx, deployer, contract)
	}); doErr != nil {
		return ZeroAddress, nil, doErr
	}
	return addr, rcpt, err
}

func (c *Chain) deploy(ctx context.Context, deployer Address, contract Contract) (Address, *Receipt, error) {
	nonce := c.nonces[deployer]
	c.nonces[deployer]++
	c.block++

	addr := CreateAddress(deployer, nonce)
	rcpt := &Receipt{
		TxHash:   c.txHash(addr, deployer, nonce, "deploy"),
		Contract: addr,
		Caller:   deployer,
		Method:   "deploy",
		Nonce:    nonce,
		Block:    c.block,
	}

	cctx := &CallCtx{Caller: deployer, Contract: addr, TxHash: rcpt.TxHash}
	if err := contract.Init(cctx); err != nil {
		rcpt.Status = StatusReverted
		rcpt.Err = err.Error()
		c.publish(rcpt)
		return ZeroAddress, rcpt, err
	}

	rcpt.Status = StatusSuccess
	rcpt.Logs = cctx.Logs()
	c.contracts[addr] = contract

	if err := c.journalReceipt(ctx, rcpt); err != nil {
		delete(c.contracts, addr)
		rcpt.Status = StatusReverted
		rcpt.Logs = nil
		rcpt.Err = err.Error()
		c.publish(rcpt)
		return ZeroAddress, rcpt, err
	}

	c.publish(rcpt)
	c.log.Debug("contract deployed",
		"address", addr.Hex(), "deployer", deployer.Hex(), "block", rcpt.Block)
	return addr, rcpt, nil
}

// Call executes a state-changing method on a deployed contract. The
// call either commits fully, with its receipt and logs journaled, or
// reverts fully, leaving contract state untouched and journaling
// nothing. Reverted calls return the receipt along with the causing
// error.
func (c *Chain) Call(ctx context.Context, caller, target Address, method string, args ...any) (*Receipt, error) {
	var (
		rcpt *Receipt
		err  error
	)
	if doErr := c.do(ctx, func() {
		rcpt, err = c.call(ctx, caller, target, method, args)
	}); doErr != nil {
		return nil, doErr
	}
	return rcpt, err
}

func (c *Chain) call(ctx context.Context, caller, target Address, method string, args []any) (*Receipt, error) {
	nonce := c.nonces[caller]
	c.nonces[caller]++
	c.block++

	rcpt := &Receipt{
		TxHash:   c.txHash(target, caller, nonce, method),
		Contract: target,
		Caller:   caller,
		Method:   method,
		Nonce:    nonce,
		Block:    c.block,
	}

	contract, ok := c.contracts[target]
	if !ok {
		rcpt.Status = StatusReverted
		rcpt.Err = ErrUnknownContract.Error()
		c.publish(rcpt)
		return rcpt, ErrUnknownContract
	}

	snap := contract.Snapshot()
	cctx := &CallCtx{Caller: caller, Contract: target, TxHash: rcpt.TxHash}

	if _, err := contract.Call(cctx, method, args...); err != nil {
		contract.Restore(snap)
		rcpt.Status = StatusReverted
		rcpt.Err = err.Error()
		c.publish(rcpt)
		c.log.Debug("call reverted",
			"contract", target.Hex(), "method", method, "caller", caller.Hex(), "err", err)
		return rcpt, err
	}

	rcpt.Status = StatusSuccess
	rcpt.Logs = cctx.Logs()

	if err := c.journalReceipt(ctx, rcpt); err != nil {
		contract.Restore(snap)
		rcpt.Status = StatusReverted
		rcpt.Logs = nil
		rcpt.Err = err.Error()
		c.publish(rcpt)
		c.log.Error("journal append failed, call rolled back",
			"contract", target.Hex(), "method", method, "err", err)
		return rcpt, err
	}

	c.publish(rcpt)
	return rcpt, nil
}

// View executes a read-only method on a deployed contract. Views go
// through the same serialized loop as calls, so they always observe a
// consistent committed state.
func (c *Chain) View(ctx context.Context, target Address, method string, args ...any) (any, error) {
	var (
		result any
		err    error
	)
	if doErr := c.do(ctx, func() {
		contract, ok := c.contracts[target]
		if !ok {
			err = ErrUnknownContract
			return
		}
		result, err = contract.View(method, args...)
	}); doErr != nil {
		return nil, doErr
	}
	return result, err
}

// SubscribeReceipts registers ch to receive every receipt the chain
// produces, including reverted ones. Sends never block the chain; a
// full channel drops receipts. The returned func cancels the
// subscription.
func (c *Chain) SubscribeReceipts(ch chan<- *Receipt) (cancel func()) {
	var id int
	_ = c.do(context.Background(), func() {
		id = c.nextSub
		c.nextSub++
		c.subs[id] = ch
	})
	return func() {
		_ = c.do(context.Background(), func() { delete(c.subs, id) })
	}
}

// Contracts returns the addresses of all deployed contracts.
func (c *Chain) Contracts(ctx context.Context) ([]Address, error) {
	var addrs []Address
	if err := c.do(ctx, func() {
		for addr := range c.contracts {
			addrs = append(addrs, addr)
		}
	}); err != nil {
		return nil, err
	}
	return addrs, nil
}

// Journal exposes the underlying journal store for read-side tooling.
func (c *Chain) Journal() journal.Store { return c.store }

func (c *Chain) publish(r *Receipt) {
	for id, ch := range c.subs {
		select {
		case ch <- r:
		default:
			c.log.Debug("receipt subscriber lagging, dropped", "sub", id, "block", r.Block)
		}
	}
}

func (c *Chain) journalReceipt(ctx context.Context, r *Receipt) error {
	stream := r.Contract.Hex()
	version, err := c.store.StreamVersion(ctx, stream)
	if err != nil {
		return fmt.Errorf("chain: stream version: %w", err)
	}

	events := make([]*journal.Event, 0, 1+len(r.Logs))
	ev, err := journal.NewEvent(stream, "receipt."+r.Method, r)
	if err != nil {
		return fmt.Errorf("chain: encode receipt: %w", err)
	}
	events = append(events, ev)
	for i := range r.Logs {
		lev, err := journal.NewEvent(stream, "log."+r.Logs[i].Event, &r.Logs[i])
		if err != nil {
			return fmt.Errorf("chain: encode log: %w", err)
		}
		events = append(events, lev)
	}

	if _, err := c.store.Append(ctx, stream, version, events); err != nil {
		return fmt.Errorf("chain: journal append: %w", err)
	}
	return nil
}

func (c *Chain) txHash(contract, caller Address, nonce uint64, method string) Hash {
	var nb, bb [8]byte
	binary.BigEndian.PutUint64(nb[:], nonce)
	binary.BigEndian.PutUint64(bb[:], c.block)
	return Keccak256Hash(contract.Bytes(), caller.Bytes(), nb[:], bb[:], []byte(method))
}
