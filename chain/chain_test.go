package chain_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/holiman/uint256"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/journal"
	"github.com/tokenlab-xyz/go-tokenlab/mytoken"
	"github.com/tokenlab-xyz/go-tokenlab/ownable"
	"github.com/tokenlab-xyz/go-tokenlab/token"
)

var (
	deployer = chain.HexToAddress("0xd00000000000000000000000000000000000000d")
	alice    = chain.HexToAddress("0xa00000000000000000000000000000000000000a")
	bob      = chain.HexToAddress("0xb00000000000000000000000000000000000000b")
)

var (
	errInitRefused = errors.New("counter: init refused")
	errSpoiled     = errors.New("counter: spoiled")
)

// counter is a minimal contract for exercising the chain: inc commits,
// spoil mutates state and then fails, so a correct chain must undo it.
type counter struct {
	value    int
	failInit bool
}

func (c *counter) Init(ctx *chain.CallCtx) error {
	if c.failInit {
		return errInitRefused
	}
	ctx.Emit(chain.Log{Event: "Born"})
	return nil
}

func (c *counter) Call(ctx *chain.CallCtx, method string, args ...any) (any, error) {
	switch method {
	case "inc":
		c.value++
		ctx.Emit(chain.Log{Event: "Inc", Data: map[string]string{"value": strconv.Itoa(c.value)}})
		return c.value, nil
	case "spoil":
		c.value += 100
		return nil, errSpoiled
	}
	return nil, chain.ErrUnknownMethod
}

func (c *counter) View(method string, args ...any) (any, error) {
	if method == "value" {
		return c.value, nil
	}
	return nil, chain.ErrUnknownMethod
}

func (c *counter) Snapshot() chain.Memento { return c.value }
func (c *counter) Restore(m chain.Memento) { c.value = m.(int) }

func newTestChain(t *testing.T) *chain.Chain {
	t.Helper()
	c := chain.New()
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return c
}

func TestDeploy(t *testing.T) {
	c := newTestChain(t)
	ctx := context.Background()

	addr1, rcpt1, err := c.Deploy(ctx, deployer, &counter{})
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	if addr1.IsZero() {
		t.Fatal("deploy assigned the zero address")
	}
	if !rcpt1.Ok() || rcpt1.Method != "deploy" || rcpt1.Contract != addr1 {
		t.Errorf("unexpected deploy receipt: %+v", rcpt1)
	}
	if len(rcpt1.Logs) != 1 || rcpt1.Logs[0].Event != "Born" {
		t.Errorf("constructor logs not in deploy receipt: %+v", rcpt1.Logs)
	}
	if rcpt1.Logs[0].Address != addr1 {
		t.Errorf("constructor log address: got %s, want %s", rcpt1.Logs[0].Address, addr1)
	}

	// Same deployer again: nonce advances, address differs.
	addr2, rcpt2, err := c.Deploy(ctx, deployer, &counter{})
	if err != nil {
		t.Fatal(err)
	}
	if addr1 == addr2 {
		t.Error("two deploys from one deployer share an address")
	}
	if rcpt1.Nonce != 0 || rcpt2.Nonce != 1 {
		t.Errorf("nonces: got %d, %d", rcpt1.Nonce, rcpt2.Nonce)
	}
	if rcpt2.Block <= rcpt1.Block {
		t.Errorf("blocks not increasing: %d then %d", rcpt1.Block, rcpt2.Block)
	}

	addrs, err := c.Contracts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 2 {
		t.Errorf("registered contracts: got %d, want 2", len(addrs))
	}
}

func TestDeployInitFailure(t *testing.T) {
	c := newTestChain(t)
	ctx := context.Background()

	addr, rcpt, err := c.Deploy(ctx, deployer, &counter{failInit: true})
	if !errors.Is(err, errInitRefused) {
		t.Fatalf("got %v, want init error", err)
	}
	if !addr.IsZero() {
		t.Errorf("failed deploy returned address %s", addr)
	}
	if rcpt.Ok() || rcpt.Err == "" {
		t.Errorf("unexpected receipt: %+v", rcpt)
	}

	addrs, err := c.Contracts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 0 {
		t.Errorf("failed deploy registered a contract")
	}

	if _, _, err := c.Deploy(ctx, deployer, nil); !errors.Is(err, chain.ErrNilContract) {
		t.Errorf("nil contract: got %v, want ErrNilContract", err)
	}
}

func TestCallRevertRestoresState(t *testing.T) {
	c := newTestChain(t)
	ctx := context.Background()

	addr, _, err := c.Deploy(ctx, deployer, &counter{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Call(ctx, alice, addr, "inc"); err != nil {
		t.Fatal(err)
	}

	before, err := c.Journal().StreamVersion(ctx, addr.Hex())
	if err != nil {
		t.Fatal(err)
	}

	rcpt, err := c.Call(ctx, alice, addr, "spoil")
	if !errors.Is(err, errSpoiled) {
		t.Fatalf("got %v, want spoil error", err)
	}
	if rcpt.Ok() {
		t.Error("reverted call has success status")
	}
	if rcpt.Err != errSpoiled.Error() {
		t.Errorf("revert reason: got %q", rcpt.Err)
	}
	if len(rcpt.Logs) != 0 {
		t.Errorf("reverted call carries %d logs", len(rcpt.Logs))
	}

	// State restored to the committed value.
	v, err := c.View(ctx, addr, "value")
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 1 {
		t.Errorf("value after revert: got %d, want 1", v.(int))
	}

	// Nothing journaled for the reverted call.
	after, err := c.Journal().StreamVersion(ctx, addr.Hex())
	if err != nil {
		t.Fatal(err)
	}
	if after != before {
		t.Errorf("reverted call journaled: version %d -> %d", before, after)
	}
}

func TestUnknownTargets(t *testing.T) {
	c := newTestChain(t)
	ctx := context.Background()

	nowhere := chain.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")
	if rcpt, err := c.Call(ctx, alice, nowhere, "inc"); !errors.Is(err, chain.ErrUnknownContract) {
		t.Errorf("call: got %v, want ErrUnknownContract", err)
	} else if rcpt.Ok() {
		t.Error("call to unknown contract succeeded")
	}
	if _, err := c.View(ctx, nowhere, "value"); !errors.Is(err, chain.ErrUnknownContract) {
		t.Errorf("view: got %v, want ErrUnknownContract", err)
	}

	addr, _, err := c.Deploy(ctx, deployer, &counter{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Call(ctx, alice, addr, "explode"); !errors.Is(err, chain.ErrUnknownMethod) {
		t.Errorf("unknown method: got %v, want ErrUnknownMethod", err)
	}
	if v, err := c.View(ctx, addr, "value"); err != nil || v.(int) != 0 {
		t.Errorf("state moved on unknown method: %v, %v", v, err)
	}
}

func TestCallsAreSerialized(t *testing.T) {
	c := newTestChain(t)
	ctx := context.Background()

	addr, _, err := c.Deploy(ctx, deployer, &counter{})
	if err != nil {
		t.Fatal(err)
	}

	const workers, perWorker = 8, 50

	var (
		mu     sync.Mutex
		blocks = make(map[uint64]bool)
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			caller := chain.BytesToAddress([]byte{byte(id + 1)})
			for i := 0; i < perWorker; i++ {
				rcpt, err := c.Call(ctx, caller, addr, "inc")
				if err != nil {
					t.Errorf("inc failed: %v", err)
					return
				}
				mu.Lock()
				if blocks[rcpt.Block] {
					t.Errorf("block %d assigned twice", rcpt.Block)
				}
				blocks[rcpt.Block] = true
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	v, err := c.View(ctx, addr, "value")
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != workers*perWorker {
		t.Errorf("lost increments: got %d, want %d", v.(int), workers*perWorker)
	}
}

func TestPerCallerNonces(t *testing.T) {
	c := newTestChain(t)
	ctx := context.Background()

	addr, _, err := c.Deploy(ctx, deployer, &counter{})
	if err != nil {
		t.Fatal(err)
	}

	r1, _ := c.Call(ctx, alice, addr, "inc")
	r2, _ := c.Call(ctx, alice, addr, "inc")
	r3, _ := c.Call(ctx, bob, addr, "inc")

	if r1.Nonce != 0 || r2.Nonce != 1 {
		t.Errorf("alice nonces: %d, %d", r1.Nonce, r2.Nonce)
	}
	if r3.Nonce != 0 {
		t.Errorf("bob nonce: %d", r3.Nonce)
	}
	if r1.TxHash == r2.TxHash {
		t.Error("two calls share a tx hash")
	}

	// A reverted call still consumes the caller's nonce.
	if _, err := c.Call(ctx, alice, addr, "spoil"); err == nil {
		t.Fatal("spoil succeeded")
	}
	r4, _ := c.Call(ctx, alice, addr, "inc")
	if r4.Nonce != 3 {
		t.Errorf("nonce after revert: got %d, want 3", r4.Nonce)
	}
}

func TestJournalContents(t *testing.T) {
	c := newTestChain(t)
	ctx := context.Background()

	addr, _, err := c.Deploy(ctx, deployer, &counter{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Call(ctx, alice, addr, "inc"); err != nil {
		t.Fatal(err)
	}

	events, err := c.Journal().Read(ctx, addr.Hex(), 0)
	if err != nil {
		t.Fatal(err)
	}
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	want := []string{"receipt.deploy", "log.Born", "receipt.inc", "log.Inc"}
	if len(types) != len(want) {
		t.Fatalf("journal types: got %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("journal type %d: got %s, want %s", i, types[i], want[i])
		}
	}

	// Receipts round-trip through the journal.
	var rcpt chain.Receipt
	if err := events[2].Decode(&rcpt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if rcpt.Method != "inc" || !rcpt.Ok() || rcpt.Caller != alice {
		t.Errorf("decoded receipt: %+v", rcpt)
	}

	// Log filtering by type.
	incs, err := c.Journal().ReadAll(ctx, journal.EventFilter{Types: []string{"log.Inc"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(incs) != 1 {
		t.Errorf("filtered incs: got %d, want 1", len(incs))
	}
}

func TestSubscribeReceipts(t *testing.T) {
	c := newTestChain(t)
	ctx := context.Background()

	ch := make(chan *chain.Receipt, 16)
	cancel := c.SubscribeReceipts(ch)

	addr, _, err := c.Deploy(ctx, deployer, &counter{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Call(ctx, alice, addr, "spoil"); err == nil {
		t.Fatal("spoil succeeded")
	}

	first := <-ch
	if first.Method != "deploy" || !first.Ok() {
		t.Errorf("first receipt: %+v", first)
	}
	second := <-ch
	if second.Method != "spoil" || second.Ok() {
		t.Errorf("second receipt: %+v", second)
	}

	cancel()
	if _, err := c.Call(ctx, alice, addr, "inc"); err != nil {
		t.Fatal(err)
	}
	select {
	case r := <-ch:
		t.Errorf("received after cancel: %+v", r)
	default:
	}
}

func TestClose(t *testing.T) {
	c := chain.New()

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	ctx := context.Background()
	if _, _, err := c.Deploy(ctx, deployer, &counter{}); !errors.Is(err, chain.ErrClosed) {
		t.Errorf("deploy after close: got %v, want ErrClosed", err)
	}
	if _, err := c.Call(ctx, alice, deployer, "inc"); !errors.Is(err, chain.ErrClosed) {
		t.Errorf("call after close: got %v, want ErrClosed", err)
	}
	if _, err := c.View(ctx, deployer, "value"); !errors.Is(err, chain.ErrClosed) {
		t.Errorf("view after close: got %v, want ErrClosed", err)
	}
}

func TestTokenOnChain(t *testing.T) {
	c := newTestChain(t)
	ctx := context.Background()

	addr, rcpt, err := c.Deploy(ctx, deployer, mytoken.New("My Token", "MTK", uint256.NewInt(1000)))
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}

	// Constructor notifications land in the deploy receipt, ownership
	// first, then the initial issue to the deployer.
	if len(rcpt.Logs) != 2 {
		t.Fatalf("deploy logs: got %d, want 2", len(rcpt.Logs))
	}
	if rcpt.Logs[0].Event != ownable.EventOwnershipTransferred || rcpt.Logs[1].Event != token.EventTransfer {
		t.Errorf("deploy log order: %s, %s", rcpt.Logs[0].Event, rcpt.Logs[1].Event)
	}

	owner, err := c.View(ctx, addr, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if owner.(chain.Address) != deployer {
		t.Errorf("owner: got %s, want %s", owner.(chain.Address), deployer)
	}

	if _, err := c.Call(ctx, deployer, addr, "transfer", alice, uint256.NewInt(250)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	// Non-owner mint reverts on-chain and changes nothing.
	if _, err := c.Call(ctx, alice, addr, "mint", alice, uint256.NewInt(1)); !errors.Is(err, ownable.ErrNotOwner) {
		t.Fatalf("non-owner mint: got %v, want ErrNotOwner", err)
	}
	bal, err := c.View(ctx, addr, "balanceOf", alice)
	if err != nil {
		t.Fatal(err)
	}
	if !bal.(*uint256.Int).Eq(uint256.NewInt(250)) {
		t.Errorf("alice balance: got %s, want 250", bal.(*uint256.Int).Dec())
	}
	supply, err := c.View(ctx, addr, "totalSupply")
	if err != nil {
		t.Fatal(err)
	}
	if !supply.(*uint256.Int).Eq(uint256.NewInt(1000)) {
		t.Errorf("supply: got %s, want 1000", supply.(*uint256.Int).Dec())
	}

	// The journal holds the full story, reverted mint excluded.
	events, err := c.Journal().Read(ctx, addr.Hex(), 0)
	if err != nil {
		t.Fatal(err)
	}
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	want := []string{
		"receipt.deploy", "log.OwnershipTransferred", "log.Transfer",
		"receipt.transfer", "log.Transfer",
	}
	if len(types) != len(want) {
		t.Fatalf("journal types: got %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("journal type %d: got %s, want %s", i, types[i], want[i])
		}
	}
}
