package chain

// Memento is an opaque deep copy of a contract's state, taken before a
// call and restored if the call fails.
type Memento any

// Contract is the interface deployable contracts implement. The chain
// serializes all access: at most one Init or Call runs at a time, and
// Views never run concurrently with them, so implementations need no
// locking of their own.
type Contract interface {
	// Init is the constructor. The chain runs it exactly once at
	// deployment, with ctx.Caller set to the deploying account.
	Init(ctx *CallCtx) error

	// Call executes a state-changing method. On error the chain
	// restores the pre-call snapshot, so a failed call must only
	// signal failure, not clean up after itself.
	Call(ctx *CallCtx, method string, args ...any) (any, error)

	// View executes a read-only method.
	View(method string, args ...any) (any, error)

	// Snapshot returns a deep copy of the contract's state.
	Snapshot() Memento

	// Restore resets the contract's state to a snapshot previously
	// returned by Snapshot.
	Restore(m Memento)
}

// CallCtx carries per-call context into a contract: the acting caller
// and the log sink for emitted notifications.
type CallCtx struct {
	// Caller is the account the call is attributed to. Guards compare
	// against it the way Solidity code compares against msg.sender.
	Caller Address
	// Contract is the address the call targets. During Init it is the
	// address the chain derived for the deployment.
	Contract Address
	// TxHash identifies the transaction.
	TxHash Hash

	logs []Log
	seq  int
}

// Emit records a log against the current transaction. The chain stamps
// the contract address, transaction hash and sequence number.
func (c *CallCtx) Emit(l Log) {
	if l.Address.IsZero() {
		l.Address = c.Contract
	}
	l.TxHash = c.TxHash
	l.Seq = c.seq
	c.seq++
	c.logs = append(c.logs, l)
}

// Logs returns the logs emitted so far in this call.
func (c *CallCtx) Logs() []Log { return c.logs }
