package chain

// Transaction status codes, mirroring the usual on-chain convention.
const (
	StatusReverted = uint64(0)
	StatusSuccess  = uint64(1)
)

// Log is an emitted change notification. Balance-affecting operations
// emit one log per change, carrying the counterparties in Topics and
// the remaining fields in Data.
type Log struct {
	// Address of the contract that emitted the log.
	Address Address `json:"address"`
	// Event name, e.g. "Transfer" or "OwnershipTransferred".
	Event string `json:"event"`
	// Topics holds the indexed fields in order, addresses in hex form.
	Topics []string `json:"topics,omitempty"`
	// Data holds the non-indexed payload, e.g. {"amount": "100"}.
	Data map[string]string `json:"data,omitempty"`
	// TxHash of the transaction that produced the log.
	TxHash Hash `json:"txHash"`
	// Seq is the log's position within its transaction, starting at 0.
	Seq int `json:"seq"`
}

// Receipt records the outcome of one state-changing call. Reverted
// calls still produce a receipt, with Status StatusReverted, the revert
// reason in Err, and no logs.
type Receipt struct {
	TxHash   Hash    `json:"txHash"`
	Status   uint64  `json:"status"`
	Contract Address `json:"contract"`
	Caller   Address `json:"caller"`
	Method   string  `json:"method"`
	// Nonce is the caller's account nonce consumed by this call.
	Nonce uint64 `json:"nonce"`
	// Block is the call's position in the chain's serialized history.
	// Strictly increasing across all processed calls.
	Block uint64 `json:"block"`
	Logs  []Log  `json:"logs,omitempty"`
	Err   string `json:"error,omitempty"`
}

// Ok reports whether the call succeeded.
func (r *Receipt) Ok() bool { return r.Status == StatusSuccess }
