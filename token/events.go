package token

import (
	"github.com/holiman/uint256"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
)

// Event names emitted by the ledger. Topics carry the counterparties in
// hex, with the zero address standing for "none" on mint and burn.
const (
	EventTransfer = "Transfer"
	EventApproval = "Approval"
)

// Emitter receives logs as the ledger emits them. The ledger stamps
// event name, topics and data; the execution environment stamps the
// rest.
type Emitter func(chain.Log)

func transferLog(from, to chain.Address, amount *uint256.Int) chain.Log {
	return chain.Log{
		Event:  EventTransfer,
		Topics: []string{from.Hex(), to.Hex()},
		Data:   map[string]string{"amount": amount.Dec()},
	}
}

func approvalLog(owner, spender chain.Address, amount *uint256.Int) chain.Log {
	return chain.Log{
		Event:  EventApproval,
		Topics: []string{owner.Hex(), spender.Hex()},
		Data:   map[string]string{"amount": amount.Dec()},
	}
}
