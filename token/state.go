package token

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
)

// State is a deep-copied snapshot of a ledger. The execution
// environment takes one before every call and restores it when the
// call fails, which is what makes calls atomic.
type State struct {
	Name       string                                           `json:"name"`
	Symbol     string                                           `json:"symbol"`
	Decimals   uint8                                            `json:"decimals"`
	Supply     *uint256.Int                                     `json:"supply"`
	Balances   map[chain.Address]*uint256.Int                   `json:"balances,omitempty"`
	Allowances map[chain.Address]map[chain.Address]*uint256.Int `json:"allowances,omitempty"`
}

// Clone creates a deep copy of the state.
func (s *State) Clone() *State {
	clone := &State{
		Name:       s.Name,
		Symbol:     s.Symbol,
		Decimals:   s.Decimals,
		Supply:     new(uint256.Int).Set(s.Supply),
		Balances:   make(map[chain.Address]*uint256.Int, len(s.Balances)),
		Allowances: make(map[chain.Address]map[chain.Address]*uint256.Int, len(s.Allowances)),
	}
	for addr, b := range s.Balances {
		clone.Balances[addr] = new(uint256.Int).Set(b)
	}
	for owner, inner := range s.Allowances {
		dst := make(map[chain.Address]*uint256.Int, len(inner))
		for spender, a := range inner {
			dst[spender] = new(uint256.Int).Set(a)
		}
		clone.Allowances[owner] = dst
	}
	return clone
}

// Holders returns the accounts with a balance, in address order. The
// fixed order is what makes state commitments reproducible.
func (s *State) Holders() []chain.Address {
	holders := make([]chain.Address, 0, len(s.Balances))
	for addr := range s.Balances {
		holders = append(holders, addr)
	}
	sort.Slice(holders, func(i, j int) bool {
		return bytes.Compare(holders[i].Bytes(), holders[j].Bytes()) < 0
	})
	return holders
}

// SumBalances adds up every balance in the state.
func (s *State) SumBalances() *uint256.Int {
	sum := uint256.NewInt(0)
	for _, b := range s.Balances {
		sum.Add(sum, b)
	}
	return sum
}

// CheckConservation verifies that the sum of balances equals the total
// supply, the ledger's core invariant.
func (s *State) CheckConservation() error {
	sum := s.SumBalances()
	if !sum.Eq(s.Supply) {
		return fmt.Errorf("token: conservation violated: sum(balances) %s != supply %s",
			sum.Dec(), s.Supply.Dec())
	}
	return nil
}
