// Package commitment computes a compact commitment to the token
// ledger's balance state: a MiMC merkle root over (address, balance)
// leaves. MiMC is ZK-friendly, so the same root can be recomputed
// inside an arithmetic circuit (see the proof package), which is how
// real chains commit to state without revealing it.
package commitment

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/token"
)

// Leaves flattens the state's balances into parallel key and value
// field-element slices: holders in fixed address order, padded with
// zero pairs to a power of two so the tree is complete. Balances are
// reduced into the BN254 scalar field; workshop amounts sit far below
// it.
func Leaves(st *token.State) (keys, balances []fr.Element) {
	holders := st.Holders()
	n := padTo(len(holders))
	keys = make([]fr.Element, n)
	balances = make([]fr.Element, n)
	for i, addr := range holders {
		keys[i].SetBytes(addr.Bytes())
		b := st.Balances[addr].Bytes32()
		balances[i].SetBytes(b[:])
	}
	return keys, balances
}

// Root computes the merkle root: leaf_i = MiMC(key_i, balance_i),
// parents = MiMC(left, right), up to a single element.
func Root(st *token.State) chain.Hash {
	keys, balances := Leaves(st)
	level := make([]fr.Element, len(keys))
	for i := range keys {
		level[i] = hashPair(keys[i], balances[i])
	}
	for len(level) > 1 {
		next := make([]fr.Element, len(level)/2)
		for i := range next {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return chain.BytesToHash(level[0].Marshal())
}

func hashPair(a, b fr.Element) fr.Element {
	h := mimc.NewMiMC()
	h.Write(a.Marshal())
	h.Write(b.Marshal())
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

func padTo(n int) int {
	if n == 0 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
