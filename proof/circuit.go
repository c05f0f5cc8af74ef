package proof

import (
	"errors"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// Circuit proves that a committed balance state conserves supply: the
// private (key, balance) leaves hash to the public merkle root, and the
// balances sum to the public total supply. Nothing about individual
// holders leaks; only the root and the supply are revealed.
type Circuit struct {
	Supply frontend.Variable `gnark:",public"`
	Root   frontend.Variable `gnark:",public"`

	Keys     []frontend.Variable
	Balances []frontend.Variable
}

func (c *Circuit) Define(api frontend.API) error {
	n := len(c.Keys)
	if n == 0 || n != len(c.Balances) {
		return errors.New("proof: keys and balances must be equal-length and non-empty")
	}
	if n&(n-1) != 0 {
		return errors.New("proof: leaf count must be a power of two")
	}

	sum := frontend.Variable(0)
	level := make([]frontend.Variable, n)
	for i := 0; i < n; i++ {
		sum = api.Add(sum, c.Balances[i])
		level[i] = mimcHash(api, c.Keys[i], c.Balances[i])
	}
	for len(level) > 1 {
		next := make([]frontend.Variable, len(level)/2)
		for i := range next {
			next[i] = mimcHash(api, level[2*i], level[2*i+1])
		}
		level = next
	}

	api.AssertIsEqual(level[0], c.Root)
	api.AssertIsEqual(sum, c.Supply)
	return nil
}

// mimcHash computes MiMC(left, right) in-circuit, matching the native
// hash the commitment package uses to build roots.
func mimcHash(api frontend.API, left, right frontend.Variable) frontend.Variable {
	h, _ := mimc.NewMiMC(api)
	h.Write(left, right)
	return h.Sum()
}
