// Package proof generates zero-knowledge proofs that the token
// ledger's balances conserve total supply. The prover commits to the
// balance state with the same MiMC merkle root the commitment package
// computes, then proves in Groth16 over BN254, Ethereum's alt_bn128,
// that the hidden balances both hash to that root and sum to the
// public supply.
package proof

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/commitment"
	"github.com/tokenlab-xyz/go-tokenlab/token"
)

// ErrSizeMismatch is returned when a state's padded leaf count differs
// from the size the system was compiled for.
var ErrSizeMismatch = errors.New("proof: state size does not match compiled circuit")

// System holds a compiled conservation circuit and its Groth16 keys.
// Compilation and setup are expensive; build one System per leaf count
// and reuse it across proofs.
type System struct {
	size int
	cs   constraint.ConstraintSystem
	pk   groth16.ProvingKey
	vk   groth16.VerifyingKey
}

// Proof is a verifiable conservation claim: the hidden balances behind
// Root sum to Supply.
type Proof struct {
	Supply *big.Int
	Root   chain.Hash

	proof  groth16.Proof
	public witness.Witness
}

// Compile builds the circuit for the given padded leaf count, a power
// of two, and runs the trusted setup. In production the setup would
// come from a ceremony; for the workshop a local setup is the point.
func Compile(size int) (*System, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("proof: size %d is not a power of two", size)
	}

	circuit := &Circuit{
		Keys:     make([]frontend.Variable, size),
		Balances: make([]frontend.Variable, size),
	}
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("proof: circuit compilation failed: %w", err)
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("proof: setup failed: %w", err)
	}

	return &System{size: size, cs: cs, pk: pk, vk: vk}, nil
}

// Size returns the padded leaf count the system was compiled for.
func (s *System) Size() int { return s.size }

// Constraints returns the circuit's constraint count.
func (s *System) Constraints() int { return s.cs.GetNbConstraints() }

// Prove generates a conservation proof for the state. The state's
// padded leaf count must match the compiled size.
func (s *System) Prove(st *token.State) (*Proof, error) {
	keys, balances := commitment.Leaves(st)
	if len(keys) != s.size {
		return nil, fmt.Errorf("%w: state pads to %d leaves, circuit wants %d", ErrSizeMismatch, len(keys), s.size)
	}
	root := commitment.Root(st)

	assignment := &Circuit{
		Supply:   st.Supply.ToBig(),
		Root:     new(big.Int).SetBytes(root.Bytes()),
		Keys:     make([]frontend.Variable, s.size),
		Balances: make([]frontend.Variable, s.size),
	}
	for i := 0; i < s.size; i++ {
		assignment.Keys[i] = keys[i].BigInt(new(big.Int))
		assignment.Balances[i] = balances[i].BigInt(new(big.Int))
	}

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("proof: witness creation failed: %w", err)
	}
	prf, err := groth16.Prove(s.cs, s.pk, w)
	if err != nil {
		return nil, fmt.Errorf("proof: proof generation failed: %w", err)
	}
	public, err := w.Public()
	if err != nil {
		return nil, fmt.Errorf("proof: public witness extraction failed: %w", err)
	}

	return &Proof{
		Supply: st.Supply.ToBig(),
		Root:   root,
		proof:  prf,
		public: public,
	}, nil
}

// Verify checks the proof against the system's verifying key.
func (s *System) Verify(p *Proof) error {
	if err := groth16.Verify(p.proof, s.vk, p.public); err != nil {
		return fmt.Errorf("proof: verification failed: %w", err)
	}
	return nil
}

// ExportSolidityVerifier writes a Solidity contract that verifies this
// system's proofs on-chain, pairing with the codegen package's view of
// the token contract itself.
func (s *System) ExportSolidityVerifier(w io.Writer) error {
	if err := s.vk.ExportSolidity(w); err != nil {
		return fmt.Errorf("proof: export verifier: %w", err)
	}
	return nil
}
