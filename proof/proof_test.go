package proof

import (
	"errors"
	"strings"
	"testing"

	"github.com/holiman/uint256"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/token"
)

var (
	holderA = chain.HexToAddress("0x00000000000000000000000000000000000000aa")
	holderB = chain.HexToAddress("0x00000000000000000000000000000000000000bb")
	holderC = chain.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func buildState(t *testing.T, balances map[chain.Address]uint64) *token.State {
	t.Helper()
	l := token.New("My Token", "MTK")
	for addr, amount := range balances {
		if err := l.Mint(addr, uint256.NewInt(amount)); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	return l.Snapshot()
}

func TestConservationSystem(t *testing.T) {
	sys, err := Compile(2)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	t.Logf("conservation circuit: %d constraints for %d leaves", sys.Constraints(), sys.Size())

	st := buildState(t, map[chain.Address]uint64{holderA: 700, holderB: 300})

	t.Run("ProveAndVerify", func(t *testing.T) {
		p, err := sys.Prove(st)
		if err != nil {
			t.Fatalf("prove failed: %v", err)
		}
		if p.Supply.Uint64() != 1000 {
			t.Errorf("public supply: got %s, want 1000", p.Supply)
		}
		if p.Root.IsZero() {
			t.Error("public root is zero")
		}
		if err := sys.Verify(p); err != nil {
			t.Errorf("verify failed: %v", err)
		}
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		big := buildState(t, map[chain.Address]uint64{holderA: 1, holderB: 2, holderC: 3})
		if _, err := sys.Prove(big); !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("got %v, want ErrSizeMismatch", err)
		}
	})

	t.Run("BrokenConservationUnprovable", func(t *testing.T) {
		broken := st.Clone()
		broken.Supply = new(uint256.Int).Add(broken.Supply, uint256.NewInt(1))
		if err := broken.CheckConservation(); err == nil {
			t.Fatal("state unexpectedly conserves supply")
		}
		if _, err := sys.Prove(broken); err == nil {
			t.Error("proved a state that does not conserve supply")
		}
	})

	t.Run("ExportVerifier", func(t *testing.T) {
		var sb strings.Builder
		if err := sys.ExportSolidityVerifier(&sb); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(sb.String(), "pragma solidity") {
			t.Error("exported verifier is not Solidity")
		}
	})
}

func TestSingleLeafSystem(t *testing.T) {
	sys, err := Compile(1)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	// An empty ledger pads to one zero leaf and still proves.
	p, err := sys.Prove(buildState(t, nil))
	if err != nil {
		t.Fatalf("prove failed: %v", err)
	}
	if err := sys.Verify(p); err != nil {
		t.Errorf("verify failed: %v", err)
	}
	if p.Supply.Sign() != 0 {
		t.Errorf("empty state supply: got %s, want 0", p.Supply)
	}
}

func TestCompileRejectsBadSizes(t *testing.T) {
	for _, size := range []int{-1, 0, 3, 6} {
		if _, err := Compile(size); err == nil {
			t.Errorf("Compile(%d) accepted", size)
		}
	}
}
