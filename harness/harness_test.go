package harness

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/journal"
	"github.com/tokenlab-xyz/go-tokenlab/token"
)

func TestDeployReportsTokenMetadata(t *testing.T) {
	f := New(t, WithToken("My Token", "MTK", uint256.NewInt(1_000_000)))

	name, err := f.View("name")
	require.NoError(t, err)
	assert.Equal(t, "My Token", name)

	symbol, err := f.View("symbol")
	require.NoError(t, err)
	assert.Equal(t, "MTK", symbol)

	bal, err := f.BalanceOf(f.Owner)
	require.NoError(t, err)
	assert.Equal(t, "1000000", bal.Dec())

	supply, err := f.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, "1000000", supply.Dec())

	require.NotNil(t, f.DeployReceipt)
	assert.True(t, f.DeployReceipt.Ok())
	assert.Len(t, f.DeployReceipt.Logs, 2, "construction notifies ownership then supply")
}

func TestDeployerIsOwner(t *testing.T) {
	f := New(t)

	owner, err := f.View("owner")
	require.NoError(t, err)
	assert.Equal(t, f.Owner.Addr, owner)
}

func TestTransferMovesBalanceAndNotifies(t *testing.T) {
	f := New(t)

	rcpt, err := f.As(f.Owner).Call("transfer", f.Alice.Addr, uint256.NewInt(250))
	require.NoError(t, err)
	require.True(t, rcpt.Ok())

	require.Len(t, rcpt.Logs, 1)
	log := rcpt.Logs[0]
	assert.Equal(t, token.EventTransfer, log.Event)
	assert.Equal(t, []string{f.Owner.Addr.Hex(), f.Alice.Addr.Hex()}, log.Topics)
	assert.Equal(t, "250", log.Data["amount"])
	assert.Equal(t, f.Token, log.Address)

	bal, err := f.BalanceOf(f.Alice)
	require.NoError(t, err)
	assert.Equal(t, "250", bal.Dec())
}

func TestTransferBeyondBalanceReverts(t *testing.T) {
	f := New(t)

	rcpt, err := f.As(f.Alice).Call("transfer", f.Bob.Addr, uint256.NewInt(1))
	require.ErrorIs(t, err, token.ErrInsufficientBalance)
	require.NotNil(t, rcpt)
	assert.False(t, rcpt.Ok())
	assert.Empty(t, rcpt.Logs)

	ownerBal, err := f.BalanceOf(f.Owner)
	require.NoError(t, err)
	assert.Equal(t, "1000", ownerBal.Dec(), "sender side untouched")

	bobBal, err := f.BalanceOf(f.Bob)
	require.NoError(t, err)
	assert.True(t, bobBal.IsZero(), "recipient side untouched")
}

func TestOwnerMintRaisesBalance(t *testing.T) {
	f := New(t)

	rcpt, err := f.As(f.Owner).Call("mint", f.Bob.Addr, uint256.NewInt(500))
	require.NoError(t, err)
	require.True(t, rcpt.Ok())

	bal, err := f.BalanceOf(f.Bob)
	require.NoError(t, err)
	assert.Equal(t, "500", bal.Dec())

	supply, err := f.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, "1500", supply.Dec())
}

func TestNonOwnerMintRejected(t *testing.T) {
	f := New(t)

	rcpt, err := f.As(f.Alice).Call("mint", f.Alice.Addr, uint256.NewInt(500))
	require.Error(t, err)
	require.NotNil(t, rcpt)
	assert.False(t, rcpt.Ok())
	assert.Contains(t, rcpt.Err, "not the owner")

	bal, err := f.BalanceOf(f.Alice)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	supply, err := f.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, "1000", supply.Dec(), "rejected mint issues nothing")
}

func TestFixtureIdentities(t *testing.T) {
	f := New(t)

	id, ok := f.Identity("owner")
	require.True(t, ok)
	assert.Same(t, f.Owner, id)

	_, ok = f.Identity("mallory")
	assert.False(t, ok)

	// The three dev accounts are distinct.
	assert.NotEqual(t, f.Owner.Addr, f.Alice.Addr)
	assert.NotEqual(t, f.Alice.Addr, f.Bob.Addr)

	assert.Equal(t, "owner", f.NameOf(f.Owner.Addr))
	assert.Equal(t, "token", f.NameOf(f.Token))
	assert.Equal(t, "zero", f.NameOf(chain.ZeroAddress))

	stranger := chain.BytesToAddress([]byte{0xde, 0xad, 0xbe, 0xef})
	name := f.NameOf(stranger)
	assert.Len(t, name, 12)
	assert.Contains(t, name, "0x")
}

func TestFixtureIsDeterministic(t *testing.T) {
	a := New(t)
	b := New(t)

	assert.Equal(t, a.Owner.Addr, b.Owner.Addr)
	assert.Equal(t, a.Alice.Addr, b.Alice.Addr)
	assert.Equal(t, a.Token, b.Token, "same deployer and nonce derive the same address")
}

func TestFixtureWithSQLiteJournal(t *testing.T) {
	store, err := journal.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	f := New(t, WithJournal(store))

	_, err = f.As(f.Owner).Call("transfer", f.Alice.Addr, uint256.NewInt(10))
	require.NoError(t, err)

	events, err := f.Chain.Journal().Read(context.Background(), f.Token.Hex(), 0)
	require.NoError(t, err)

	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{
		"receipt.deploy", "log.OwnershipTransferred", "log.Transfer",
		"receipt.transfer", "log.Transfer",
	}, types)
}
