// Package keys provides development identities for the workshop: real
// secp256k1 keypairs whose addresses are derived the way production
// chains derive them, keccak256 of the uncompressed public key.
//
// The sandbox never verifies signatures (calls state their caller the
// way test harnesses do), but using real key material keeps the
// address arithmetic honest and gives the guide concrete accounts to
// talk about.
package keys

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
)

var ErrBadKey = errors.New("keys: private key must be 32 hex-encoded bytes")

// Key is a secp256k1 private key with its derived account address.
type Key struct {
	priv *secp256k1.PrivateKey
}

// GenerateKey creates a fresh random key.
func GenerateKey() (*Key, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return &Key{priv: priv}, nil
}

// FromHex loads a key from its 64-character hex form, with or without
// a 0x prefix.
func FromHex(s string) (*Key, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return nil, ErrBadKey
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	if priv.Key.IsZero() {
		return nil, ErrBadKey
	}
	return &Key{priv: priv}, nil
}

// Hex returns the 0x-prefixed hex form of the 32-byte scalar.
func (k *Key) Hex() string {
	return "0x" + hex.EncodeToString(k.priv.Serialize())
}

// Address derives the account address: the last 20 bytes of the
// keccak256 of the uncompressed public key without its 0x04 prefix.
func (k *Key) Address() chain.Address {
	pub := k.priv.PubKey().SerializeUncompressed()
	return chain.BytesToAddress(chain.Keccak256(pub[1:])[12:])
}

// PublicKey returns the 65-byte uncompressed public key.
func (k *Key) PublicKey() []byte {
	return k.priv.PubKey().SerializeUncompressed()
}

// DevAccounts derives n deterministic workshop accounts. The scalars
// come from hashing a fixed label with the account index, so every run
// and every attendee sees the same addresses.
func DevAccounts(n int) []*Key {
	accounts := make([]*Key, 0, n)
	for i := 0; i < n; i++ {
		seed := chain.Keccak256([]byte(fmt.Sprintf("tokenlab/dev-account/%d", i)))
		accounts = append(accounts, &Key{priv: secp256k1.PrivKeyFromBytes(seed)})
	}
	return accounts
}
