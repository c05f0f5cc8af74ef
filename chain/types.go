package chain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// AddressLength is the length of an account address in bytes.
	AddressLength = 20
	// HashLength is the length of a hash in bytes.
	HashLength = 32
)

// Address identifies an account or a deployed contract.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address. It stands for "none": the mint
// counterparty on issuance, the burn counterparty on destruction, and
// the owner of a contract whose ownership was renounced.
var ZeroAddress Address

// BytesToAddress converts b to an Address, left-padding or truncating
// to the leftmost bytes as needed.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// ParseAddress parses a 0x-prefixed hex address.
func ParseAddress(s string) (Address, error) {
	raw := strings.TrimPrefix(s, "0x")
	if len(raw) != AddressLength*2 {
		return Address{}, fmt.Errorf("chain: address %q: want %d hex chars, got %d", s, AddressLength*2, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Address{}, fmt.Errorf("chain: address %q: %w", s, err)
	}
	return BytesToAddress(b), nil
}

// HexToAddress converts a hex string to an Address, ignoring parse
// errors. Use ParseAddress when the input is untrusted.
func HexToAddress(s string) Address {
	a, _ := ParseAddress(s)
	return a
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the 0x-prefixed lowercase hex form.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool { return a == ZeroAddress }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Hash is a 32-byte digest, used for transaction ids and state roots.
type Hash [HashLength]byte

// BytesToHash converts b to a Hash, left-padding or truncating to the
// leftmost bytes as needed.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed lowercase hex form.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether the hash is all zeroes.
func (h Hash) IsZero() bool { return h == Hash{} }

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	raw := strings.TrimPrefix(string(text), "0x")
	if len(raw) != HashLength*2 {
		return fmt.Errorf("chain: hash %q: want %d hex chars, got %d", text, HashLength*2, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("chain: hash %q: %w", text, err)
	}
	*h = BytesToHash(b)
	return nil
}

// Keccak256 returns the legacy Keccak-256 digest of the concatenated
// inputs, the hash Ethereum uses for addresses and identifiers.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash is Keccak256 returning a Hash.
func Keccak256Hash(data ...[]byte) Hash {
	return BytesToHash(Keccak256(data...))
}

// CreateAddress derives the address assigned to a contract deployed by
// deployer at the given account nonce. Distinct nonces yield distinct
// addresses, so repeated deploys from one account never collide.
func CreateAddress(deployer Address, nonce uint64) Address {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	return BytesToAddress(Keccak256(deployer.Bytes(), buf[:])[12:])
}
