package chain

import "errors"

var (
	// ErrClosed is returned when submitting work to a closed chain.
	ErrClosed = errors.New("chain: closed")

	// ErrUnknownContract is returned for calls to an address with no
	// deployed contract.
	ErrUnknownContract = errors.New("chain: unknown contract address")

	// ErrUnknownMethod is returned by contracts when dispatched a
	// method they do not implement.
	ErrUnknownMethod = errors.New("chain: unknown method")

	// ErrNilContract is returned when deploying a nil contract.
	ErrNilContract = errors.New("chain: nil contract")
)
