// Package ownable provides a single-owner access control capability.
//
// A contract embeds an Ownable, records its deployer as the initial owner,
// and wraps privileged operations in Guard. Ownership can be handed to a
// new account or renounced entirely, and every change of owner emits an
// OwnershipTransferred notification naming the previous and new owner.
package ownable

import (
	"errors"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
)

var (
	ErrNotOwner    = errors.New("ownable: caller is not the owner")
	ErrZeroAddress = errors.New("ownable: new owner is the zero address")
)

// EventOwnershipTransferred is emitted whenever the owner changes,
// including once at construction for the initial owner.
const EventOwnershipTransferred = "OwnershipTransferred"

// Emitter receives ownership notifications as they happen.
type Emitter func(chain.Log)

// Ownable tracks the single account allowed through Guard.
type Ownable struct {
	owner chain.Address
	emit  Emitter
}

type Option func(*Ownable)

func WithEmitter(emit Emitter) Option {
	return func(o *Ownable) { o.emit = emit }
}

// New creates an Ownable owned by the given account. The zero address is
// rejected so that a freshly constructed contract always has a live owner.
func New(owner chain.Address, opts ...Option) (*Ownable, error) {
	if owner.IsZero() {
		return nil, ErrZeroAddress
	}
	o := &Ownable{}
	for _, opt := range opts {
		opt(o)
	}
	o.setOwner(owner)
	return o, nil
}

// Owner reports the current owner. After RenounceOwnership it is the
// zero address and no caller passes Guard again.
func (o *Ownable) Owner() chain.Address { return o.owner }

// Guard returns ErrNotOwner unless caller is the current owner. A zero
// owner means ownership was renounced, so no caller passes.
func (o *Ownable) Guard(caller chain.Address) error {
	if o.owner.IsZero() || caller != o.owner {
		return ErrNotOwner
	}
	return nil
}

// TransferOwnership hands the owner role to newOwner. Only the current
// owner may call it, and the zero address is rejected; use
// RenounceOwnership to give up ownership for good.
func (o *Ownable) TransferOwnership(caller, newOwner chain.Address) error {
	if err := o.Guard(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return ErrZeroAddress
	}
	o.setOwner(newOwner)
	return nil
}

// RenounceOwnership sets the owner to the zero address, permanently
// disabling every guarded operation.
func (o *Ownable) RenounceOwnership(caller chain.Address) error {
	if err := o.Guard(caller); err != nil {
		return err
	}
	o.setOwner(chain.ZeroAddress)
	return nil
}

// Snapshot captures the owner so a failed call can roll it back.
func (o *Ownable) Snapshot() chain.Address { return o.owner }

func (o *Ownable) Restore(owner chain.Address) { o.owner = owner }

func (o *Ownable) setOwner(newOwner chain.Address) {
	previous := o.owner
	o.owner = newOwner
	if o.emit != nil {
		o.emit(chain.Log{
			Event:  EventOwnershipTransferred,
			Topics: []string{previous.Hex(), newOwner.Hex()},
		})
	}
}
