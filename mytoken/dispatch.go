package mytoken

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
)

// ErrInvalidArgument is returned when a dispatched call carries the
// wrong number or kind of arguments.
var ErrInvalidArgument = errors.New("mytoken: invalid argument")

// Call dispatches a state-changing method by name. Addresses may be
// passed as chain.Address or hex strings, amounts as *uint256.Int,
// decimal strings or uint64, so scripted scenarios and the CLI can use
// plain text.
func (t *Token) Call(ctx *chain.CallCtx, method string, args ...any) (any, error) {
	t.sink = ctx
	defer func() { t.sink = nil }()

	switch method {
	case "transfer":
		to, err := addressArg(args, 0)
		if err != nil {
			return nil, err
		}
		amount, err := amountArg(args, 1)
		if err != nil {
			return nil, err
		}
		return nil, t.ledger.Transfer(ctx.Caller, to, amount)

	case "approve":
		spender, err := addressArg(args, 0)
		if err != nil {
			return nil, err
		}
		amount, err := amountArg(args, 1)
		if err != nil {
			return nil, err
		}
		return nil, t.ledger.Approve(ctx.Caller, spender, amount)

	case "transferFrom":
		from, err := addressArg(args, 0)
		if err != nil {
			return nil, err
		}
		to, err := addressArg(args, 1)
		if err != nil {
			return nil, err
		}
		amount, err := amountArg(args, 2)
		if err != nil {
			return nil, err
		}
		return nil, t.ledger.TransferFrom(ctx.Caller, from, to, amount)

	case "mint":
		recipient, err := addressArg(args, 0)
		if err != nil {
			return nil, err
		}
		quantity, err := amountArg(args, 1)
		if err != nil {
			return nil, err
		}
		return nil, t.Mint(ctx, recipient, quantity)

	case "burn":
		amount, err := amountArg(args, 0)
		if err != nil {
			return nil, err
		}
		return nil, t.ledger.Burn(ctx.Caller, amount)

	case "transferOwnership":
		newOwner, err := addressArg(args, 0)
		if err != nil {
			return nil, err
		}
		return nil, t.owner.TransferOwnership(ctx.Caller, newOwner)

	case "renounceOwnership":
		return nil, t.owner.RenounceOwnership(ctx.Caller)
	}
	return nil, fmt.Errorf("%w: %s", chain.ErrUnknownMethod, method)
}

// View dispatches a read-only method by name. The state view returns a
// deep-copied token.State snapshot for commitments and the explorer.
func (t *Token) View(method string, args ...any) (any, error) {
	switch method {
	case "name":
		return t.ledger.Name(), nil
	case "symbol":
		return t.ledger.Symbol(), nil
	case "decimals":
		return t.ledger.Decimals(), nil
	case "totalSupply":
		return t.ledger.TotalSupply(), nil
	case "balanceOf":
		account, err := addressArg(args, 0)
		if err != nil {
			return nil, err
		}
		return t.ledger.BalanceOf(account), nil
	case "allowance":
		owner, err := addressArg(args, 0)
		if err != nil {
			return nil, err
		}
		spender, err := addressArg(args, 1)
		if err != nil {
			return nil, err
		}
		return t.ledger.Allowance(owner, spender), nil
	case "owner":
		return t.owner.Owner(), nil
	case "state":
		return t.ledger.Snapshot(), nil
	}
	return nil, fmt.Errorf("%w: %s", chain.ErrUnknownMethod, method)
}

func addressArg(args []any, i int) (chain.Address, error) {
	if i >= len(args) {
		return chain.Address{}, fmt.Errorf("%w: missing address at position %d", ErrInvalidArgument, i)
	}
	switch v := args[i].(type) {
	case chain.Address:
		return v, nil
	case string:
		a, err := chain.ParseAddress(v)
		if err != nil {
			return chain.Address{}, fmt.Errorf("%w: position %d: %v", ErrInvalidArgument, i, err)
		}
		return a, nil
	}
	return chain.Address{}, fmt.Errorf("%w: position %d: want address, got %T", ErrInvalidArgument, i, args[i])
}

func amountArg(args []any, i int) (*uint256.Int, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("%w: missing amount at position %d", ErrInvalidArgument, i)
	}
	switch v := args[i].(type) {
	case *uint256.Int:
		return v, nil
	case uint64:
		return uint256.NewInt(v), nil
	case int:
		if v < 0 {
			return nil, fmt.Errorf("%w: position %d: negative amount", ErrInvalidArgument, i)
		}
		return uint256.NewInt(uint64(v)), nil
	case string:
		a, err := uint256.FromDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: position %d: %v", ErrInvalidArgument, i, err)
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: position %d: want amount, got %T", ErrInvalidArgument, i, args[i])
}
