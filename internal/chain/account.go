package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ExecuteCallData wraps an arbitrary target call in the smart account's
// generic execute(dest, value, data) entry point. This is what lets one
// account proxy calls to any target contract without bespoke on-chain logic
// per action.
func ExecuteCallData(dest common.Address, value *big.Int, data []byte) ([]byte, error) {
	if value == nil {
		value = big.NewInt(0)
	}
	return accountABI.Pack("execute", dest, value, data)
}

// AccountReader reads state from deployed smart accounts. Unlike the other
// bindings it is not bound to one address: the relay serves many accounts.
type AccountReader struct {
	backend Backend
}

// NewAccountReader builds a reader over backend.
func NewAccountReader(backend Backend) *AccountReader {
	return &AccountReader{backend: backend}
}

// Count reads an account's operation counter. Not every deployed account
// exposes one; callers treat errors as "unknown".
func (r *AccountReader) Count(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := callView(ctx, r.backend, account, accountABI, "count")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Owner reads an account's owner address.
func (r *AccountReader) Owner(ctx context.Context, account common.Address) (common.Address, error) {
	out, err := callView(ctx, r.backend, account, accountABI, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}
