package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AccountFactory binds the contract that deploys per-user smart accounts.
type AccountFactory struct {
	address common.Address
	backend Backend
}

// NewAccountFactory binds the factory at address.
func NewAccountFactory(address common.Address, backend Backend) *AccountFactory {
	return &AccountFactory{address: address, backend: backend}
}

// Address returns the bound contract address.
func (f *AccountFactory) Address() common.Address {
	return f.address
}

// CreateAccountCallData encodes createAccount(owner).
func (f *AccountFactory) CreateAccountCallData(owner common.Address) ([]byte, error) {
	return factoryABI.Pack("createAccount", owner)
}

// PredictAccountAddress computes the counterfactual address of the next
// account the factory will deploy, using the CREATE rule over the factory's
// current transaction count.
func (f *AccountFactory) PredictAccountAddress(ctx context.Context) (common.Address, error) {
	nonce, err := f.backend.NonceAt(ctx, f.address, nil)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.CreateAddress(f.address, nonce), nil
}
