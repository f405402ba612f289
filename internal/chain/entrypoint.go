package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EntryPoint binds the singleton contract that validates and executes user
// operation bundles.
type EntryPoint struct {
	address common.Address
	backend Backend
}

// NewEntryPoint binds the EntryPoint at address.
func NewEntryPoint(address common.Address, backend Backend) *EntryPoint {
	return &EntryPoint{address: address, backend: backend}
}

// Address returns the bound contract address.
func (e *EntryPoint) Address() common.Address {
	return e.address
}

// Nonce returns the EntryPoint-tracked nonce for (sender, key). This is the
// smart account's nonce space, independent of any signer's transaction count.
func (e *EntryPoint) Nonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error) {
	out, err := callView(ctx, e.backend, e.address, entryPointABI, "getNonce", sender, key)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// DepositOf returns the sponsorship balance the EntryPoint holds for account.
func (e *EntryPoint) DepositOf(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := callView(ctx, e.backend, e.address, entryPointABI, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// DepositToCallData encodes depositTo(account). The deposit value rides on
// the enclosing transaction.
func (e *EntryPoint) DepositToCallData(account common.Address) ([]byte, error) {
	return entryPointABI.Pack("depositTo", account)
}

// HandleOpsCallData encodes handleOps(ops, beneficiary).
func (e *EntryPoint) HandleOpsCallData(ops []UserOperation, beneficiary common.Address) ([]byte, error) {
	return entryPointABI.Pack("handleOps", ops, beneficiary)
}

// EventNames matches receipt logs against the EntryPoint event set and
// returns the names of those that decode. Logs emitted by other contracts
// in the same transaction are skipped.
func (e *EntryPoint) EventNames(logs []*types.Log) []string {
	var names []string
	for _, l := range logs {
		if l == nil || len(l.Topics) == 0 {
			continue
		}
		event, err := entryPointABI.EventByID(l.Topics[0])
		if err != nil {
			continue
		}
		names = append(names, event.Name)
	}
	return names
}

// DecodeFailedOp decodes a FailedOp(opIndex, reason) revert payload into its
// operation index and human-readable reason. ok is false when the payload is
// not a FailedOp error.
func (e *EntryPoint) DecodeFailedOp(revertData []byte) (opIndex *big.Int, reason string, ok bool) {
	failedOp, exists := entryPointABI.Errors["FailedOp"]
	if !exists || len(revertData) < 4 {
		return nil, "", false
	}
	unpacked, err := failedOp.Unpack(revertData)
	if err != nil {
		return nil, "", false
	}
	values, isSlice := unpacked.([]interface{})
	if !isSlice || len(values) != 2 {
		return nil, "", false
	}
	idx, idxOK := values[0].(*big.Int)
	msg, msgOK := values[1].(string)
	if !idxOK || !msgOK {
		return nil, "", false
	}
	return idx, msg, true
}
