package relay

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ballot-chain/ballot_chain/internal/chain"
)

// Result reports a confirmed relayed operation back to the caller. It is
// ephemeral; nothing here is persisted.
type Result struct {
	Success        bool           `json:"success"`
	Email          string         `json:"email,omitempty"`
	AccountAddress common.Address `json:"accountAddress"`
	TxHash         common.Hash    `json:"txHash"`
	GasUsed        uint64         `json:"gasUsed"`
	Events         []string       `json:"events"`
	PaymasterUsed  common.Address `json:"paymasterUsed"`

	// CountBefore/CountAfter mirror the account's operation counter when
	// the deployed account exposes one; nil means unknown.
	CountBefore *big.Int `json:"countBefore,omitempty"`
	CountAfter  *big.Int `json:"countAfter,omitempty"`
}

// Submitter hands finished operations to the EntryPoint and reports the
// outcome. It performs no retries: a consumed nonce can never be resubmitted,
// so retrying is the caller's decision and must restart at the builder.
type Submitter struct {
	entryPoint EntryPointClient
	accounts   AccountClient
	sender     Sender
	paymaster  common.Address
	gasLimit   uint64
	logger     *slog.Logger
}

// NewSubmitter wires an operation submitter. gasLimit is the explicit outer
// limit for handleOps, set so a failed estimation pass can never block
// submission.
func NewSubmitter(entryPoint EntryPointClient, accounts AccountClient, sender Sender, paymaster common.Address, gasLimit uint64, logger *slog.Logger) *Submitter {
	return &Submitter{
		entryPoint: entryPoint,
		accounts:   accounts,
		sender:     sender,
		paymaster:  paymaster,
		gasLimit:   gasLimit,
		logger:     logger,
	}
}

// Submit sends a single-operation bundle and waits for one confirmation.
// The relay signer is the bundle beneficiary, so sponsored gas refunds flow
// back to it.
func (s *Submitter) Submit(ctx context.Context, op chain.UserOperation) (Result, error) {
	callData, err := s.entryPoint.HandleOpsCallData([]chain.UserOperation{op}, s.sender.Address())
	if err != nil {
		return Result{}, wrapError(KindInvalidInput, err, "encode handleOps")
	}

	countBefore := s.readCount(ctx, op.Sender)

	receipt, err := s.sender.Send(ctx, s.entryPoint.Address(), nil, s.gasLimit, callData)
	if err != nil {
		return Result{}, s.classifySubmission(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return Result{}, newError(KindReverted, "handleOps reverted in tx %s", receipt.TxHash.Hex())
	}

	result := Result{
		Success:        true,
		AccountAddress: op.Sender,
		TxHash:         receipt.TxHash,
		GasUsed:        receipt.GasUsed,
		Events:         s.entryPoint.EventNames(receipt.Logs),
		PaymasterUsed:  s.paymaster,
		CountBefore:    countBefore,
		CountAfter:     s.readCount(ctx, op.Sender),
	}

	s.logger.Info("operation confirmed",
		"sender", op.Sender.Hex(),
		"nonce", op.Nonce,
		"tx", result.TxHash.Hex(),
		"gasUsed", result.GasUsed,
		"events", result.Events,
	)
	return result, nil
}

// classifySubmission upgrades a raw send failure with a decoded FailedOp
// reason when the revert payload carries one.
func (s *Submitter) classifySubmission(err error) *Error {
	classified := classifySendError(err, "submit operation")
	if classified.Kind != KindReverted || len(classified.Data) == 0 {
		return classified
	}
	if opIndex, reason, ok := s.entryPoint.DecodeFailedOp(classified.Data); ok {
		decoded := wrapError(KindReverted, err, "operation %s rejected: %s", opIndex, reason)
		decoded.Data = classified.Data
		return decoded
	}
	return classified
}

// readCount reads the account's counter when it exposes one. Absence is
// reported as unknown, not an error.
func (s *Submitter) readCount(ctx context.Context, account common.Address) *big.Int {
	count, err := s.accounts.Count(ctx, account)
	if err != nil {
		return nil
	}
	return count
}
