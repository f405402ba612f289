package relay

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ballot-chain/ballot_chain/internal/chain"
)

const depositGasLimit = 150_000

// FundingGuard keeps the paymaster's EntryPoint deposit above a floor so
// sponsored operations never revert for lack of prefund. It runs before
// every sponsored submission; a failed top-up aborts the enclosing
// operation rather than letting the relay burn verification gas on a
// doomed bundle.
type FundingGuard struct {
	entryPoint EntryPointClient
	sender     Sender
	paymaster  common.Address
	threshold  *big.Int
	topUp      *big.Int
	logger     *slog.Logger
}

// NewFundingGuard wires a guard for the given paymaster.
func NewFundingGuard(entryPoint EntryPointClient, sender Sender, paymaster common.Address, threshold, topUp *big.Int, logger *slog.Logger) *FundingGuard {
	return &FundingGuard{
		entryPoint: entryPoint,
		sender:     sender,
		paymaster:  paymaster,
		threshold:  threshold,
		topUp:      topUp,
		logger:     logger,
	}
}

// EnsureFunded tops up the paymaster deposit when it sits below the
// threshold. The deposit transaction spends the relay signer's own nonce
// space, not any smart account's.
func (g *FundingGuard) EnsureFunded(ctx context.Context) error {
	deposit, err := g.entryPoint.DepositOf(ctx, g.paymaster)
	if err != nil {
		return wrapError(KindChainRPCFailure, err, "read paymaster deposit")
	}
	if deposit.Cmp(g.threshold) >= 0 {
		return nil
	}

	g.logger.Info("paymaster deposit below threshold, topping up",
		"paymaster", g.paymaster.Hex(),
		"deposit", deposit,
		"topUp", g.topUp,
	)

	callData, err := g.entryPoint.DepositToCallData(g.paymaster)
	if err != nil {
		return wrapError(KindInvalidInput, err, "encode depositTo")
	}

	receipt, err := g.sender.Send(ctx, g.entryPoint.Address(), g.topUp, depositGasLimit, callData)
	if err != nil {
		return classifySendError(err, "fund paymaster")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return newError(KindReverted, "paymaster top-up reverted in tx %s", receipt.TxHash.Hex())
	}

	g.logger.Info("paymaster funded", "paymaster", g.paymaster.Hex(), "tx", receipt.TxHash.Hex())
	return nil
}

// classifySendError maps transport-layer send failures onto relay kinds.
func classifySendError(err error, action string) *Error {
	var timeout chain.ErrConfirmationTimeout
	if errors.As(err, &timeout) {
		return wrapError(KindTimeout, err, "%s: unconfirmed transaction %s", action, timeout.TxHash.Hex())
	}
	if data, ok := chain.RevertData(err); ok {
		e := wrapError(KindReverted, err, "%s reverted", action)
		e.Data = data
		return e
	}
	return wrapError(KindChainRPCFailure, err, "%s", action)
}
