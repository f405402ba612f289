package relay

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ballot-chain/ballot_chain/internal/chain"
)

// OpSigner signs a 32-byte operation digest. identity.Identity satisfies it.
type OpSigner interface {
	SignHash(digest []byte) ([]byte, error)
}

// BuilderConfig carries the fixed gas and fee policy applied to every
// operation.
type BuilderConfig struct {
	CallGasLimit         uint64
	VerificationGasLimit uint64
	PreVerificationGas   uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Paymaster            common.Address
	ChainID              *big.Int

	// InsecureNoSignature leaves the operation signature empty, matching
	// the permissive demo account validation. Never run this against real
	// validation.
	InsecureNoSignature bool
}

// Builder assembles one relayable operation at a time: current EntryPoint
// nonce, the execute() wrapper around the target call, and the configured
// gas and fee fields. Building is read-only; nothing is submitted.
type Builder struct {
	entryPoint EntryPointClient
	cfg        BuilderConfig
}

// NewBuilder wires an operation builder.
func NewBuilder(entryPoint EntryPointClient, cfg BuilderConfig) *Builder {
	return &Builder{entryPoint: entryPoint, cfg: cfg}
}

// Build produces a fully-populated operation for account to call target
// with callData. The nonce is fetched fresh from the EntryPoint on every
// build; a rebuilt operation after a confirmed submission therefore carries
// the next nonce automatically.
func (b *Builder) Build(ctx context.Context, account common.Address, signer OpSigner, target common.Address, callData []byte, value *big.Int) (chain.UserOperation, error) {
	if account == (common.Address{}) {
		return chain.UserOperation{}, newError(KindInvalidInput, "account address is required")
	}
	if target == (common.Address{}) {
		return chain.UserOperation{}, newError(KindInvalidInput, "target contract address is required")
	}
	if len(callData) == 0 {
		return chain.UserOperation{}, newError(KindInvalidInput, "encoded call data is required")
	}

	nonce, err := b.entryPoint.Nonce(ctx, account, big.NewInt(0))
	if err != nil {
		return chain.UserOperation{}, wrapError(KindChainRPCFailure, err, "fetch account nonce")
	}

	executeData, err := chain.ExecuteCallData(target, value, callData)
	if err != nil {
		return chain.UserOperation{}, wrapError(KindInvalidInput, err, "encode execute wrapper")
	}

	op := chain.UserOperation{
		Sender:               account,
		Nonce:                nonce,
		InitCode:             []byte{},
		CallData:             executeData,
		CallGasLimit:         new(big.Int).SetUint64(b.cfg.CallGasLimit),
		VerificationGasLimit: new(big.Int).SetUint64(b.cfg.VerificationGasLimit),
		PreVerificationGas:   new(big.Int).SetUint64(b.cfg.PreVerificationGas),
		MaxFeePerGas:         b.cfg.MaxFeePerGas,
		MaxPriorityFeePerGas: b.cfg.MaxPriorityFeePerGas,
		PaymasterAndData:     b.cfg.Paymaster.Bytes(),
		Signature:            []byte{},
	}

	if b.cfg.InsecureNoSignature {
		return op, nil
	}

	digest, err := op.Hash(b.entryPoint.Address(), b.cfg.ChainID)
	if err != nil {
		return chain.UserOperation{}, wrapError(KindInvalidInput, err, "hash operation")
	}
	sig, err := signer.SignHash(digest.Bytes())
	if err != nil {
		return chain.UserOperation{}, wrapError(KindInvalidInput, err, "sign operation")
	}
	op.Signature = sig
	return op, nil
}
