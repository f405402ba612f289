package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const receiptPollInterval = 500 * time.Millisecond

// TxSender owns one externally-owned account and submits every gas-paying
// transaction from it: account deployments, paymaster top-ups, handleOps
// bundles, token mints. All sends are serialized under a single mutex so
// concurrent callers sharing this signer cannot race on an identical nonce.
// The nonce itself is fetched fresh at latest state on every send, never
// cached across suspension points.
type TxSender struct {
	mu sync.Mutex

	key     *ecdsa.PrivateKey
	address common.Address
	backend Backend
	chainID *big.Int

	confirmTimeout time.Duration
	logger         *slog.Logger
}

// NewTxSender builds a sender from a hex-encoded private key.
func NewTxSender(hexKey string, backend Backend, chainID *big.Int, confirmTimeout time.Duration, logger *slog.Logger) (*TxSender, error) {
	if len(hexKey) >= 2 && hexKey[:2] == "0x" {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	return &TxSender{
		key:            key,
		address:        crypto.PubkeyToAddress(key.PublicKey),
		backend:        backend,
		chainID:        chainID,
		confirmTimeout: confirmTimeout,
		logger:         logger,
	}, nil
}

// Address returns the signer's externally-owned account address.
func (s *TxSender) Address() common.Address {
	return s.address
}

// Send signs and submits a transaction and waits for one confirmation,
// bounded by the configured confirmation timeout. The returned receipt may
// carry a failed status; interpreting it is the caller's concern.
func (s *TxSender) Send(ctx context.Context, to common.Address, value *big.Int, gasLimit uint64, data []byte) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, err := s.backend.NonceAt(ctx, s.address, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch signer nonce: %w", err)
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch gas price: %w", err)
	}

	if value == nil {
		value = big.NewInt(0)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	s.logger.Debug("transaction sent",
		"tx", signed.Hash().Hex(),
		"to", to.Hex(),
		"nonce", nonce,
	)

	return s.waitMined(ctx, signed.Hash())
}

// ErrConfirmationTimeout marks a transaction that was submitted but not
// mined within the confirmation window. It is not necessarily failed.
type ErrConfirmationTimeout struct {
	TxHash common.Hash
}

func (e ErrConfirmationTimeout) Error() string {
	return fmt.Sprintf("transaction %s not confirmed in time", e.TxHash.Hex())
}

func (s *TxSender) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(waitCtx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrConfirmationTimeout{TxHash: txHash}
		case <-ticker.C:
		}
	}
}

// RevertData extracts the raw revert payload carried by a JSON-RPC error,
// when the provider attached one.
func RevertData(err error) ([]byte, bool) {
	var de interface{ ErrorData() interface{} }
	if !asDataError(err, &de) {
		return nil, false
	}
	hexStr, ok := de.ErrorData().(string)
	if !ok {
		return nil, false
	}
	data, decodeErr := hexutil.Decode(hexStr)
	if decodeErr != nil {
		return nil, false
	}
	return data, true
}

func asDataError(err error, target *interface{ ErrorData() interface{} }) bool {
	for err != nil {
		if de, ok := err.(interface{ ErrorData() interface{} }); ok {
			*target = de
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
