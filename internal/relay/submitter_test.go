package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ballot-chain/ballot_chain/internal/chain"
	"github.com/ballot-chain/ballot_chain/internal/logging"
)

// dataError mimics the JSON-RPC error shape providers attach revert
// payloads to.
type dataError struct {
	msg  string
	data string
}

func (e dataError) Error() string          { return e.msg }
func (e dataError) ErrorData() interface{} { return e.data }

func failedOpPayload(t *testing.T, opIndex int64, reason string) []byte {
	t.Helper()
	uintType, err := abi.NewType("uint256", "", nil)
	if err != nil {
		t.Fatalf("new type: %v", err)
	}
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		t.Fatalf("new type: %v", err)
	}
	args := abi.Arguments{{Type: uintType}, {Type: stringType}}
	encoded, err := args.Pack(big.NewInt(opIndex), reason)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return append(crypto.Keccak256([]byte("FailedOp(uint256,string)"))[:4], encoded...)
}

func buildTestOp(t *testing.T, ep *fakeEntryPoint, account common.Address) chain.UserOperation {
	t.Helper()
	op, err := testBuilder(ep, true).Build(context.Background(), account, nil, electionAddr, []byte{0x01, 0x02, 0x03, 0x04}, nil)
	if err != nil {
		t.Fatalf("build op: %v", err)
	}
	return op
}

func TestSubmitConfirmsAndReportsEvents(t *testing.T) {
	ep := newFakeEntryPoint()
	account := common.HexToAddress("0xA1")
	accounts := newFakeAccounts()
	accounts.count[account] = 4

	var receipt *types.Receipt
	sender := newFakeSender(func(tx sentTx) (*types.Receipt, error) {
		if tx.To != entryPointAddr {
			t.Fatalf("bundle sent to %s, expected the EntryPoint", tx.To)
		}
		if !bytes.Equal(tx.Data[:4], handleOpsSelector) {
			t.Fatalf("expected handleOps call, got selector %x", tx.Data[:4])
		}
		// Confirmation advances the counter on-chain.
		accounts.mu.Lock()
		accounts.count[account]++
		accounts.mu.Unlock()
		receipt = successReceipt(120_000, []*types.Log{userOpEventLog()})
		return receipt, nil
	})

	sub := NewSubmitter(ep, accounts, sender, paymasterAddr, 3_000_000, logging.Discard())
	result, err := sub.Submit(context.Background(), buildTestOp(t, ep, account))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if !result.Success {
		t.Fatalf("confirmed operation must report success")
	}
	if result.AccountAddress != account {
		t.Fatalf("unexpected account %s", result.AccountAddress)
	}
	if result.TxHash != receipt.TxHash {
		t.Fatalf("unexpected tx hash %s", result.TxHash)
	}
	if result.GasUsed != 120_000 {
		t.Fatalf("unexpected gas used %d", result.GasUsed)
	}
	if len(result.Events) != 1 || result.Events[0] != "UserOperationEvent" {
		t.Fatalf("unexpected events %v", result.Events)
	}
	if result.PaymasterUsed != paymasterAddr {
		t.Fatalf("unexpected paymaster %s", result.PaymasterUsed)
	}
	if result.CountBefore == nil || result.CountBefore.Int64() != 4 {
		t.Fatalf("unexpected count before %v", result.CountBefore)
	}
	if result.CountAfter == nil || result.CountAfter.Int64() != 5 {
		t.Fatalf("unexpected count after %v", result.CountAfter)
	}
}

func TestSubmitDecodesFailedOp(t *testing.T) {
	ep := newFakeEntryPoint()
	payload := failedOpPayload(t, 0, "AA21 didn't pay prefund")
	sender := newFakeSender(func(sentTx) (*types.Receipt, error) {
		return nil, dataError{msg: "execution reverted", data: hexutil.Encode(payload)}
	})

	sub := NewSubmitter(ep, newFakeAccounts(), sender, paymasterAddr, 3_000_000, logging.Discard())
	_, err := sub.Submit(context.Background(), buildTestOp(t, ep, common.HexToAddress("0xA1")))
	if KindOf(err) != KindReverted {
		t.Fatalf("expected reverted kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "AA21 didn't pay prefund") {
		t.Fatalf("expected decoded reason in error, got %q", err)
	}
	var relayErr *Error
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected *relay.Error, got %T", err)
	}
	if !bytes.Equal(relayErr.Data, payload) {
		t.Fatalf("expected raw revert payload to be preserved")
	}
}

func TestSubmitPreservesForeignRevertData(t *testing.T) {
	ep := newFakeEntryPoint()
	foreign := []byte{0xde, 0xad, 0xbe, 0xef, 0x01}
	sender := newFakeSender(func(sentTx) (*types.Receipt, error) {
		return nil, dataError{msg: "execution reverted", data: hexutil.Encode(foreign)}
	})

	sub := NewSubmitter(ep, newFakeAccounts(), sender, paymasterAddr, 3_000_000, logging.Discard())
	_, err := sub.Submit(context.Background(), buildTestOp(t, ep, common.HexToAddress("0xA1")))
	if KindOf(err) != KindReverted {
		t.Fatalf("expected reverted kind, got %v", err)
	}
	var relayErr *Error
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected *relay.Error, got %T", err)
	}
	if relayErr.DataHex() != hexutil.Encode(foreign) {
		t.Fatalf("expected undecodable payload to pass through, got %s", relayErr.DataHex())
	}
}

func TestSubmitRevertedReceipt(t *testing.T) {
	ep := newFakeEntryPoint()
	sender := newFakeSender(func(sentTx) (*types.Receipt, error) {
		return &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: common.HexToHash("0xbad")}, nil
	})

	sub := NewSubmitter(ep, newFakeAccounts(), sender, paymasterAddr, 3_000_000, logging.Discard())
	_, err := sub.Submit(context.Background(), buildTestOp(t, ep, common.HexToAddress("0xA1")))
	if KindOf(err) != KindReverted {
		t.Fatalf("expected reverted kind, got %v", err)
	}
}

func TestSubmitClassifiesTimeout(t *testing.T) {
	ep := newFakeEntryPoint()
	sender := newFakeSender(func(sentTx) (*types.Receipt, error) {
		return nil, chain.ErrConfirmationTimeout{TxHash: common.HexToHash("0x1")}
	})

	sub := NewSubmitter(ep, newFakeAccounts(), sender, paymasterAddr, 3_000_000, logging.Discard())
	_, err := sub.Submit(context.Background(), buildTestOp(t, ep, common.HexToAddress("0xA1")))
	if KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout kind, got %v", err)
	}
}

func TestSubmitReportsUnknownCounts(t *testing.T) {
	ep := newFakeEntryPoint()
	accounts := newFakeAccounts()
	accounts.err = fmt.Errorf("no code at address")
	sender := newFakeSender(nil)

	sub := NewSubmitter(ep, accounts, sender, paymasterAddr, 3_000_000, logging.Discard())
	result, err := sub.Submit(context.Background(), buildTestOp(t, ep, common.HexToAddress("0xA1")))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.CountBefore != nil || result.CountAfter != nil {
		t.Fatalf("expected unknown counts, got %v and %v", result.CountBefore, result.CountAfter)
	}
}
