package relay

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ballot-chain/ballot_chain/internal/chain"
)

var (
	entryPointAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	factoryAddr    = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	paymasterAddr  = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	tokenAddr      = common.HexToAddress("0x9A9f2CCfdE556A7E9Ff0848998Aa4a0CFD8863AE")
	electionAddr   = common.HexToAddress("0x59b670e9fA9D0A427751Af201D676719a970857b")
	relayAddr      = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

	userOpEventTopic = crypto.Keccak256Hash([]byte("UserOperationEvent(bytes32,address,address,uint256,bool,uint256,uint256)"))
)

// fakeEntryPoint keeps the real pure encode/decode behavior and fakes the
// stateful reads.
type fakeEntryPoint struct {
	*chain.EntryPoint

	mu      sync.Mutex
	nonces  map[common.Address]uint64
	deposit *big.Int
}

func newFakeEntryPoint() *fakeEntryPoint {
	return &fakeEntryPoint{
		EntryPoint: chain.NewEntryPoint(entryPointAddr, nil),
		nonces:     make(map[common.Address]uint64),
		deposit:    big.NewInt(0),
	}
}

func (f *fakeEntryPoint) Nonce(_ context.Context, sender common.Address, _ *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).SetUint64(f.nonces[sender]), nil
}

func (f *fakeEntryPoint) DepositOf(context.Context, common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.deposit), nil
}

func (f *fakeEntryPoint) bumpNonce(sender common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonces[sender]++
}

func (f *fakeEntryPoint) setDeposit(wei *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deposit = new(big.Int).Set(wei)
}

// fakeFactory predicts a fixed account address.
type fakeFactory struct {
	*chain.AccountFactory
	predicted common.Address
}

func newFakeFactory(predicted common.Address) *fakeFactory {
	return &fakeFactory{
		AccountFactory: chain.NewAccountFactory(factoryAddr, nil),
		predicted:      predicted,
	}
}

func (f *fakeFactory) PredictAccountAddress(context.Context) (common.Address, error) {
	return f.predicted, nil
}

// fakeElection keeps real encoding, fakes the views.
type fakeElection struct {
	*chain.Election
	counter    *big.Int
	candidates []string
	votes      map[string]*big.Int
}

func newFakeElection() *fakeElection {
	return &fakeElection{
		Election: chain.NewElection(electionAddr, nil),
		counter:  big.NewInt(1),
		votes:    make(map[string]*big.Int),
	}
}

func (f *fakeElection) Candidates(context.Context, *big.Int) ([]string, error) {
	return f.candidates, nil
}

func (f *fakeElection) CandidateVotes(_ context.Context, _ *big.Int, candidateID string) (*big.Int, error) {
	if v, ok := f.votes[candidateID]; ok {
		return v, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeElection) Info(_ context.Context, electionID *big.Int) (chain.ElectionInfo, error) {
	return chain.ElectionInfo{ElectionID: electionID, Position: "president"}, nil
}

func (f *fakeElection) IDCounter(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.counter), nil
}

// fakeToken keeps real encoding, fakes balance reads.
type fakeToken struct {
	*chain.Token
	balance    *big.Int
	electionID *big.Int
}

func newFakeToken() *fakeToken {
	return &fakeToken{Token: chain.NewToken(tokenAddr, nil), balance: big.NewInt(0), electionID: big.NewInt(0)}
}

func (f *fakeToken) BalanceOf(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeToken) VoterElectionID(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.electionID), nil
}

// fakeAccounts serves the optional count() reads.
type fakeAccounts struct {
	mu    sync.Mutex
	count map[common.Address]int64
	err   error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{count: make(map[common.Address]int64)}
}

func (f *fakeAccounts) Count(_ context.Context, account common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return big.NewInt(f.count[account]), nil
}

func (f *fakeAccounts) Owner(context.Context, common.Address) (common.Address, error) {
	return common.Address{}, nil
}

type sentTx struct {
	To       common.Address
	Value    *big.Int
	GasLimit uint64
	Data     []byte
}

// fakeSender records every send and delegates the outcome to a handler.
type fakeSender struct {
	mu     sync.Mutex
	sends  []sentTx
	handle func(tx sentTx) (*types.Receipt, error)
}

func newFakeSender(handle func(tx sentTx) (*types.Receipt, error)) *fakeSender {
	if handle == nil {
		handle = func(tx sentTx) (*types.Receipt, error) {
			return successReceipt(21_000, nil), nil
		}
	}
	return &fakeSender{handle: handle}
}

func (f *fakeSender) Address() common.Address {
	return relayAddr
}

func (f *fakeSender) Send(_ context.Context, to common.Address, value *big.Int, gasLimit uint64, data []byte) (*types.Receipt, error) {
	tx := sentTx{To: to, Value: value, GasLimit: gasLimit, Data: data}
	f.mu.Lock()
	f.sends = append(f.sends, tx)
	f.mu.Unlock()
	return f.handle(tx)
}

func (f *fakeSender) sentTo(to common.Address) []sentTx {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentTx
	for _, tx := range f.sends {
		if tx.To == to {
			out = append(out, tx)
		}
	}
	return out
}

var receiptCounter uint64

func successReceipt(gasUsed uint64, logs []*types.Log) *types.Receipt {
	receiptCounter++
	return &types.Receipt{
		Status:  types.ReceiptStatusSuccessful,
		GasUsed: gasUsed,
		TxHash:  common.BigToHash(new(big.Int).SetUint64(receiptCounter)),
		Logs:    logs,
	}
}

func userOpEventLog() *types.Log {
	return &types.Log{Topics: []common.Hash{userOpEventTopic}}
}
