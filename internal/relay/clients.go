package relay

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ballot-chain/ballot_chain/internal/chain"
)

// The relay depends on narrow views of the chain bindings so tests can
// substitute fakes; the concrete implementations live in internal/chain.

// EntryPointClient is the relay's view of the EntryPoint contract.
type EntryPointClient interface {
	Address() common.Address
	Nonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error)
	DepositOf(ctx context.Context, account common.Address) (*big.Int, error)
	DepositToCallData(account common.Address) ([]byte, error)
	HandleOpsCallData(ops []chain.UserOperation, beneficiary common.Address) ([]byte, error)
	EventNames(logs []*types.Log) []string
	DecodeFailedOp(revertData []byte) (*big.Int, string, bool)
}

// FactoryClient deploys smart accounts and predicts their addresses.
type FactoryClient interface {
	Address() common.Address
	CreateAccountCallData(owner common.Address) ([]byte, error)
	PredictAccountAddress(ctx context.Context) (common.Address, error)
}

// ElectionClient encodes election actions and reads election state.
type ElectionClient interface {
	Address() common.Address
	EncodeVote(electionID *big.Int, candidateID string) ([]byte, error)
	EncodeAddCandidate(electionID *big.Int, candidateEmail string) ([]byte, error)
	EncodeCreateElection(position string, regStart, regEnd, electionStart, electionEnd *big.Int, token common.Address) ([]byte, error)
	Candidates(ctx context.Context, electionID *big.Int) ([]string, error)
	CandidateVotes(ctx context.Context, electionID *big.Int, candidateID string) (*big.Int, error)
	Info(ctx context.Context, electionID *big.Int) (chain.ElectionInfo, error)
	IDCounter(ctx context.Context) (*big.Int, error)
}

// TokenClient mints and reads voter tokens.
type TokenClient interface {
	Address() common.Address
	MintAuthorizedVotersCallData(voter common.Address, electionID *big.Int) ([]byte, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	VoterElectionID(ctx context.Context, voter common.Address) (*big.Int, error)
}

// AccountClient reads deployed smart account state.
type AccountClient interface {
	Count(ctx context.Context, account common.Address) (*big.Int, error)
	Owner(ctx context.Context, account common.Address) (common.Address, error)
}

// Sender submits gas-paying transactions from the relay's own funded key.
// Implementations serialize sends so callers sharing the signer never race
// on its nonce.
type Sender interface {
	Address() common.Address
	Send(ctx context.Context, to common.Address, value *big.Int, gasLimit uint64, data []byte) (*types.Receipt, error)
}
