package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ElectionInfo mirrors the Election contract's getElection tuple.
type ElectionInfo struct {
	ElectionID    *big.Int
	Position      string
	RegStart      *big.Int
	RegEnd        *big.Int
	ElectionStart *big.Int
	ElectionEnd   *big.Int
	Token         common.Address
	Winner        string
}

// Election binds the on-chain election contract. The encode methods are the
// pure call-data producers the relay embeds inside user operations; the
// read methods are plain view passthroughs.
type Election struct {
	address common.Address
	backend Backend
}

// NewElection binds the election contract at address.
func NewElection(address common.Address, backend Backend) *Election {
	return &Election{address: address, backend: backend}
}

// Address returns the bound contract address.
func (e *Election) Address() common.Address {
	return e.address
}

// EncodeVote encodes vote(electionId, candidateId). Candidate identifiers
// are opaque strings; existence and double-vote checks happen on-chain.
func (e *Election) EncodeVote(electionID *big.Int, candidateID string) ([]byte, error) {
	return electionABI.Pack("vote", electionID, candidateID)
}

// EncodeAddCandidate encodes addCandidate(electionId, email).
func (e *Election) EncodeAddCandidate(electionID *big.Int, candidateEmail string) ([]byte, error) {
	return electionABI.Pack("addCandidate", electionID, candidateEmail)
}

// EncodeCreateElection encodes createElection(position, regStart, regEnd,
// electionStart, electionEnd, token).
func (e *Election) EncodeCreateElection(position string, regStart, regEnd, electionStart, electionEnd *big.Int, token common.Address) ([]byte, error) {
	return electionABI.Pack("createElection", position, regStart, regEnd, electionStart, electionEnd, token)
}

// Candidates lists candidate identifiers registered for an election.
func (e *Election) Candidates(ctx context.Context, electionID *big.Int) ([]string, error) {
	out, err := callView(ctx, e.backend, e.address, electionABI, "getCandidates", electionID)
	if err != nil {
		return nil, err
	}
	return out[0].([]string), nil
}

// CandidateVotes returns the tally for one candidate.
func (e *Election) CandidateVotes(ctx context.Context, electionID *big.Int, candidateID string) (*big.Int, error) {
	out, err := callView(ctx, e.backend, e.address, electionABI, "getCandidateVotes", electionID, candidateID)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Info returns the stored metadata for an election.
func (e *Election) Info(ctx context.Context, electionID *big.Int) (ElectionInfo, error) {
	out, err := callView(ctx, e.backend, e.address, electionABI, "getElection", electionID)
	if err != nil {
		return ElectionInfo{}, err
	}
	return ElectionInfo{
		ElectionID:    out[0].(*big.Int),
		Position:      out[1].(string),
		RegStart:      out[2].(*big.Int),
		RegEnd:        out[3].(*big.Int),
		ElectionStart: out[4].(*big.Int),
		ElectionEnd:   out[5].(*big.Int),
		Token:         out[6].(common.Address),
		Winner:        out[7].(string),
	}, nil
}

// IDCounter returns the contract's running election id counter.
func (e *Election) IDCounter(ctx context.Context) (*big.Int, error) {
	out, err := callView(ctx, e.backend, e.address, electionABI, "getelectionIdCounter")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}
