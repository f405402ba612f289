package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token binds the voter-token contract used to authorize ballots.
type Token struct {
	address common.Address
	backend Backend
}

// NewToken binds the token contract at address.
func NewToken(address common.Address, backend Backend) *Token {
	return &Token{address: address, backend: backend}
}

// Address returns the bound contract address.
func (t *Token) Address() common.Address {
	return t.address
}

// MintAuthorizedVotersCallData encodes mintAuthorizedVoters(voter, electionId).
func (t *Token) MintAuthorizedVotersCallData(voter common.Address, electionID *big.Int) ([]byte, error) {
	return tokenABI.Pack("mintAuthorizedVoters", voter, electionID)
}

// BalanceOf returns the voter-token balance of an account.
func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := callView(ctx, t.backend, t.address, tokenABI, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// VoterElectionID returns the election a voter's tokens were minted for.
func (t *Token) VoterElectionID(ctx context.Context, voter common.Address) (*big.Int, error) {
	out, err := callView(ctx, t.backend, t.address, tokenABI, "voterElectionId", voter)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}
