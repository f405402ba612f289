package relay

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ballot-chain/ballot_chain/internal/chain"
	"github.com/ballot-chain/ballot_chain/internal/identity"
	"github.com/ballot-chain/ballot_chain/internal/notification"
	"github.com/ballot-chain/ballot_chain/internal/registry"
)

// Service is the facade upstream callers use: every relayed action runs the
// same pipeline of encode, provision, fund, build, submit.
type Service struct {
	provisioner *Provisioner
	guard       *FundingGuard
	builder     *Builder
	submitter   *Submitter
	election    ElectionClient
	token       TokenClient
	notifier    notification.Notifier
	logger      *slog.Logger
}

// NewService wires the relay facade.
func NewService(provisioner *Provisioner, guard *FundingGuard, builder *Builder, submitter *Submitter, election ElectionClient, token TokenClient, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		provisioner: provisioner,
		guard:       guard,
		builder:     builder,
		submitter:   submitter,
		election:    election,
		token:       token,
		notifier:    notifier,
		logger:      logger,
	}
}

// EnsureAccount provisions (or returns) the smart account for email.
func (s *Service) EnsureAccount(ctx context.Context, email string) (registry.Record, error) {
	return s.provisioner.EnsureAccount(ctx, email)
}

// RelayVote casts a ballot for candidateEmail in electionID on behalf of
// the voter identified by email.
func (s *Service) RelayVote(ctx context.Context, email string, electionID uint64, candidateEmail string) (Result, error) {
	if strings.TrimSpace(candidateEmail) == "" {
		return Result{}, newError(KindInvalidInput, "candidate email is required")
	}

	callData, err := s.election.EncodeVote(new(big.Int).SetUint64(electionID), candidateEmail)
	if err != nil {
		return Result{}, wrapError(KindInvalidInput, err, "encode vote")
	}

	result, err := s.relay(ctx, email, callData)
	if err != nil {
		return Result{}, err
	}

	s.notify(ctx, notification.KindVoteCast, result.Email,
		fmt.Sprintf("vote recorded for election %d in tx %s", electionID, result.TxHash.Hex()))
	return result, nil
}

// RelayAddCandidate registers candidateEmail as a ballot entry in
// electionID on behalf of the account owner identified by email.
func (s *Service) RelayAddCandidate(ctx context.Context, email string, electionID uint64, candidateEmail string) (Result, error) {
	if strings.TrimSpace(candidateEmail) == "" {
		return Result{}, newError(KindInvalidInput, "candidate email is required")
	}

	callData, err := s.election.EncodeAddCandidate(new(big.Int).SetUint64(electionID), candidateEmail)
	if err != nil {
		return Result{}, wrapError(KindInvalidInput, err, "encode addCandidate")
	}

	result, err := s.relay(ctx, email, callData)
	if err != nil {
		return Result{}, err
	}

	s.notify(ctx, notification.KindCandidateAdded, candidateEmail,
		fmt.Sprintf("candidate registered for election %d in tx %s", electionID, result.TxHash.Hex()))
	return result, nil
}

// RelayCreateElection creates a new election on behalf of the account owner
// identified by email.
func (s *Service) RelayCreateElection(ctx context.Context, email, position string, regStart, regEnd, electionStart, electionEnd time.Time) (Result, error) {
	if strings.TrimSpace(position) == "" {
		return Result{}, newError(KindInvalidInput, "election position is required")
	}

	callData, err := s.election.EncodeCreateElection(
		position,
		big.NewInt(regStart.Unix()),
		big.NewInt(regEnd.Unix()),
		big.NewInt(electionStart.Unix()),
		big.NewInt(electionEnd.Unix()),
		s.token.Address(),
	)
	if err != nil {
		return Result{}, wrapError(KindInvalidInput, err, "encode createElection")
	}

	result, err := s.relay(ctx, email, callData)
	if err != nil {
		return Result{}, err
	}

	s.notify(ctx, notification.KindElectionCreated, result.Email,
		fmt.Sprintf("election %q created in tx %s", position, result.TxHash.Hex()))
	return result, nil
}

// relay runs the shared pipeline for one encoded election action.
func (s *Service) relay(ctx context.Context, email string, callData []byte) (Result, error) {
	id, err := identity.Derive(email)
	if err != nil {
		return Result{}, wrapError(KindInvalidInput, err, "derive identity")
	}

	record, err := s.provisioner.EnsureAccount(ctx, id.Email)
	if err != nil {
		return Result{}, err
	}

	if err := s.guard.EnsureFunded(ctx); err != nil {
		return Result{}, err
	}

	op, err := s.builder.Build(ctx, record.AccountAddress, id, s.election.Address(), callData, nil)
	if err != nil {
		return Result{}, err
	}

	result, err := s.submitter.Submit(ctx, op)
	if err != nil {
		return Result{}, err
	}

	result.Email = id.Email
	return result, nil
}

func (s *Service) notify(ctx context.Context, kind, destination, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: destination, Body: body}); err != nil {
		s.logger.Warn("notification failed", "kind", kind, "error", err)
	}
}

// Candidates lists candidate identifiers registered for an election.
func (s *Service) Candidates(ctx context.Context, electionID uint64) ([]string, error) {
	out, err := s.election.Candidates(ctx, new(big.Int).SetUint64(electionID))
	if err != nil {
		return nil, wrapError(KindChainRPCFailure, err, "read candidates")
	}
	return out, nil
}

// CandidateVotes returns the tally for one candidate.
func (s *Service) CandidateVotes(ctx context.Context, electionID uint64, candidateEmail string) (*big.Int, error) {
	if strings.TrimSpace(candidateEmail) == "" {
		return nil, newError(KindInvalidInput, "candidate email is required")
	}
	votes, err := s.election.CandidateVotes(ctx, new(big.Int).SetUint64(electionID), candidateEmail)
	if err != nil {
		return nil, wrapError(KindChainRPCFailure, err, "read candidate votes")
	}
	return votes, nil
}

// ElectionInfo returns the stored metadata for an election.
func (s *Service) ElectionInfo(ctx context.Context, electionID uint64) (chain.ElectionInfo, error) {
	info, err := s.election.Info(ctx, new(big.Int).SetUint64(electionID))
	if err != nil {
		return chain.ElectionInfo{}, wrapError(KindChainRPCFailure, err, "read election")
	}
	return info, nil
}

// VoterToken reports the voter token balance and authorized election for a
// deployed smart account.
func (s *Service) VoterToken(ctx context.Context, account common.Address) (balance, electionID *big.Int, err error) {
	balance, err = s.token.BalanceOf(ctx, account)
	if err != nil {
		return nil, nil, wrapError(KindChainRPCFailure, err, "read token balance")
	}
	electionID, err = s.token.VoterElectionID(ctx, account)
	if err != nil {
		return nil, nil, wrapError(KindChainRPCFailure, err, "read voter election id")
	}
	return balance, electionID, nil
}

// CurrentElectionID returns the election contract's running id counter.
func (s *Service) CurrentElectionID(ctx context.Context) (*big.Int, error) {
	counter, err := s.election.IDCounter(ctx)
	if err != nil {
		return nil, wrapError(KindChainRPCFailure, err, "read election counter")
	}
	return counter, nil
}
