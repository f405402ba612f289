package relay

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ballot-chain/ballot_chain/internal/identity"
	"github.com/ballot-chain/ballot_chain/internal/registry"
)

const (
	deployGasLimit = 1_000_000
	mintGasLimit   = 200_000
)

// Provisioner deploys one smart account per voter email and records the
// binding. Provisioning is idempotent: a second request for the same email
// returns the stored record without touching the chain.
type Provisioner struct {
	mu sync.Mutex

	registry registry.Registry
	factory  FactoryClient
	token    TokenClient
	election ElectionClient
	sender   Sender
	logger   *slog.Logger

	now func() time.Time
}

// NewProvisioner wires an account provisioner.
func NewProvisioner(reg registry.Registry, factory FactoryClient, token TokenClient, election ElectionClient, sender Sender, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		registry: reg,
		factory:  factory,
		token:    token,
		election: election,
		sender:   sender,
		logger:   logger,
		now:      time.Now,
	}
}

// EnsureAccount returns the account record for email, deploying a fresh
// smart account on first use. The whole derive-check-deploy-persist cycle
// runs under one lock so two concurrent requests for the same email cannot
// both deploy.
func (p *Provisioner) EnsureAccount(ctx context.Context, email string) (registry.Record, error) {
	id, err := identity.Derive(email)
	if err != nil {
		return registry.Record{}, wrapError(KindInvalidInput, err, "derive identity")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.registry.Get(ctx, id.Email)
	switch {
	case err == nil:
		if existing.OwnerAddress != id.OwnerAddress {
			return registry.Record{}, newError(KindOwnerMismatch,
				"stored owner %s does not match derived owner %s for %s",
				existing.OwnerAddress, id.OwnerAddress, id.Email)
		}
		return existing, nil
	case errors.Is(err, registry.ErrNotFound):
		// first use, fall through to deployment
	default:
		return registry.Record{}, wrapError(KindRegistryUnavailable, err, "read registry")
	}

	record, err := p.deploy(ctx, id)
	if err != nil {
		return registry.Record{}, err
	}

	// Persist only after confirmation so a failed attempt leaves nothing
	// behind and stays safely retryable.
	if err := p.registry.Put(ctx, record); err != nil {
		return registry.Record{}, wrapError(KindRegistryUnavailable, err, "persist account record")
	}

	p.logger.Info("smart account provisioned",
		"email", record.Email,
		"account", record.AccountAddress.Hex(),
		"owner", record.OwnerAddress.Hex(),
		"tx", record.DeploymentTxHash.Hex(),
		"gasUsed", record.GasUsed,
	)

	p.mintVoterTokens(ctx, record)

	return record, nil
}

func (p *Provisioner) deploy(ctx context.Context, id identity.Identity) (registry.Record, error) {
	predicted, err := p.factory.PredictAccountAddress(ctx)
	if err != nil {
		return registry.Record{}, wrapError(KindChainRPCFailure, err, "predict account address")
	}

	callData, err := p.factory.CreateAccountCallData(id.OwnerAddress)
	if err != nil {
		return registry.Record{}, wrapError(KindInvalidInput, err, "encode createAccount")
	}

	receipt, err := p.sender.Send(ctx, p.factory.Address(), nil, deployGasLimit, callData)
	if err != nil {
		return registry.Record{}, classifySendError(err, "deploy account")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return registry.Record{}, newError(KindReverted, "account deployment reverted in tx %s", receipt.TxHash.Hex())
	}

	return registry.Record{
		Email:            id.Email,
		OwnerAddress:     id.OwnerAddress,
		AccountAddress:   predicted,
		DeployedAt:       p.now().UTC(),
		DeploymentTxHash: receipt.TxHash,
		GasUsed:          receipt.GasUsed,
	}, nil
}

// mintVoterTokens authorizes the fresh account for the most recent election.
// The account record is already committed at this point; mint problems are
// logged, not propagated.
func (p *Provisioner) mintVoterTokens(ctx context.Context, record registry.Record) {
	counter, err := p.election.IDCounter(ctx)
	if err != nil {
		p.logger.Warn("skipping voter token mint, election counter unavailable", "error", err)
		return
	}
	if counter.Cmp(big.NewInt(1)) <= 0 {
		return
	}

	electionID := new(big.Int).Sub(counter, big.NewInt(1))
	callData, err := p.token.MintAuthorizedVotersCallData(record.AccountAddress, electionID)
	if err != nil {
		p.logger.Warn("skipping voter token mint, encode failed", "error", err)
		return
	}

	receipt, err := p.sender.Send(ctx, p.token.Address(), nil, mintGasLimit, callData)
	if err != nil {
		p.logger.Warn("voter token mint failed", "account", record.AccountAddress.Hex(), "error", err)
		return
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		p.logger.Warn("voter token mint reverted", "account", record.AccountAddress.Hex(), "tx", receipt.TxHash.Hex())
		return
	}

	if balance, err := p.token.BalanceOf(ctx, record.AccountAddress); err == nil {
		p.logger.Info("voter tokens minted",
			"account", record.AccountAddress.Hex(),
			"election", electionID,
			"balance", balance,
		)
	}
}
