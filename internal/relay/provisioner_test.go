package relay

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ballot-chain/ballot_chain/internal/identity"
	"github.com/ballot-chain/ballot_chain/internal/logging"
	"github.com/ballot-chain/ballot_chain/internal/registry"
)

func TestEnsureAccountProvisionsOnce(t *testing.T) {
	reg := registry.NewMemoryRegistry()
	accountAddr := common.HexToAddress("0xA1")
	sender := newFakeSender(func(tx sentTx) (*types.Receipt, error) {
		return successReceipt(321_000, nil), nil
	})
	p := NewProvisioner(reg, newFakeFactory(accountAddr), newFakeToken(), newFakeElection(), sender, logging.Discard())
	ctx := context.Background()

	first, err := p.EnsureAccount(ctx, "voter1@example.org")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if first.AccountAddress != accountAddr {
		t.Fatalf("expected account %s, got %s", accountAddr, first.AccountAddress)
	}
	if first.GasUsed != 321_000 {
		t.Fatalf("expected recorded gas 321000, got %d", first.GasUsed)
	}

	second, err := p.EnsureAccount(ctx, "voter1@example.org")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second != first {
		t.Fatalf("expected identical record on repeat provisioning")
	}

	if deploys := sender.sentTo(factoryAddr); len(deploys) != 1 {
		t.Fatalf("expected exactly one deployment, got %d", len(deploys))
	}
}

func TestEnsureAccountNormalizesEmail(t *testing.T) {
	reg := registry.NewMemoryRegistry()
	p := NewProvisioner(reg, newFakeFactory(common.HexToAddress("0xA1")), newFakeToken(), newFakeElection(), newFakeSender(nil), logging.Discard())
	ctx := context.Background()

	first, err := p.EnsureAccount(ctx, "Voter1@Example.org ")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := p.EnsureAccount(ctx, "voter1@example.org")
	if err != nil {
		t.Fatalf("ensure variant: %v", err)
	}
	if first.AccountAddress != second.AccountAddress {
		t.Fatalf("email variants yielded different accounts")
	}
}

func TestEnsureAccountRequiresEmail(t *testing.T) {
	p := NewProvisioner(registry.NewMemoryRegistry(), newFakeFactory(common.Address{}), newFakeToken(), newFakeElection(), newFakeSender(nil), logging.Discard())

	_, err := p.EnsureAccount(context.Background(), "  ")
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEnsureAccountOwnerMismatchIsFatal(t *testing.T) {
	reg := registry.NewMemoryRegistry()
	id, err := identity.Derive("voter1@example.org")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	tampered := registry.Record{
		Email:          id.Email,
		OwnerAddress:   common.HexToAddress("0xBAD"),
		AccountAddress: common.HexToAddress("0xA1"),
	}
	if err := reg.Put(context.Background(), tampered); err != nil {
		t.Fatalf("seed registry: %v", err)
	}

	p := NewProvisioner(reg, newFakeFactory(common.HexToAddress("0xA1")), newFakeToken(), newFakeElection(), newFakeSender(nil), logging.Discard())
	_, err = p.EnsureAccount(context.Background(), "voter1@example.org")
	if KindOf(err) != KindOwnerMismatch {
		t.Fatalf("expected owner mismatch, got %v", err)
	}
}

func TestEnsureAccountFailedDeployPersistsNothing(t *testing.T) {
	reg := registry.NewMemoryRegistry()
	rpcDown := errors.New("connection refused")
	failing := newFakeSender(func(tx sentTx) (*types.Receipt, error) {
		return nil, rpcDown
	})
	p := NewProvisioner(reg, newFakeFactory(common.HexToAddress("0xA1")), newFakeToken(), newFakeElection(), failing, logging.Discard())
	ctx := context.Background()

	_, err := p.EnsureAccount(ctx, "voter1@example.org")
	if KindOf(err) != KindChainRPCFailure {
		t.Fatalf("expected chain rpc failure, got %v", err)
	}
	if _, err := reg.Get(ctx, "voter1@example.org"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected no record after failed deploy, got %v", err)
	}

	// The attempt is retryable once the chain recovers.
	p = NewProvisioner(reg, newFakeFactory(common.HexToAddress("0xA1")), newFakeToken(), newFakeElection(), newFakeSender(nil), logging.Discard())
	if _, err := p.EnsureAccount(ctx, "voter1@example.org"); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
}

func TestEnsureAccountRevertedDeploy(t *testing.T) {
	reverting := newFakeSender(func(tx sentTx) (*types.Receipt, error) {
		r := successReceipt(100_000, nil)
		r.Status = types.ReceiptStatusFailed
		return r, nil
	})
	p := NewProvisioner(registry.NewMemoryRegistry(), newFakeFactory(common.HexToAddress("0xA1")), newFakeToken(), newFakeElection(), reverting, logging.Discard())

	_, err := p.EnsureAccount(context.Background(), "voter1@example.org")
	if KindOf(err) != KindReverted {
		t.Fatalf("expected reverted, got %v", err)
	}
}

func TestEnsureAccountMintsVoterTokens(t *testing.T) {
	election := newFakeElection()
	election.counter = big.NewInt(3)
	sender := newFakeSender(nil)
	p := NewProvisioner(registry.NewMemoryRegistry(), newFakeFactory(common.HexToAddress("0xA1")), newFakeToken(), election, sender, logging.Discard())

	if _, err := p.EnsureAccount(context.Background(), "voter1@example.org"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if mints := sender.sentTo(tokenAddr); len(mints) != 1 {
		t.Fatalf("expected one token mint, got %d", len(mints))
	}
}

func TestEnsureAccountSkipsMintForFirstElection(t *testing.T) {
	sender := newFakeSender(nil)
	p := NewProvisioner(registry.NewMemoryRegistry(), newFakeFactory(common.HexToAddress("0xA1")), newFakeToken(), newFakeElection(), sender, logging.Discard())

	if _, err := p.EnsureAccount(context.Background(), "voter1@example.org"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if mints := sender.sentTo(tokenAddr); len(mints) != 0 {
		t.Fatalf("expected no token mint, got %d", len(mints))
	}
}
