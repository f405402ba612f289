package registry

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotFound indicates no account has been provisioned for the email.
	ErrNotFound = errors.New("account not found")

	// ErrImmutable indicates an attempt to overwrite an existing record.
	// Records are written exactly once per email.
	ErrImmutable = errors.New("account record is immutable")
)

// Record is the durable binding between a voter email and its deployed
// smart account. Created once by the provisioner, never updated.
type Record struct {
	Email            string         `json:"email"`
	OwnerAddress     common.Address `json:"ownerAddress"`
	AccountAddress   common.Address `json:"accountAddress"`
	DeployedAt       time.Time      `json:"deployedAt"`
	DeploymentTxHash common.Hash    `json:"deploymentTxHash"`
	GasUsed          uint64         `json:"gasUsed"`
}

// Registry is the single source of truth for which emails have been
// provisioned. Implementations must serialize writes.
type Registry interface {
	Get(ctx context.Context, email string) (Record, error)
	Put(ctx context.Context, record Record) error
}
