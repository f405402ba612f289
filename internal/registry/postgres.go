package registry

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ballot-chain/ballot_chain/internal/identity"
)

// PostgresRegistry implements Registry using PostgreSQL.
type PostgresRegistry struct {
	db *pgxpool.Pool
}

// NewPostgresRegistry builds a Postgres-backed account registry.
func NewPostgresRegistry(db *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

// EnsureSchema creates the accounts table when it does not exist yet.
func (r *PostgresRegistry) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS smart_accounts (
            email TEXT PRIMARY KEY,
            owner_address TEXT NOT NULL,
            account_address TEXT NOT NULL,
            deployment_tx_hash TEXT NOT NULL,
            gas_used BIGINT NOT NULL,
            deployed_at TIMESTAMPTZ NOT NULL
        )`)
	return err
}

// Get fetches the record for an email.
func (r *PostgresRegistry) Get(ctx context.Context, email string) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT email, owner_address, account_address, deployment_tx_hash, gas_used, deployed_at
        FROM smart_accounts WHERE email = $1`, identity.Normalize(email))

	var (
		record     Record
		owner      string
		account    string
		txHash     string
		deployedAt time.Time
	)
	if err := row.Scan(&record.Email, &owner, &account, &txHash, &record.GasUsed, &deployedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	record.OwnerAddress = common.HexToAddress(owner)
	record.AccountAddress = common.HexToAddress(account)
	record.DeploymentTxHash = common.HexToHash(txHash)
	record.DeployedAt = deployedAt.UTC()
	return record, nil
}

// Put inserts a new record; an existing email is never overwritten.
func (r *PostgresRegistry) Put(ctx context.Context, record Record) error {
	cmd, err := r.db.Exec(ctx, `INSERT INTO smart_accounts (email, owner_address, account_address, deployment_tx_hash, gas_used, deployed_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (email) DO NOTHING`,
		identity.Normalize(record.Email),
		record.OwnerAddress.Hex(),
		record.AccountAddress.Hex(),
		record.DeploymentTxHash.Hex(),
		record.GasUsed,
		record.DeployedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImmutable
	}
	return nil
}
