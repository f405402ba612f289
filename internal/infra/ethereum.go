package infra

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// NewEthereumClient dials the JSON-RPC endpoint and verifies it answers by
// fetching the chain id.
func NewEthereumClient(ctx context.Context, url string) (*ethclient.Client, *big.Int, error) {
	if url == "" {
		return nil, nil, fmt.Errorf("rpc url is required")
	}

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial ethereum rpc: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("fetch chain id: %w", err)
	}

	return client, chainID, nil
}
