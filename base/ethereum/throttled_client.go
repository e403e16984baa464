package ethereum

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ThrottledClient caps the number of concurrent RPC calls toward one node.
// Excess callers block until a slot frees or their context is done.
type ThrottledClient struct {
	*ethclient.Client
	tokens chan struct{}
}

func NewThrottledClient(client *ethclient.Client, n int) *ThrottledClient {
	return &ThrottledClient{
		Client: client,
		tokens: make(chan struct{}, n),
	}
}

func (c *ThrottledClient) BlockNumber(ctx context.Context) (uint64, error) {
	if err := c.before(ctx); err != nil {
		return 0, err
	}
	defer c.after()
	return c.Client.BlockNumber(ctx)
}

func (c *ThrottledClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := c.before(ctx); err != nil {
		return nil, err
	}
	defer c.after()
	return c.Client.HeaderByNumber(ctx, number)
}

func (c *ThrottledClient) FilterLogs(ctx context.Context, filter ethereum.FilterQuery) ([]types.Log, error) {
	if err := c.before(ctx); err != nil {
		return nil, err
	}
	defer c.after()
	return c.Client.FilterLogs(ctx, filter)
}

func (c *ThrottledClient) SubscribeFilterLogs(ctx context.Context, filter ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	if err := c.before(ctx); err != nil {
		return nil, err
	}
	defer c.after()
	return c.Client.SubscribeFilterLogs(ctx, filter, ch)
}

func (c *ThrottledClient) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	if err := c.before(ctx); err != nil {
		return nil, err
	}
	defer c.after()
	return c.Client.SubscribeNewHead(ctx, ch)
}

func (c *ThrottledClient) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	if err := c.before(ctx); err != nil {
		return nil, false, err
	}
	defer c.after()
	return c.Client.TransactionByHash(ctx, hash)
}

func (c *ThrottledClient) before(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.tokens <- struct{}{}:
		return nil
	}
}

func (c *ThrottledClient) after() {
	<-c.tokens
}
