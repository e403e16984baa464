package tracker

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/launch"
)

type fakeSub struct {
	errCh chan error
}

func newFakeSub() *fakeSub {
	return &fakeSub{errCh: make(chan error, 1)}
}

func (s *fakeSub) Unsubscribe() {}

func (s *fakeSub) Err() <-chan error {
	return s.errCh
}

type fakeEthClient struct {
	mu         sync.Mutex
	head       uint64
	logs       []types.Log
	filterErr  error
	subs       int
	lastLogCh  chan<- types.Log
	lastSub    *fakeSub
	subscribed chan struct{}
}

func newFakeEthClient(head uint64) *fakeEthClient {
	return &fakeEthClient{head: head, subscribed: make(chan struct{}, 16)}
}

func (c *fakeEthClient) BlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

func (c *fakeEthClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeEthClient) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filterErr != nil {
		return nil, c.filterErr
	}
	return c.logs, nil
}

func (c *fakeEthClient) SubscribeFilterLogs(_ context.Context, _ ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs++
	c.lastLogCh = ch
	c.lastSub = newFakeSub()
	c.subscribed <- struct{}{}
	return c.lastSub, nil
}

func (c *fakeEthClient) SubscribeNewHead(context.Context, chan<- *types.Header) (ethereum.Subscription, error) {
	return newFakeSub(), nil
}

func (c *fakeEthClient) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (c *fakeEthClient) subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs
}

type fakeHandler struct {
	mu       sync.Mutex
	calls    []types.Log
	failNext int
}

func (h *fakeHandler) GetFilterAddresses() []common.Address {
	return []common.Address{common.HexToAddress("0xE85A59c628F7d27878ACeB4bf3b35733630083a9")}
}

func (h *fakeHandler) GetFilterTopics() [][]common.Hash {
	return nil
}

func (h *fakeHandler) ProcessLog(_ bCtx.Ctx, l *types.Log) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, *l)
	if h.failNext > 0 {
		h.failNext--
		return errors.New("boom")
	}
	return nil
}

func (h *fakeHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func (h *fakeHandler) callBlocks() []uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	blocks := make([]uint64, 0, len(h.calls))
	for _, l := range h.calls {
		blocks = append(blocks, l.BlockNumber)
	}
	return blocks
}

type memCursorRepo struct {
	mu      sync.Mutex
	cur     *launch.Cursor
	puts    int
	failPut bool
}

func (r *memCursorRepo) Get(bCtx.Ctx) (*launch.Cursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur == nil {
		return nil, domain.ErrNotFound
	}
	c := *r.cur
	return &c, nil
}

func (r *memCursorRepo) Put(_ bCtx.Ctx, cur *launch.Cursor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPut {
		return errors.New("disk full")
	}
	c := *cur
	r.cur = &c
	r.puts++
	return nil
}

func (r *memCursorRepo) putCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts
}

func newTestTracker(client *fakeEthClient, handler *fakeHandler, repo *memCursorRepo, tweak func(*EventTrackerCfg)) *EventTracker {
	cfg := &EventTrackerCfg{
		WsClient:           client,
		RpcClient:          client,
		CurrentBlockGetter: client,
		CursorRepo:         repo,
		Handler:            handler,
		ErrorCh:            make(chan error, 16),
	}
	if tweak != nil {
		tweak(cfg)
	}
	return NewEventTracker(cfg)
}

func makeLog(blk uint64, tx string, idx uint) types.Log {
	return types.Log{
		BlockNumber: blk,
		TxHash:      common.HexToHash(tx),
		Index:       idx,
		Address:     common.HexToAddress("0xE85A59c628F7d27878ACeB4bf3b35733630083a9"),
	}
}

func TestHandleLogDedup(t *testing.T) {
	req := require.New(t)
	handler := &fakeHandler{}
	f := newTestTracker(newFakeEthClient(100), handler, &memCursorRepo{}, nil)
	ctx := bCtx.Background()

	l := makeLog(100, "0xaa", 3)
	req.True(f.handleLog(ctx, l))
	req.False(f.handleLog(ctx, l))
	f.inFlight.Wait()

	req.Equal(1, handler.callCount())
}

func TestHandleLogFailureIsRetryable(t *testing.T) {
	req := require.New(t)
	handler := &fakeHandler{failNext: 1}
	f := newTestTracker(newFakeEthClient(100), handler, &memCursorRepo{}, nil)
	ctx := bCtx.Background()

	l := makeLog(100, "0xbb", 0)
	req.True(f.handleLog(ctx, l))
	f.inFlight.Wait()

	// the failed log lost its dedup mark so it is not a duplicate anymore
	req.True(f.handleLog(ctx, l))
	f.inFlight.Wait()

	req.Equal(2, handler.callCount())
}

func TestHandleLogSkipsRemoved(t *testing.T) {
	req := require.New(t)
	handler := &fakeHandler{}
	f := newTestTracker(newFakeEthClient(100), handler, &memCursorRepo{}, nil)

	l := makeLog(100, "0xcc", 0)
	l.Removed = true
	req.False(f.handleLog(bCtx.Background(), l))
	f.inFlight.Wait()

	req.Equal(0, handler.callCount())
}

func TestBackfillTruncatesToNewest(t *testing.T) {
	req := require.New(t)
	client := newFakeEthClient(105)
	client.logs = []types.Log{
		makeLog(101, "0x01", 0),
		makeLog(102, "0x02", 0),
		makeLog(103, "0x03", 0),
		makeLog(104, "0x04", 0),
		makeLog(105, "0x05", 0),
	}
	handler := &fakeHandler{}
	f := newTestTracker(client, handler, &memCursorRepo{}, func(cfg *EventTrackerCfg) {
		cfg.BackfillMaxLogs = 2
	})
	f.cursor = 100

	req.NoError(f.backfill(bCtx.Background()))
	f.inFlight.Wait()

	req.ElementsMatch([]uint64{104, 105}, handler.callBlocks())
}

func TestLoadCursorSeedsToHead(t *testing.T) {
	req := require.New(t)
	repo := &memCursorRepo{}
	f := newTestTracker(newFakeEthClient(12345), &fakeHandler{}, repo, nil)

	req.NoError(f.loadCursor(bCtx.Background()))

	req.Equal(domain.BlockNumber(12345), f.cursor)
	cur, err := repo.Get(bCtx.Background())
	req.NoError(err)
	req.Equal(domain.BlockNumber(12345), cur.LastSeenBlock)
}

func TestLoadCursorResumes(t *testing.T) {
	req := require.New(t)
	repo := &memCursorRepo{cur: &launch.Cursor{LastSeenBlock: 777, UpdatedAt: time.Now()}}
	f := newTestTracker(newFakeEthClient(12345), &fakeHandler{}, repo, nil)

	req.NoError(f.loadCursor(bCtx.Background()))

	req.Equal(domain.BlockNumber(777), f.cursor)
	req.Equal(0, repo.putCount())
}

func TestFlushCursorOnlyWhenDirty(t *testing.T) {
	req := require.New(t)
	repo := &memCursorRepo{}
	f := newTestTracker(newFakeEthClient(100), &fakeHandler{}, repo, nil)
	ctx := bCtx.Background()

	f.flushCursor(ctx)
	req.Equal(0, repo.putCount())

	f.handleLog(ctx, makeLog(100, "0xdd", 0))
	f.inFlight.Wait()
	f.flushCursor(ctx)
	req.Equal(1, repo.putCount())

	f.flushCursor(ctx)
	req.Equal(1, repo.putCount())
}

func TestFlushCursorStaysDirtyOnFailure(t *testing.T) {
	req := require.New(t)
	repo := &memCursorRepo{failPut: true}
	f := newTestTracker(newFakeEthClient(100), &fakeHandler{}, repo, nil)
	ctx := bCtx.Background()

	f.handleLog(ctx, makeLog(100, "0xee", 0))
	f.inFlight.Wait()
	f.flushCursor(ctx)
	req.Equal(0, repo.putCount())

	repo.mu.Lock()
	repo.failPut = false
	repo.mu.Unlock()
	f.flushCursor(ctx)
	req.Equal(1, repo.putCount())
}

func TestStartStopLifecycle(t *testing.T) {
	req := require.New(t)
	client := newFakeEthClient(100)
	handler := &fakeHandler{}
	repo := &memCursorRepo{cur: &launch.Cursor{LastSeenBlock: 100, UpdatedAt: time.Now()}}
	f := newTestTracker(client, handler, repo, nil)
	ctx := bCtx.Background()

	f.Start(ctx)
	select {
	case <-client.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never subscribed")
	}
	req.Equal(StateSubscribed, f.State())

	client.mu.Lock()
	ch := client.lastLogCh
	client.mu.Unlock()
	ch <- makeLog(101, "0xff", 0)

	req.Eventually(func() bool { return handler.callCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.Stop(ctx)
	req.Equal(StateStopped, f.State())

	cur, err := repo.Get(ctx)
	req.NoError(err)
	req.Equal(domain.BlockNumber(101), cur.LastSeenBlock)
}

func TestTransportErrorTriggersResubscribe(t *testing.T) {
	req := require.New(t)
	client := newFakeEthClient(100)
	repo := &memCursorRepo{cur: &launch.Cursor{LastSeenBlock: 100, UpdatedAt: time.Now()}}
	f := newTestTracker(client, &fakeHandler{}, repo, nil)
	ctx := bCtx.Background()

	f.Start(ctx)
	select {
	case <-client.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never subscribed")
	}

	client.mu.Lock()
	sub := client.lastSub
	client.mu.Unlock()
	sub.errCh <- errors.New("websocket closed")

	select {
	case <-client.subscribed:
	case <-time.After(3 * time.Second):
		t.Fatal("tracker never resubscribed")
	}
	req.Equal(2, client.subscriptions())

	f.Stop(ctx)
	req.Equal(StateStopped, f.State())
}
