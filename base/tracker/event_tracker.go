package tracker

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/viney-shih/goroutines"

	"github.com/basewatch/goapi/base/backoff"
	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/goroutine"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/base/lru"
	"github.com/basewatch/goapi/base/metrics"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/launch"
)

var metOnce sync.Once
var met metrics.Service

const FilterTimeout = 30 * time.Second

type CurrentBlockProvider interface {
	BlockNumber(context.Context) (uint64, error)
}

// EventHandler decodes and reacts to a single factory log. Errors are
// isolated per log; a failed log has its dedup mark removed so a later
// backfill or resubscribe pass can retry it.
type EventHandler interface {
	GetFilterAddresses() []common.Address
	GetFilterTopics() [][]common.Hash
	ProcessLog(bCtx.Ctx, *types.Log) error
}

// State is the managed subscription lifecycle.
type State string

const (
	StateSubscribed    State = "subscribed"
	StateResubscribing State = "resubscribing"
	StateStopped       State = "stopped"
)

type EventTrackerCfg struct {
	WsClient           domain.EthClientRepo
	RpcClient          domain.EthClientRepo
	CurrentBlockGetter CurrentBlockProvider
	CursorRepo         launch.CursorRepo
	Handler            EventHandler
	ErrorCh            chan<- error

	DedupTtl            time.Duration
	DedupCapacity       int
	CursorFlushInterval time.Duration
	BackfillBlocks      uint64
	BackfillMaxLogs     int
	HandlerConcurrency  int
	EventStaleness      time.Duration
	HealthCheckInterval time.Duration
	ResubscribeCooldown time.Duration
	MaxTransportErrors  int
}

// EventTracker owns the factory log subscription: dedup, cursor advance and
// periodic flush, startup backfill, bounded handler dispatch, and health
// driven resubscribes.
type EventTracker struct {
	wsClient           domain.EthClientRepo
	rpcClient          domain.EthClientRepo
	currentBlockGetter CurrentBlockProvider
	cursorRepo         launch.CursorRepo
	handler            EventHandler
	errorCh            chan<- error
	cfg                EventTrackerCfg
	filter             ethereum.FilterQuery

	dedup    *lru.Cache
	pool     *goroutines.Pool
	inFlight sync.WaitGroup

	mu              sync.Mutex
	state           State
	cursor          domain.BlockNumber
	cursorDirty     bool
	lastEventAt     time.Time
	lastHead        uint64
	lastHeadAdvance time.Time
	lastResubscribe time.Time
	transportErrs   int

	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan interface{}

	nowFn func() time.Time
}

func NewEventTracker(cfg *EventTrackerCfg) *EventTracker {
	metOnce.Do(func() {
		met = metrics.New("tracker")
	})

	if cfg.DedupTtl == 0 {
		cfg.DedupTtl = 30 * time.Minute
	}
	if cfg.DedupCapacity == 0 {
		cfg.DedupCapacity = 8192
	}
	if cfg.CursorFlushInterval == 0 {
		cfg.CursorFlushInterval = 5 * time.Second
	}
	if cfg.BackfillBlocks == 0 {
		cfg.BackfillBlocks = 50
	}
	if cfg.BackfillMaxLogs == 0 {
		cfg.BackfillMaxLogs = 200
	}
	if cfg.HandlerConcurrency == 0 {
		cfg.HandlerConcurrency = 4
	}
	if cfg.EventStaleness == 0 {
		cfg.EventStaleness = 10 * time.Minute
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
	if cfg.ResubscribeCooldown == 0 {
		cfg.ResubscribeCooldown = 5 * time.Minute
	}
	if cfg.MaxTransportErrors == 0 {
		cfg.MaxTransportErrors = 5
	}

	now := time.Now()
	return &EventTracker{
		wsClient:           cfg.WsClient,
		rpcClient:          cfg.RpcClient,
		currentBlockGetter: cfg.CurrentBlockGetter,
		cursorRepo:         cfg.CursorRepo,
		handler:            cfg.Handler,
		errorCh:            cfg.ErrorCh,
		cfg:                *cfg,
		filter: ethereum.FilterQuery{
			Addresses: cfg.Handler.GetFilterAddresses(),
			Topics:    cfg.Handler.GetFilterTopics(),
		},
		dedup:           lru.New(cfg.DedupCapacity, cfg.DedupTtl),
		pool:            goroutines.NewPool(cfg.HandlerConcurrency, goroutines.WithTaskQueueLength(1024)),
		state:           StateResubscribing,
		lastEventAt:     now,
		lastHeadAdvance: now,
		stopCh:          make(chan struct{}),
		stoppedCh:       make(chan interface{}),
		nowFn:           time.Now,
	}
}

func (f *EventTracker) Start(ctx bCtx.Ctx) {
	goroutine.RecoverableGo(func() {
		defer close(f.stoppedCh)
		if err := f.loop(ctx); err != nil {
			f.errorCh <- err
		}
	})
}

func (f *EventTracker) Wait() {
	<-f.stoppedCh
}

// Stop halts the loop, waits for in-flight handlers, and flushes the cursor.
func (f *EventTracker) Stop(ctx bCtx.Ctx) {
	f.stopOnce.Do(func() { close(f.stopCh) })
	<-f.stoppedCh
	f.inFlight.Wait()
	f.pool.Release()
	f.flushCursor(ctx)
}

func (f *EventTracker) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *EventTracker) loop(ctx bCtx.Ctx) error {
	if err := f.loadCursor(ctx); err != nil {
		ctx.WithField("err", err).Error("load cursor failed")
		return err
	}

	if err := f.backfill(ctx); err != nil {
		// best effort; dedup makes a later retry of the same range safe
		ctx.WithField("err", err).Warn("startup backfill failed")
	}

	flushTicker := time.NewTicker(f.cfg.CursorFlushInterval)
	defer flushTicker.Stop()
	healthTicker := time.NewTicker(f.cfg.HealthCheckInterval)
	defer healthTicker.Stop()

	subscribeBackoff := backoff.NewExponential(time.Second, time.Minute)
	for {
		select {
		case <-f.stopCh:
			f.setState(ctx, StateStopped)
			return nil
		default:
		}

		ch := make(chan types.Log, 1024)
		// from/to blocks must be absent on a live subscription
		liveFilter := ethereum.FilterQuery{
			Addresses: f.filter.Addresses,
			Topics:    f.filter.Topics,
		}
		sub, err := f.wsClient.SubscribeFilterLogs(ctx, liveFilter, ch)
		if err != nil {
			ctx.WithField("err", err).Error("client.SubscribeFilterLogs failed")
			f.setState(ctx, StateResubscribing)
			if err := subscribeBackoff.Backoff(ctx); err != nil {
				return err
			}
			continue
		}
		subscribeBackoff.Reset()
		f.setState(ctx, StateSubscribed)

		resubscribe := f.consume(ctx, sub, ch, flushTicker, healthTicker)
		sub.Unsubscribe()
		f.flushCursor(ctx)

		if !resubscribe {
			f.setState(ctx, StateStopped)
			return nil
		}
		f.setState(ctx, StateResubscribing)

		pause := time.Second
		f.mu.Lock()
		f.lastResubscribe = f.nowFn()
		if f.transportErrs >= f.cfg.MaxTransportErrors {
			ctx.WithField("consecutive", f.transportErrs).Warn("transport error threshold reached, cold resubscribe")
			met.BumpSum("resubscribe.forced", 1)
			f.transportErrs = 0
			pause = 5 * time.Second
		}
		f.mu.Unlock()

		select {
		case <-time.After(pause):
		case <-f.stopCh:
			f.setState(ctx, StateStopped)
			return nil
		}
	}
}

// consume pumps one subscription until it dies or health demands a
// resubscribe. Returns false when the tracker should stop instead.
func (f *EventTracker) consume(ctx bCtx.Ctx, sub ethereum.Subscription, ch <-chan types.Log, flushTicker, healthTicker *time.Ticker) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-f.stopCh:
			return false
		case l := <-ch:
			f.handleLog(ctx, l)
		case err := <-sub.Err():
			f.mu.Lock()
			f.transportErrs++
			n := f.transportErrs
			f.mu.Unlock()
			ctx.WithFields(log.Fields{
				"err":         err,
				"consecutive": n,
			}).Error("subscription transport error")
			met.BumpSum("transport.err", 1)
			return true
		case <-flushTicker.C:
			f.flushCursor(ctx)
		case <-healthTicker.C:
			if f.checkHealth(ctx) {
				return true
			}
		}
	}
}

// handleLog marks the log seen, advances the cursor, and dispatches the
// handler on the bounded pool. Returns whether the log was new.
func (f *EventTracker) handleLog(ctx bCtx.Ctx, l types.Log) bool {
	if l.Removed {
		// reorg notification for a log we may have acted on already
		ctx.WithFields(log.Fields{
			"block":  l.BlockNumber,
			"txHash": l.TxHash.Hex(),
		}).Warn("log removed by reorg")
		return false
	}

	key := string(dedupKey(&l))

	f.mu.Lock()
	if f.dedup.Has(key) {
		f.mu.Unlock()
		met.BumpSum("dedup.hit", 1)
		return false
	}
	f.dedup.Set(key, struct{}{})
	if domain.BlockNumber(l.BlockNumber) > f.cursor {
		f.cursor = domain.BlockNumber(l.BlockNumber)
		f.cursorDirty = true
	}
	f.lastEventAt = f.nowFn()
	f.transportErrs = 0
	f.mu.Unlock()

	met.BumpSum("log.received", 1)
	theLog := l
	f.inFlight.Add(1)
	if err := f.pool.Schedule(func() {
		defer f.inFlight.Done()
		if err := f.handler.ProcessLog(ctx, &theLog); err != nil {
			ctx.WithFields(log.Fields{
				"err":    err,
				"block":  theLog.BlockNumber,
				"txHash": theLog.TxHash.Hex(),
			}).Error("handler.ProcessLog failed")
			met.BumpSum("handler.err", 1)
			// unmark so a future backfill or resubscribe retries it
			f.mu.Lock()
			f.dedup.Delete(key)
			f.mu.Unlock()
		}
	}); err != nil {
		f.inFlight.Done()
		f.mu.Lock()
		f.dedup.Delete(key)
		f.mu.Unlock()
		ctx.WithField("err", err).Error("schedule handler failed")
		return false
	}
	return true
}

func (f *EventTracker) loadCursor(ctx bCtx.Ctx) error {
	cur, err := f.cursorRepo.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		head, err := f.currentBlockGetter.BlockNumber(ctx)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.cursor = domain.BlockNumber(head)
		f.cursorDirty = true
		f.mu.Unlock()
		f.flushCursor(ctx)
		ctx.WithField("head", head).Info("no cursor found, seeded to chain head")
		return nil
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.cursor = cur.LastSeenBlock
	f.mu.Unlock()
	ctx.WithField("cursor", cur.LastSeenBlock).Info("cursor loaded")
	return nil
}

// backfill runs one bounded historical query behind the cursor to catch logs
// missed during downtime, truncating to the newest BackfillMaxLogs.
func (f *EventTracker) backfill(ctx bCtx.Ctx) error {
	head, err := f.currentBlockGetter.BlockNumber(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	from := uint64(f.cursor)
	f.mu.Unlock()
	if from > f.cfg.BackfillBlocks {
		from -= f.cfg.BackfillBlocks
	} else {
		from = 0
	}

	q := f.filter
	q.FromBlock = new(big.Int).SetUint64(from)
	q.ToBlock = new(big.Int).SetUint64(head)
	tCtx, cancel := bCtx.WithTimeout(ctx, FilterTimeout)
	logs, err := f.rpcClient.FilterLogs(tCtx, q)
	cancel()
	if err != nil {
		return err
	}

	if len(logs) > f.cfg.BackfillMaxLogs {
		ctx.WithFields(log.Fields{
			"total": len(logs),
			"kept":  f.cfg.BackfillMaxLogs,
		}).Warn("backfill truncated to newest logs")
		logs = logs[len(logs)-f.cfg.BackfillMaxLogs:]
	}

	processed := 0
	for i := range logs {
		if f.handleLog(ctx, logs[i]) {
			processed++
		}
	}
	ctx.Info(fmt.Sprintf("backfill done from=%d to=%d logs=%d new=%d", from, head, len(logs), processed))
	return nil
}

// checkHealth distinguishes a stalled node from a dead subscription. A
// stalled head gets no corrective action; an advancing head with no events
// past the staleness window triggers a probe of recent blocks, and missed
// logs force a cooldown-guarded resubscribe.
func (f *EventTracker) checkHealth(ctx bCtx.Ctx) bool {
	now := f.nowFn()
	head, err := f.currentBlockGetter.BlockNumber(ctx)
	if err != nil {
		ctx.WithField("err", err).Warn("health check block number failed")
		return false
	}
	met.BumpAvg("blockchain.lastBlock", float64(head))

	f.mu.Lock()
	if head > f.lastHead {
		f.lastHead = head
		f.lastHeadAdvance = now
	}
	headStalled := now.Sub(f.lastHeadAdvance) > f.cfg.EventStaleness
	stale := now.Sub(f.lastEventAt) > f.cfg.EventStaleness
	cooldownOver := now.Sub(f.lastResubscribe) > f.cfg.ResubscribeCooldown
	f.mu.Unlock()

	if headStalled {
		ctx.WithField("head", head).Warn("chain head stalled, not a subscription problem")
		return false
	}
	if !stale {
		return false
	}

	from := head
	if from > f.cfg.BackfillBlocks {
		from -= f.cfg.BackfillBlocks
	} else {
		from = 0
	}
	q := f.filter
	q.FromBlock = new(big.Int).SetUint64(from)
	q.ToBlock = new(big.Int).SetUint64(head)
	tCtx, cancel := bCtx.WithTimeout(ctx, FilterTimeout)
	logs, err := f.rpcClient.FilterLogs(tCtx, q)
	cancel()
	if err != nil {
		ctx.WithField("err", err).Warn("staleness probe failed")
		return false
	}

	missed := 0
	for i := range logs {
		if f.handleLog(ctx, logs[i]) {
			missed++
		}
	}
	if missed == 0 {
		// quiet market rather than a dead subscription
		f.mu.Lock()
		f.lastEventAt = now
		f.mu.Unlock()
		return false
	}

	met.BumpSum("probe.missed", float64(missed))
	if !cooldownOver {
		ctx.WithField("missed", missed).Warn("subscription missed logs, resubscribe in cooldown")
		return false
	}
	ctx.WithField("missed", missed).Warn("subscription missed logs, forcing resubscribe")
	met.BumpSum("resubscribe.stale", 1)
	return true
}

func (f *EventTracker) flushCursor(ctx bCtx.Ctx) {
	f.mu.Lock()
	if !f.cursorDirty {
		f.mu.Unlock()
		return
	}
	cur := &launch.Cursor{
		LastSeenBlock: f.cursor,
		UpdatedAt:     f.nowFn(),
	}
	f.cursorDirty = false
	f.mu.Unlock()

	if err := f.cursorRepo.Put(ctx, cur); err != nil {
		ctx.WithFields(log.Fields{
			"err":    err,
			"cursor": cur.LastSeenBlock,
		}).Error("cursor flush failed")
		f.mu.Lock()
		f.cursorDirty = true
		f.mu.Unlock()
		return
	}
	met.BumpAvg("cursor.block", float64(cur.LastSeenBlock))
}

func (f *EventTracker) setState(ctx bCtx.Ctx, s State) {
	f.mu.Lock()
	prev := f.state
	f.state = s
	f.mu.Unlock()
	if prev != s {
		ctx.WithFields(log.Fields{
			"from": prev,
			"to":   s,
		}).Info("tracker state changed")
	}
}
