package usecase

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/viney-shih/goroutines"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/base/metrics"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/alert"
	"github.com/basewatch/goapi/domain/creator"
	"github.com/basewatch/goapi/domain/launch"
	"github.com/basewatch/goapi/domain/watchlist"
)

type Cfg struct {
	Stats      watchlist.StatsProvider
	Dispatcher alert.Dispatcher

	ScanInterval       time.Duration
	MinRecheckInterval time.Duration
	MaxAge             time.Duration
	LiquidityThreshold decimal.Decimal
	CheckConcurrency   int
}

type impl struct {
	stats      watchlist.StatsProvider
	dispatcher alert.Dispatcher
	cfg        Cfg

	mu      sync.Mutex
	entries map[string]*watchlist.Entry

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	met   metrics.Service
	nowFn func() time.Time
}

func New(cfg *Cfg) watchlist.UseCase {
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = 10 * time.Second
	}
	if cfg.MinRecheckInterval == 0 {
		cfg.MinRecheckInterval = cfg.ScanInterval
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = time.Hour
	}
	if cfg.LiquidityThreshold.IsZero() {
		cfg.LiquidityThreshold = decimal.NewFromInt(5000)
	}
	if cfg.CheckConcurrency == 0 {
		cfg.CheckConcurrency = 4
	}

	return &impl{
		stats:      cfg.Stats,
		dispatcher: cfg.Dispatcher,
		cfg:        *cfg,
		entries:    map[string]*watchlist.Entry{},
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		met:        metrics.New("watchlist"),
		nowFn:      time.Now,
	}
}

func (im *impl) Add(c ctx.Ctx, ev *launch.TokenEvent, info *creator.CreatorInfo) bool {
	key := ev.TokenAddress.ToLowerStr()

	im.mu.Lock()
	defer im.mu.Unlock()

	// membership check and insert share the lock so duplicate detections
	// of the same token cannot race in two entries
	if _, ok := im.entries[key]; ok {
		return false
	}
	im.entries[key] = &watchlist.Entry{
		Event:      ev,
		Creator:    info,
		EnqueuedAt: im.nowFn(),
	}
	im.met.BumpAvg("size", float64(len(im.entries)))

	c.WithFields(log.Fields{
		"token":    ev.TokenAddress,
		"symbol":   ev.Symbol,
		"platform": ev.Platform,
	}).Info("token added to liquidity watchlist")
	return true
}

func (im *impl) Len() int {
	im.mu.Lock()
	defer im.mu.Unlock()
	return len(im.entries)
}

func (im *impl) Start(c ctx.Ctx) {
	go func() {
		defer close(im.doneCh)
		ticker := time.NewTicker(im.cfg.ScanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				im.scanOnce(c)
			case <-im.stopCh:
				return
			case <-c.Done():
				return
			}
		}
	}()
}

func (im *impl) Stop() {
	im.stopOnce.Do(func() { close(im.stopCh) })
	<-im.doneCh
}

// scanOnce expires aged entries and checks the due ones under bounded
// concurrency. Entries whose liquidity clears the threshold are removed and
// dispatched exactly once.
func (im *impl) scanOnce(c ctx.Ctx) {
	now := im.nowFn()

	var due []*watchlist.Entry
	im.mu.Lock()
	for key, e := range im.entries {
		if now.Sub(e.EnqueuedAt) > im.cfg.MaxAge {
			delete(im.entries, key)
			c.WithFields(log.Fields{
				"token":  e.Event.TokenAddress,
				"checks": e.CheckCount,
			}).Info("watchlist entry expired without reaching liquidity")
			im.met.BumpSum("expired", 1)
			continue
		}
		if !e.LastChecked.IsZero() && now.Sub(e.LastChecked) < im.cfg.MinRecheckInterval {
			continue
		}
		e.LastChecked = now
		e.CheckCount++
		due = append(due, e)
	}
	im.mu.Unlock()

	if len(due) == 0 {
		return
	}

	b := goroutines.NewBatch(im.cfg.CheckConcurrency, goroutines.WithBatchSize(len(due)))
	defer b.Close()
	for i := 0; i < len(due); i++ {
		e := due[i]
		b.Queue(func() (interface{}, error) {
			im.checkEntry(c, e)
			return nil, nil
		})
	}
	b.QueueComplete()
	for range b.Results() {
	}
}

func (im *impl) checkEntry(c ctx.Ctx, e *watchlist.Entry) {
	stats, err := im.stats.TokenStats(c, e.Event.TokenAddress)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.WithFields(log.Fields{
				"err":   err,
				"token": e.Event.TokenAddress,
			}).Warn("liquidity stats lookup failed")
		} else if e.CheckCount%10 == 1 {
			c.WithFields(log.Fields{
				"token":  e.Event.TokenAddress,
				"checks": e.CheckCount,
			}).Info("no liquidity data yet")
		}
		return
	}

	if stats.LiquidityUsd.LessThan(im.cfg.LiquidityThreshold) {
		return
	}

	// remove before dispatching; a concurrent duplicate check of the same
	// entry must not dispatch twice
	key := e.Event.TokenAddress.ToLowerStr()
	im.mu.Lock()
	if _, ok := im.entries[key]; !ok {
		im.mu.Unlock()
		return
	}
	delete(im.entries, key)
	im.mu.Unlock()

	a := &alert.TokenAlert{
		AlertId:      uuid.New().String(),
		TokenAddress: e.Event.TokenAddress,
		Symbol:       e.Event.Symbol,
		Name:         e.Event.Name,
		Platform:     e.Event.Platform,
		LiquidityUsd: stats.LiquidityUsd,
		Volume24hUsd: stats.Volume24hUsd,
		Creator:      e.Creator,
		PoolAddress:  e.Event.PoolAddress,
	}
	if err := im.dispatcher.Dispatch(c, a); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"token": e.Event.TokenAddress,
		}).Error("alert dispatch failed")
		return
	}
	im.met.BumpSum("dispatched", 1)
	c.WithFields(log.Fields{
		"token":     e.Event.TokenAddress,
		"liquidity": stats.LiquidityUsd,
		"checks":    e.CheckCount,
	}).Info("liquidity threshold met, alert dispatched")
}
