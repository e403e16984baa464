package usecase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viney-shih/goroutines"

	"github.com/basewatch/goapi/base/counter"
	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/goroutine"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/base/lru"
	"github.com/basewatch/goapi/base/metrics"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/creator"
	"github.com/basewatch/goapi/domain/launch"
	"github.com/basewatch/goapi/service/clanker"
)

type ValidatorCfg struct {
	Resolver creator.Resolver

	// DenyFids are identities rejected outright regardless of reputation.
	DenyFids []int64

	// TwitterFloor rejects very small twitter accounts even when farcaster
	// reach passes. TwitterBigAccount is the high-confidence bar that
	// bypasses both the score gate and the liquidity wait.
	TwitterFloor      int
	TwitterBigAccount int
	FarcasterBar      int
	ScoreFloor        float64
	DisableScoreGate  bool

	FastTimeout   time.Duration
	SlowAttempts  int
	SlowBaseDelay time.Duration
	SlowMaxDelay  time.Duration

	SpamWindow    time.Duration
	SpamMaxTokens int

	PoolSize int
}

// spamEntry records the tokens a creator launched within the rolling window.
// Each token keeps the rank it was first counted at so re-validating an old
// token never flips its outcome after later launches.
type spamEntry struct {
	tokens map[string]int
}

type impl struct {
	resolver creator.Resolver
	cfg      ValidatorCfg
	denyFids map[int64]struct{}

	spamMu sync.Mutex
	spam   *lru.Cache

	pool    *goroutines.Pool
	pending sync.WaitGroup
	queued  *counter.Counter

	met metrics.Service
}

func New(cfg *ValidatorCfg) creator.Validator {
	if cfg.TwitterFloor == 0 {
		cfg.TwitterFloor = 100
	}
	if cfg.TwitterBigAccount == 0 {
		cfg.TwitterBigAccount = 50000
	}
	if cfg.FarcasterBar == 0 {
		cfg.FarcasterBar = 10000
	}
	if cfg.ScoreFloor == 0 {
		cfg.ScoreFloor = 0.7
	}
	if cfg.FastTimeout == 0 {
		cfg.FastTimeout = 2500 * time.Millisecond
	}
	if cfg.SlowAttempts == 0 {
		cfg.SlowAttempts = 3
	}
	if cfg.SlowBaseDelay == 0 {
		cfg.SlowBaseDelay = time.Second
	}
	if cfg.SlowMaxDelay == 0 {
		cfg.SlowMaxDelay = 30 * time.Second
	}
	if cfg.SpamWindow == 0 {
		cfg.SpamWindow = 24 * time.Hour
	}
	if cfg.SpamMaxTokens == 0 {
		cfg.SpamMaxTokens = 2
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 4
	}

	denyFids := map[int64]struct{}{}
	for _, fid := range cfg.DenyFids {
		denyFids[fid] = struct{}{}
	}

	return &impl{
		resolver: cfg.Resolver,
		cfg:      *cfg,
		denyFids: denyFids,
		spam:     lru.New(4096, cfg.SpamWindow),
		pool:     goroutines.NewPool(cfg.PoolSize, goroutines.WithTaskQueueLength(256)),
		queued:   counter.NewCounter(),
		met:      metrics.New("validation"),
	}
}

func (im *impl) ValidateFast(c ctx.Ctx, ev *launch.TokenEvent) (*creator.ValidationResult, error) {
	if ev.CreatorAddress.IsEmpty() {
		return nil, domain.ErrNotFound
	}

	defer im.met.BumpTime("fast.time").End()

	type resolved struct {
		info *creator.CreatorInfo
		err  error
	}
	ch := make(chan resolved, 1)
	// the lookup keeps running past the deadline so its result still lands
	// in the resolver cache for the slow path
	goroutine.RecoverableGo(func() {
		info, err := im.resolver.ResolveByAddress(c, ev.CreatorAddress)
		ch <- resolved{info, err}
	})

	select {
	case r := <-ch:
		if r.err != nil {
			// lookup failures degrade to unresolved; the slow path owns
			// retries, nothing transport-shaped crosses this boundary
			if !errors.Is(r.err, domain.ErrNotFound) {
				c.WithFields(log.Fields{
					"err":     r.err,
					"creator": ev.CreatorAddress,
				}).Warn("fast lookup failed, deferring to slow path")
				im.met.BumpSum("fast.err", 1)
			}
			return nil, domain.ErrNotFound
		}
		res := im.applyPolicy(c, ev, r.info)
		im.bumpOutcome("fast", res)
		return res, nil
	case <-time.After(im.cfg.FastTimeout):
		im.met.BumpSum("fast.timeout", 1)
		return nil, domain.ErrNotFound
	}
}

func (im *impl) ValidateSlow(c ctx.Ctx, ev *launch.TokenEvent) (*creator.ValidationResult, error) {
	defer im.met.BumpTime("slow.time").End()

	delay := im.cfg.SlowBaseDelay
	var lastErr error
	for attempt := 1; attempt <= im.cfg.SlowAttempts; attempt++ {
		info, err := im.resolver.ResolveByToken(c, ev.Platform, ev.TokenAddress)
		if err == nil {
			res := im.applyPolicy(c, ev, info)
			im.bumpOutcome("slow", res)
			return res, nil
		}
		lastErr = err

		if attempt == im.cfg.SlowAttempts {
			break
		}

		// outages and indexing lag both present as a failed lookup; the
		// platform flags its own outages so those wait twice as long
		d := delay
		if errors.Is(err, clanker.ErrInfrastructure) {
			d *= 2
		}
		if d > im.cfg.SlowMaxDelay {
			d = im.cfg.SlowMaxDelay
		}
		c.WithFields(log.Fields{
			"err":     err,
			"token":   ev.TokenAddress,
			"attempt": attempt,
			"delay":   d,
		}).Info("creator not resolvable yet, retrying")

		select {
		case <-time.After(d):
		case <-c.Done():
			return nil, c.Err()
		}
		delay *= 2
	}

	im.met.BumpSum("slow.exhausted", 1)
	return nil, lastErr
}

func (im *impl) ScheduleSlow(c ctx.Ctx, ev *launch.TokenEvent, onResult func(ctx.Ctx, *launch.TokenEvent, *creator.ValidationResult)) {
	im.pending.Add(1)
	im.queued.Add(1)
	im.met.BumpAvg("slow.queued", float64(im.queued.Count()))
	err := im.pool.Schedule(func() {
		defer im.pending.Done()
		defer im.queued.Add(-1)
		res, err := im.ValidateSlow(c, ev)
		if err != nil {
			c.WithFields(log.Fields{
				"err":   err,
				"token": ev.TokenAddress,
			}).Warn("slow validation gave up")
			return
		}
		onResult(c, ev, res)
	})
	if err != nil {
		im.pending.Done()
		im.queued.Add(-1)
		c.WithFields(log.Fields{
			"err":   err,
			"token": ev.TokenAddress,
		}).Error("schedule slow validation failed")
	}
}

func (im *impl) Drain() {
	im.pending.Wait()
}

func (im *impl) applyPolicy(c ctx.Ctx, ev *launch.TokenEvent, info *creator.CreatorInfo) *creator.ValidationResult {
	res := &creator.ValidationResult{Creator: info}

	if info.FarcasterId != nil {
		if _, denied := im.denyFids[*info.FarcasterId]; denied {
			res.Reasons = append(res.Reasons, fmt.Sprintf("deny-listed creator fid %d", *info.FarcasterId))
			return res
		}
	}

	bigAccount := info.TwitterFollowers != nil && *info.TwitterFollowers >= im.cfg.TwitterBigAccount

	if info.TwitterFollowers != nil && *info.TwitterFollowers < im.cfg.TwitterFloor {
		res.Reasons = append(res.Reasons, fmt.Sprintf("twitter followers %d below floor %d", *info.TwitterFollowers, im.cfg.TwitterFloor))
		return res
	}

	// only the big-account bar bypasses the score gate
	if !im.cfg.DisableScoreGate && !bigAccount {
		if info.FarcasterScore != nil && *info.FarcasterScore < im.cfg.ScoreFloor {
			res.Reasons = append(res.Reasons, fmt.Sprintf("farcaster score %.2f below floor %.2f", *info.FarcasterScore, im.cfg.ScoreFloor))
			return res
		}
	}

	farcasterReach := info.FarcasterFollowers != nil && *info.FarcasterFollowers >= im.cfg.FarcasterBar
	if !bigAccount && !farcasterReach {
		res.Reasons = append(res.Reasons, "no platform shows sufficient reach")
		return res
	}

	if key := info.Key(); key != "" {
		if rank := im.bumpSpam(key, ev.TokenAddress); rank > im.cfg.SpamMaxTokens {
			res.Reasons = append(res.Reasons, fmt.Sprintf("spam: token %d within window (max %d)", rank, im.cfg.SpamMaxTokens))
			return res
		}
	}

	res.Passed = true
	return res
}

// bumpSpam counts tokenAddress against the creator's rolling window and
// returns its rank. Counting is idempotent per token address.
func (im *impl) bumpSpam(creatorKey string, tokenAddress domain.Address) int {
	im.spamMu.Lock()
	defer im.spamMu.Unlock()

	var e *spamEntry
	if v, ok := im.spam.Get(creatorKey); ok {
		e = v.(*spamEntry)
	} else {
		e = &spamEntry{tokens: map[string]int{}}
		im.spam.Set(creatorKey, e)
	}

	addr := tokenAddress.ToLowerStr()
	if rank, ok := e.tokens[addr]; ok {
		return rank
	}
	rank := len(e.tokens) + 1
	e.tokens[addr] = rank
	return rank
}

func (im *impl) bumpOutcome(path string, res *creator.ValidationResult) {
	outcome := "rejected"
	if res.Passed {
		outcome = "passed"
	}
	im.met.BumpSum("outcome", 1, "path:"+path, "outcome:"+outcome)
}
