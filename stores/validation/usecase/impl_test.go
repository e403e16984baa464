package usecase

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/creator"
	creatorMocks "github.com/basewatch/goapi/domain/creator/mocks"
	"github.com/basewatch/goapi/domain/launch"
	"github.com/basewatch/goapi/service/clanker"
)

func ptrInt64(v int64) *int64     { return &v }
func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrStr(v string) *string     { return &v }

func info(fid int64, fcFollowers int, score *float64, twHandle string, twFollowers *int) *creator.CreatorInfo {
	ci := &creator.CreatorInfo{
		FarcasterId:        ptrInt64(fid),
		FarcasterFollowers: ptrInt(fcFollowers),
		FarcasterScore:     score,
	}
	if twHandle != "" {
		ci.TwitterHandle = ptrStr(twHandle)
		ci.TwitterFollowers = twFollowers
	}
	return ci
}

func event(token string, platform launch.Platform) *launch.TokenEvent {
	return &launch.TokenEvent{
		TokenAddress:   domain.Address(token),
		CreatorAddress: domain.Address("0xBBB"),
		Platform:       platform,
		DetectedAt:     time.Now(),
	}
}

func newTestValidator(t *testing.T, tweak func(*ValidatorCfg)) (creator.Validator, *creatorMocks.Resolver) {
	resolver := &creatorMocks.Resolver{}
	cfg := &ValidatorCfg{
		Resolver:      resolver,
		FastTimeout:   50 * time.Millisecond,
		SlowBaseDelay: 10 * time.Millisecond,
	}
	if tweak != nil {
		tweak(cfg)
	}
	return New(cfg), resolver
}

func Test_ValidateFast_BigAccountPasses(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, nil)
	c := bCtx.Background()
	ev := event("0xAAA", launch.PlatformClanker)

	resolver.On("ResolveByAddress", mock.Anything, ev.CreatorAddress).
		Return(info(42, 500, ptrFloat(0.91), "alice", ptrInt(80000)), nil).Once()

	res, err := v.ValidateFast(c, ev)
	req.NoError(err)
	req.True(res.Passed)
	req.True(res.BigAccount(50000))
}

func Test_ValidateFast_NoCreatorAddress(t *testing.T) {
	req := require.New(t)
	v, _ := newTestValidator(t, nil)
	ev := event("0xAAA", launch.PlatformZora)
	ev.CreatorAddress = ""

	_, err := v.ValidateFast(bCtx.Background(), ev)
	req.ErrorIs(err, domain.ErrNotFound)
}

func Test_ValidateFast_TimeoutReportsNotFound(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, nil)
	ev := event("0xAAA", launch.PlatformClanker)

	resolver.On("ResolveByAddress", mock.Anything, ev.CreatorAddress).
		Run(func(mock.Arguments) { time.Sleep(300 * time.Millisecond) }).
		Return(info(42, 500, nil, "", nil), nil)

	start := time.Now()
	_, err := v.ValidateFast(bCtx.Background(), ev)
	req.ErrorIs(err, domain.ErrNotFound)
	req.Less(time.Since(start), 250*time.Millisecond)
}

func Test_ValidateFast_LookupFailureReportsNotFound(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, nil)
	ev := event("0xAAA", launch.PlatformClanker)

	resolver.On("ResolveByAddress", mock.Anything, ev.CreatorAddress).
		Return(nil, errors.New("request failed after 3 attempts: http status 500")).Once()

	// a broken lookup reads as unresolved, the slow path owns retries
	_, err := v.ValidateFast(bCtx.Background(), ev)
	req.ErrorIs(err, domain.ErrNotFound)
}

func Test_ValidateSlow_RecoversFromInfrastructureError(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, nil)
	ev := event("0xAAA", launch.PlatformClanker)

	resolver.On("ResolveByToken", mock.Anything, launch.PlatformClanker, ev.TokenAddress).
		Return(nil, clanker.ErrInfrastructure).Once()
	resolver.On("ResolveByToken", mock.Anything, launch.PlatformClanker, ev.TokenAddress).
		Return(info(42, 15000, ptrFloat(0.9), "", nil), nil).Once()

	res, err := v.ValidateSlow(bCtx.Background(), ev)
	req.NoError(err)
	req.True(res.Passed)
	resolver.AssertNumberOfCalls(t, "ResolveByToken", 2)
}

func Test_ValidateSlow_ExhaustsAttempts(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, nil)
	ev := event("0xAAA", launch.PlatformZora)

	resolver.On("ResolveByToken", mock.Anything, launch.PlatformZora, ev.TokenAddress).
		Return(nil, domain.ErrNotFound)

	_, err := v.ValidateSlow(bCtx.Background(), ev)
	req.ErrorIs(err, domain.ErrNotFound)
	resolver.AssertNumberOfCalls(t, "ResolveByToken", 3)
}

func Test_Policy_FarcasterReachWithoutTwitter(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, nil)
	ev := event("0xAAA", launch.PlatformClanker)

	resolver.On("ResolveByAddress", mock.Anything, ev.CreatorAddress).
		Return(info(42, 15000, ptrFloat(0.9), "", nil), nil).Once()

	res, err := v.ValidateFast(bCtx.Background(), ev)
	req.NoError(err)
	req.True(res.Passed)
	req.False(res.BigAccount(50000))
}

func Test_Policy_TwitterFloorRejectsEvenWithReach(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, nil)
	ev := event("0xAAA", launch.PlatformClanker)

	resolver.On("ResolveByAddress", mock.Anything, ev.CreatorAddress).
		Return(info(42, 15000, ptrFloat(0.9), "tiny", ptrInt(50)), nil).Once()

	res, err := v.ValidateFast(bCtx.Background(), ev)
	req.NoError(err)
	req.False(res.Passed)
	req.NotEmpty(res.Reasons)
}

func Test_Policy_ScoreGateMonotonicity(t *testing.T) {
	req := require.New(t)
	c := bCtx.Background()
	lowScore := func() *creator.CreatorInfo {
		return info(42, 15000, ptrFloat(0.3), "", nil)
	}

	// gate enabled: low score fails despite reach
	v, resolver := newTestValidator(t, nil)
	ev := event("0xAAA", launch.PlatformClanker)
	resolver.On("ResolveByAddress", mock.Anything, mock.Anything).Return(lowScore(), nil)
	res, err := v.ValidateFast(c, ev)
	req.NoError(err)
	req.False(res.Passed)

	// gate disabled: same account passes
	v, resolver = newTestValidator(t, func(cfg *ValidatorCfg) { cfg.DisableScoreGate = true })
	resolver.On("ResolveByAddress", mock.Anything, mock.Anything).Return(lowScore(), nil)
	res, err = v.ValidateFast(c, ev)
	req.NoError(err)
	req.True(res.Passed)

	// gate enabled but twitter big account: the bypass applies
	v, resolver = newTestValidator(t, nil)
	big := lowScore()
	big.TwitterHandle = ptrStr("alice")
	big.TwitterFollowers = ptrInt(80000)
	resolver.On("ResolveByAddress", mock.Anything, mock.Anything).Return(big, nil)
	res, err = v.ValidateFast(c, event("0xAB1", launch.PlatformClanker))
	req.NoError(err)
	req.True(res.Passed)
}

func Test_Policy_DenyList(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, func(cfg *ValidatorCfg) { cfg.DenyFids = []int64{42} })
	ev := event("0xAAA", launch.PlatformClanker)

	resolver.On("ResolveByAddress", mock.Anything, ev.CreatorAddress).
		Return(info(42, 99999, ptrFloat(0.99), "alice", ptrInt(999999)), nil).Once()

	res, err := v.ValidateFast(bCtx.Background(), ev)
	req.NoError(err)
	req.False(res.Passed)
}

func Test_Spam_ThirdTokenRejected(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, nil)
	c := bCtx.Background()

	resolver.On("ResolveByAddress", mock.Anything, mock.Anything).
		Return(info(99, 20000, ptrFloat(0.9), "", nil), nil)

	res1, err := v.ValidateFast(c, event("0xA1", launch.PlatformClanker))
	req.NoError(err)
	req.True(res1.Passed)

	res2, err := v.ValidateFast(c, event("0xA2", launch.PlatformClanker))
	req.NoError(err)
	req.True(res2.Passed)

	res3, err := v.ValidateFast(c, event("0xA3", launch.PlatformClanker))
	req.NoError(err)
	req.False(res3.Passed)
	req.Contains(res3.Reasons[0], "spam")

	// re-validating an already counted token does not bump the counter
	res2again, err := v.ValidateFast(c, event("0xA2", launch.PlatformClanker))
	req.NoError(err)
	req.True(res2again.Passed)
}

func Test_ScheduleSlow_InvokesCallback(t *testing.T) {
	req := require.New(t)
	v, resolver := newTestValidator(t, nil)
	ev := event("0xAAA", launch.PlatformClanker)

	resolver.On("ResolveByToken", mock.Anything, launch.PlatformClanker, ev.TokenAddress).
		Return(info(42, 15000, ptrFloat(0.9), "", nil), nil).Once()

	var calls int32
	v.ScheduleSlow(bCtx.Background(), ev, func(_ bCtx.Ctx, _ *launch.TokenEvent, res *creator.ValidationResult) {
		req.True(res.Passed)
		atomic.AddInt32(&calls, 1)
	})
	v.Drain()
	req.EqualValues(1, atomic.LoadInt32(&calls))
}
