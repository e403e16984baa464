package tracker

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/basewatch/goapi/base/abi"
	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/base/metrics"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/alert"
	"github.com/basewatch/goapi/domain/creator"
	"github.com/basewatch/goapi/domain/launch"
	"github.com/basewatch/goapi/domain/watchlist"
)

type LaunchEventHandlerCfg struct {
	ClankerFactories []common.Address
	ZoraFactories    []common.Address
	Validator        creator.Validator
	Watchlist        watchlist.UseCase
	Dispatcher       alert.Dispatcher

	// TwitterBigAccount is the follower count that skips the liquidity wait.
	TwitterBigAccount int
}

// LaunchEventHandler decodes factory TokenCreated/CoinCreated logs, runs the
// two-tier creator validation, and routes passed tokens to either an
// immediate alert (big accounts) or the liquidity watchlist.
type LaunchEventHandler struct {
	clankerFactories []common.Address
	zoraFactories    []common.Address
	validator        creator.Validator
	watchlist        watchlist.UseCase
	dispatcher       alert.Dispatcher
	bigAccount       int
}

func NewLaunchEventHandler(cfg *LaunchEventHandlerCfg) *LaunchEventHandler {
	metOnce.Do(func() {
		met = metrics.New("tracker")
	})
	if cfg.TwitterBigAccount == 0 {
		cfg.TwitterBigAccount = 50000
	}
	return &LaunchEventHandler{
		clankerFactories: cfg.ClankerFactories,
		zoraFactories:    cfg.ZoraFactories,
		validator:        cfg.Validator,
		watchlist:        cfg.Watchlist,
		dispatcher:       cfg.Dispatcher,
		bigAccount:       cfg.TwitterBigAccount,
	}
}

func (h *LaunchEventHandler) GetFilterAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(h.clankerFactories)+len(h.zoraFactories))
	addrs = append(addrs, h.clankerFactories...)
	addrs = append(addrs, h.zoraFactories...)
	return addrs
}

func (h *LaunchEventHandler) GetFilterTopics() [][]common.Hash {
	return [][]common.Hash{{
		abi.ClankerFactoryV3ABI.Events["TokenCreated"].ID,
		abi.ClankerFactoryV4ABI.Events["TokenCreated"].ID,
		abi.ZoraCoinFactoryABI.Events["CoinCreated"].ID,
		abi.ZoraCoinFactoryABI.Events["CreatorCoinCreated"].ID,
	}}
}

// ProcessLog decodes and validates one factory log. A decode failure is
// permanent and returns nil so the log is not retried; an unresolved or
// failed fast lookup hands the token to the background slow path.
func (h *LaunchEventHandler) ProcessLog(ctx bCtx.Ctx, l *types.Log) error {
	ev := h.decode(ctx, l)
	if ev == nil {
		return nil
	}

	ctx = bCtx.WithValues(ctx, map[string]interface{}{
		"token":    ev.TokenAddress,
		"platform": string(ev.Platform),
	})
	ctx.WithFields(log.Fields{
		"symbol": ev.Symbol,
		"block":  ev.BlockNumber,
	}).Info("token launch detected")

	res, err := h.validator.ValidateFast(ctx, ev)
	if err != nil {
		h.validator.ScheduleSlow(ctx, ev, h.onValidated)
		return nil
	}
	h.onValidated(ctx, ev, res)
	return nil
}

func (h *LaunchEventHandler) decode(ctx bCtx.Ctx, l *types.Log) *launch.TokenEvent {
	if len(l.Topics) == 0 {
		return nil
	}
	now := time.Now()
	var ev *launch.TokenEvent
	var err error
	switch l.Topics[0] {
	case abi.ClankerFactoryV3ABI.Events["TokenCreated"].ID:
		var created *abi.ClankerTokenCreatedV3Log
		if created, err = abi.ToClankerTokenCreatedV3Log(l); err == nil {
			ev = &launch.TokenEvent{
				TokenAddress:   toDomainAddress(created.TokenAddress),
				Name:           created.Name,
				Symbol:         created.Symbol,
				CreatorAddress: toDomainAddress(created.Deployer),
				PoolAddress:    toDomainAddress(created.Pool),
				Platform:       launch.PlatformClanker,
			}
		}
	case abi.ClankerFactoryV4ABI.Events["TokenCreated"].ID:
		var created *abi.ClankerTokenCreatedV4Log
		if created, err = abi.ToClankerTokenCreatedV4Log(l); err == nil {
			ev = &launch.TokenEvent{
				TokenAddress:   toDomainAddress(created.TokenAddress),
				Name:           created.Name,
				Symbol:         created.Symbol,
				CreatorAddress: toDomainAddress(created.TokenAdmin),
				PoolAddress:    toDomainAddress(created.Pool),
				Platform:       launch.PlatformClanker,
			}
		}
	case abi.ZoraCoinFactoryABI.Events["CoinCreated"].ID, abi.ZoraCoinFactoryABI.Events["CreatorCoinCreated"].ID:
		event := "CoinCreated"
		if l.Topics[0] == abi.ZoraCoinFactoryABI.Events["CreatorCoinCreated"].ID {
			event = "CreatorCoinCreated"
		}
		var created *abi.ZoraCoinCreatedLog
		if created, err = abi.ToZoraCoinCreatedLog(l, event); err == nil {
			ev = &launch.TokenEvent{
				TokenAddress:   toDomainAddress(created.Coin),
				Name:           created.Name,
				Symbol:         created.Symbol,
				CreatorAddress: toDomainAddress(created.PayoutRecipient),
				Platform:       launch.PlatformZora,
			}
		}
	default:
		ctx.WithField("topic", l.Topics[0].Hex()).Warn("unrecognized factory event")
		return nil
	}
	if err != nil {
		// malformed payload, retrying cannot fix it
		ctx.WithFields(log.Fields{
			"err":    err,
			"txHash": l.TxHash.Hex(),
		}).Warn("factory log decode failed")
		met.BumpSum("decode.err", 1)
		return nil
	}

	ev.TxHash = domain.TxHash(ToLowerHexStr(l.TxHash))
	ev.BlockNumber = domain.BlockNumber(l.BlockNumber)
	ev.DetectedAt = now
	return ev
}

func (h *LaunchEventHandler) onValidated(ctx bCtx.Ctx, ev *launch.TokenEvent, res *creator.ValidationResult) {
	if !res.Passed {
		ctx.WithField("reasons", res.Reasons).Info("token rejected by validation")
		met.BumpSum("validation.rejected", 1)
		return
	}

	if res.BigAccount(h.bigAccount) {
		// high-reach creators alert immediately, no liquidity wait
		met.BumpSum("validation.bigAccount", 1)
		a := &alert.TokenAlert{
			AlertId:      uuid.New().String(),
			TokenAddress: ev.TokenAddress,
			Symbol:       ev.Symbol,
			Name:         ev.Name,
			Platform:     ev.Platform,
			LiquidityUsd: decimal.Zero,
			Volume24hUsd: decimal.Zero,
			Creator:      res.Creator,
			PoolAddress:  ev.PoolAddress,
		}
		if err := h.dispatcher.Dispatch(ctx, a); err != nil {
			ctx.WithField("err", err).Error("dispatcher.Dispatch failed")
		}
		return
	}

	if h.watchlist.Add(ctx, ev, res.Creator) {
		met.BumpSum("watchlist.added", 1)
	}
}
