package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/ethereum"
	"github.com/basewatch/goapi/base/httpclient"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/base/tracker"
	mmiddleware "github.com/basewatch/goapi/middleware"
	"github.com/basewatch/goapi/service/clanker"
	"github.com/basewatch/goapi/service/dexscreener"
	"github.com/basewatch/goapi/service/fxtwitter"
	"github.com/basewatch/goapi/service/neynar"
	"github.com/basewatch/goapi/service/zora"
	alertUseCase "github.com/basewatch/goapi/stores/alert/usecase"
	creatorUseCase "github.com/basewatch/goapi/stores/creator/usecase"
	cursorFileRepo "github.com/basewatch/goapi/stores/cursor/repository/file"
	validationUseCase "github.com/basewatch/goapi/stores/validation/usecase"
	watchlistRepo "github.com/basewatch/goapi/stores/watchlist/repository"
	watchlistUseCase "github.com/basewatch/goapi/stores/watchlist/usecase"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/watcher/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}

	viper.BindEnv("network.wsUrl", "WS_URL")
	viper.BindEnv("network.rpcUrl", "RPC_URL")
	viper.BindEnv("neynar.apiKey", "NEYNAR_API_KEY")
	viper.BindEnv("zora.apiKey", "ZORA_API_KEY")
	viper.BindEnv("discord.botKey", "DISCORD_BOT_KEY")
	viper.BindEnv("discord.channelId", "DISCORD_CHANNEL_ID")
}

func main() {
	ctx, cancel := bCtx.WithCancel(bCtx.Background())

	// start server to pass cloud run health check
	startEchoServer()

	wsUrl := viper.GetString("network.wsUrl")
	rpcUrl := viper.GetString("network.rpcUrl")
	clankerFactories := toAddresses(viper.GetStringSlice("factories.clanker"))
	zoraFactories := toAddresses(viper.GetStringSlice("factories.zora"))
	cursorPath := viper.GetString("cursor.path")

	ctx.WithFields(log.Fields{
		"wsUrl":            wsUrl,
		"rpcUrl":           rpcUrl,
		"clankerFactories": len(clankerFactories),
		"zoraFactories":    len(zoraFactories),
		"cursorPath":       cursorPath,
	}).Info("config")

	ctx.Info("connecting eth clients")
	wsClient, rpcClient := initEthClient(ctx, wsUrl, rpcUrl)
	throttledClient := ethereum.NewThrottledClient(rpcClient, 100)
	errCh := make(chan error, 10)

	guard := httpclient.NewGuard(&http.Client{})
	neynarClient := neynar.NewClient(&neynar.ClientCfg{
		Guard:   guard,
		ApiKey:  viper.GetString("neynar.apiKey"),
		Timeout: viper.GetDuration("neynar.timeout"),
	})
	clankerClient := clanker.NewClient(&clanker.ClientCfg{
		Guard:   guard,
		Timeout: viper.GetDuration("clanker.timeout"),
	})
	zoraClient := zora.NewClient(&zora.ClientCfg{
		Guard:   guard,
		ApiKey:  viper.GetString("zora.apiKey"),
		Timeout: viper.GetDuration("zora.timeout"),
	})
	fxtwitterClient := fxtwitter.NewClient(&fxtwitter.ClientCfg{
		Guard:   guard,
		Timeout: viper.GetDuration("fxtwitter.timeout"),
	})
	dexscreenerClient := dexscreener.NewClient(&dexscreener.ClientCfg{
		Guard:   guard,
		Timeout: viper.GetDuration("dexscreener.timeout"),
	})

	resolver := creatorUseCase.New(&creatorUseCase.ResolverCfg{
		Neynar:      neynarClient,
		Clanker:     clankerClient,
		Zora:        zoraClient,
		Fxtwitter:   fxtwitterClient,
		BotFids:     toInt64s(viper.GetIntSlice("policy.botFids")),
		FoundTtl:    viper.GetDuration("creator.foundTtl"),
		NotFoundTtl: viper.GetDuration("creator.notFoundTtl"),
	})
	validator := validationUseCase.New(&validationUseCase.ValidatorCfg{
		Resolver:          resolver,
		DenyFids:          toInt64s(viper.GetIntSlice("policy.denyFids")),
		TwitterFloor:      viper.GetInt("policy.twitterFloor"),
		TwitterBigAccount: viper.GetInt("policy.twitterBigAccount"),
		FarcasterBar:      viper.GetInt("policy.farcasterBar"),
		ScoreFloor:        viper.GetFloat64("policy.scoreFloor"),
		DisableScoreGate:  viper.GetBool("policy.disableScoreGate"),
		FastTimeout:       viper.GetDuration("validation.fastTimeout"),
		SlowAttempts:      viper.GetInt("validation.slowAttempts"),
		SlowBaseDelay:     viper.GetDuration("validation.slowBaseDelay"),
		SlowMaxDelay:      viper.GetDuration("validation.slowMaxDelay"),
		SpamWindow:        viper.GetDuration("policy.spamWindow"),
		SpamMaxTokens:     viper.GetInt("policy.spamMaxTokens"),
	})
	dispatcher := alertUseCase.NewDiscordDispatcher(alertUseCase.DiscordCfg{
		BotKey:    viper.GetString("discord.botKey"),
		ChannelId: viper.GetString("discord.channelId"),
	})
	watchlistUC := watchlistUseCase.New(&watchlistUseCase.Cfg{
		Stats:              watchlistRepo.NewDexscreenerStats(dexscreenerClient),
		Dispatcher:         dispatcher,
		ScanInterval:       viper.GetDuration("watchlist.scanInterval"),
		MaxAge:             viper.GetDuration("watchlist.maxAge"),
		MinRecheckInterval: viper.GetDuration("watchlist.minRecheckInterval"),
		LiquidityThreshold: decimal.NewFromFloat(viper.GetFloat64("watchlist.liquidityThresholdUsd")),
		CheckConcurrency:   viper.GetInt("watchlist.checkConcurrency"),
	})

	currentBlockGetter := tracker.NewCurrentBlockGetter(&tracker.CurrentBlockGetterCfg{
		Client: wsClient,
		ErrCh:  errCh,
	})
	launchHandler := tracker.NewLaunchEventHandler(&tracker.LaunchEventHandlerCfg{
		ClankerFactories:  clankerFactories,
		ZoraFactories:     zoraFactories,
		Validator:         validator,
		Watchlist:         watchlistUC,
		Dispatcher:        dispatcher,
		TwitterBigAccount: viper.GetInt("policy.twitterBigAccount"),
	})
	launchTracker := tracker.NewEventTracker(&tracker.EventTrackerCfg{
		WsClient:            wsClient,
		RpcClient:           throttledClient,
		CurrentBlockGetter:  currentBlockGetter,
		CursorRepo:          cursorFileRepo.New(cursorPath),
		Handler:             launchHandler,
		ErrorCh:             errCh,
		DedupTtl:            viper.GetDuration("tracker.dedupTtl"),
		CursorFlushInterval: viper.GetDuration("tracker.cursorFlushInterval"),
		BackfillBlocks:      viper.GetUint64("tracker.backfillBlocks"),
		BackfillMaxLogs:     viper.GetInt("tracker.backfillMaxLogs"),
		HandlerConcurrency:  viper.GetInt("tracker.handlerConcurrency"),
		EventStaleness:      viper.GetDuration("tracker.eventStaleness"),
		HealthCheckInterval: viper.GetDuration("tracker.healthCheckInterval"),
		ResubscribeCooldown: viper.GetDuration("tracker.resubscribeCooldown"),
		MaxTransportErrors:  viper.GetInt("tracker.maxTransportErrors"),
	})

	ctx.Info("starting workers")
	if err := currentBlockGetter.Start(ctx); err != nil {
		ctx.WithField("err", err).Panic("currentBlockGetter.Start failed")
	}
	watchlistUC.Start(ctx)
	launchTracker.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		ctx.WithField("err", err).Error("watcher error")
	case sig := <-sigCh:
		ctx.WithField("signal", sig.String()).Info("shutting down")
	}

	go func() {
		for range errCh {
		}
	}()

	launchTracker.Stop(ctx)
	validator.Drain()
	watchlistUC.Stop()
	cancel()
	currentBlockGetter.Wait()
}

func startEchoServer() {
	context := bCtx.Background()

	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	address := viper.GetString("server.address")
	context.WithField("address", address).Info("starting server")
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			context.Error("shutting down the server")
		}
	}()
}

func initEthClient(ctx bCtx.Ctx, wsUrl, rpcUrl string) (*ethclient.Client, *ethclient.Client) {
	wsClient, err := ethclient.DialContext(ctx, wsUrl)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"url": wsUrl,
		}).Panic("failed to connect ws rpc")
	}

	rpcClient, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"url": rpcUrl,
		}).Panic("failed to connect rpc")
	}

	return wsClient, rpcClient
}

func toAddresses(vals []string) []common.Address {
	addrs := make([]common.Address, 0, len(vals))
	for _, v := range vals {
		addrs = append(addrs, common.HexToAddress(v))
	}
	return addrs
}

func toInt64s(vals []int) []int64 {
	out := make([]int64, 0, len(vals))
	for _, v := range vals {
		out = append(out, int64(v))
	}
	return out
}
