package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/database/mongoclient"
	"github.com/fractionxyz/goapi/base/database/redisclient"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/base/metrics"
	bValidator "github.com/fractionxyz/goapi/base/validator"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
	mmiddleware "github.com/fractionxyz/goapi/middleware"
	"github.com/fractionxyz/goapi/service/paging"
	"github.com/fractionxyz/goapi/service/query"
	"github.com/fractionxyz/goapi/service/redis"
	auth_delivery "github.com/fractionxyz/goapi/stores/auth/delivery/http"
	auth_middleware "github.com/fractionxyz/goapi/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/fractionxyz/goapi/stores/auth/usecase"
	governance_delivery "github.com/fractionxyz/goapi/stores/governance/delivery/http"
	governance_repository "github.com/fractionxyz/goapi/stores/governance/repository"
	governance_usecase "github.com/fractionxyz/goapi/stores/governance/usecase"
	hc_delivery "github.com/fractionxyz/goapi/stores/healthcheck/delivery/http"
	hc_repo "github.com/fractionxyz/goapi/stores/healthcheck/repository"
	hc_usecase "github.com/fractionxyz/goapi/stores/healthcheck/usecase"
	ledger_delivery "github.com/fractionxyz/goapi/stores/ledger/delivery/http"
	ledger_repository "github.com/fractionxyz/goapi/stores/ledger/repository"
	ledger_usecase "github.com/fractionxyz/goapi/stores/ledger/usecase"
	registry_repository "github.com/fractionxyz/goapi/stores/registry/repository"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	checkIndex := viper.GetBool("mongo.checkIndex")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, checkIndex)

	// init Redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
		Src: redisCachePool,
	})

	mmiddleware.SetupCache(redisCache)
	e.Use(middL.AddRedis(redisCache))

	// the governance module owns the marketplace: its address is the
	// platform owner and the destination of every accrued fee.
	governanceAddress := domain.Address(viper.GetString("governance.address")).ToLower()
	marketAddress := domain.Address(viper.GetString("market.address")).ToLower()

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(mongoClient, redisCache)
	hc := hc_usecase.New(hcRepo)

	assetRegistry := registry_repository.New(domain.Address(viper.GetString("registry.address")))

	arena := ledger_repository.NewArena(&ledger_repository.ArenaCfg{
		PlatformOwner: governanceAddress,
		Fees: map[ledger.PositionState]int64{
			ledger.StateRegularSale: viper.GetInt64("market.fees.regularSale"),
			ledger.StateAuction:     viper.GetInt64("market.fees.auction"),
			ledger.StateRaffle:      viper.GetInt64("market.fees.raffle"),
			ledger.StateLoan:        viper.GetInt64("market.fees.loan"),
		},
	})
	eventRepo := ledger_repository.NewEventRepo(q)
	eventFeed := paging.New(&paging.PagingConfig{
		RedisCache: redisCache,
		KeyPfx:     "ledgerEvents",
		Getter: func(c ctx.Ctx, key string) (interface{}, error) {
			opts := []ledger.EventFindAllOptionsFunc{}
			if key != ledger_delivery.FeedKeyAll {
				opts = append(opts, ledger.EventWithType(ledger.EventType(key)))
			}
			return eventRepo.FindAll(c, opts...)
		},
		RenewDuration: 30 * time.Second,
		CacheDuration: 10 * time.Minute,
		ShardSize:     100,
	})
	ledgerUC := ledger_usecase.New(&ledger_usecase.LedgerUseCaseCfg{
		Repo:          arena,
		Events:        eventRepo,
		Registry:      assetRegistry,
		MarketAddress: marketAddress,
	})

	owners := []domain.Address{}
	for _, owner := range viper.GetStringSlice("governance.owners") {
		owners = append(owners, domain.Address(owner))
	}
	multisigRepo := governance_repository.NewMultisig(&governance_repository.MultisigCfg{
		Owners: owners,
		Quorum: viper.GetInt("governance.quorum"),
	})
	governanceUC := governance_usecase.New(&governance_usecase.MultisigUseCaseCfg{
		Repo:               multisigRepo,
		Address:            governanceAddress,
		Ledger:             ledgerUC,
		Dispatcher:         governance_usecase.NewLedgerDispatcher(ledgerUC, governanceAddress),
		MaxActiveProposals: viper.GetInt("governance.maxActiveProposals"),
	})

	auth := auth_usecase.New(viper.GetString("auth.jwtSecret"), viper.GetString("auth.signatureMsg"), redisCache)
	adminAddresses := viper.GetStringSlice("admin.addresses")
	authMiddleware := auth_middleware.New(auth, adminAddresses)

	hc_delivery.New(e, hc)
	auth_delivery.New(e, auth, viper.GetString("auth.signatureMsg"))
	ledger_delivery.New(e, ledgerUC, eventRepo, eventFeed, authMiddleware)
	governance_delivery.New(e, governanceUC, authMiddleware)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
