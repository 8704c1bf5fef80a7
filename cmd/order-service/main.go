// cmd/order-service/main.go
package main

import (
	"context"
	"os"

	"gamestore/internal/pkg/bootstrap"
	"gamestore/internal/pkg/logger"
	"gamestore/internal/pkg/mq"
	"gamestore/internal/pkg/redis"
	"gamestore/internal/pkg/zookeeper"
	"gamestore/internal/service/order/application"
	"gamestore/internal/service/order/infrastructure"
	"gamestore/internal/service/order/infrastructure/adapter"
	"gamestore/internal/service/order/interfaces"
	"gamestore/internal/service/order/port"

	"go.opentelemetry.io/otel"
)

const serviceName = "order-service"

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	cfg, err := bootstrap.Setup(serviceName)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.L()

	var shutdowns []func(context.Context) error

	// 1. 基础设施
	db, err := infrastructure.NewDatabase(cfg.Infra.MySQL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MySQL")
	}
	shutdowns = append(shutdowns, func(context.Context) error { return infrastructure.CloseDatabase(db) })

	var idempotency port.IdempotencyStore
	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, Idempotency-Key support disabled")
	} else {
		store, err := adapter.NewIdempotencyRedisAdapter(redisClient, cfg.App.IdempotencyTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create idempotency store")
		}
		idempotency = store
		shutdowns = append(shutdowns, func(context.Context) error { return redisClient.Close() })
	}

	// 2. 可选的分布式库存锁，未启用时只依赖数据库行锁
	var locker port.StockLocker
	if cfg.Infra.Zookeeper.Enabled {
		conn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to ZooKeeper")
		}
		locker = infrastructure.NewZookeeperStockLocker(conn)
		shutdowns = append(shutdowns, func(context.Context) error { conn.Close(); return nil })
	}

	// 3. 订单事件中继
	var workers []func(context.Context) error
	if cfg.App.Outbox.Enabled {
		writer := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topic)
		publisher := adapter.NewEventKafkaAdapter(writer)
		relay := infrastructure.NewOutboxRelay(
			infrastructure.NewGormOutboxStore(db),
			publisher,
			otel.Tracer(serviceName),
			cfg.App.Outbox.PollInterval,
			cfg.App.Outbox.BatchSize,
		)
		workers = append(workers, relay.Run)
		shutdowns = append(shutdowns, func(context.Context) error { return publisher.Close() })
	}

	// 4. 应用层与接口层
	tracer := otel.Tracer(serviceName)
	orderService := application.NewOrderApplicationService(
		infrastructure.NewGormUnitOfWork(db),
		infrastructure.NewGormOrderReader(db),
		locker,
		tracer,
		cfg.App.ProcessingTimeout,
	)
	catalogService := application.NewCatalogService(infrastructure.NewGormCatalogRepository(db), tracer)
	notificationService := application.NewNotificationService(infrastructure.NewGormNotificationRepository(db), tracer)
	handler := interfaces.NewOrderHandler(orderService, catalogService, notificationService, idempotency)

	err = bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Config:      cfg,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		Workers:    workers,
		OnShutdown: shutdowns,
	})
	if err != nil {
		os.Exit(1)
	}
}
