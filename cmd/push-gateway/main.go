// cmd/push-gateway/main.go
package main

import (
	"context"
	"os"

	"gamestore/internal/pkg/bootstrap"
	"gamestore/internal/pkg/logger"
	"gamestore/internal/pkg/mq"
	"gamestore/internal/pkg/redis"
	"gamestore/internal/service/push"

	"github.com/google/uuid"
)

const serviceName = "push-gateway"

func main() {
	cfg, err := bootstrap.Setup(serviceName)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.L()
	nodeID := serviceName + "-" + uuid.New().String()[:8]

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	sessions, err := push.NewSessionRegistry(redisClient, cfg.App.Push.SessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session registry")
	}

	// 每个节点使用独立的消费者组，保证所有节点都能收到全部事件
	reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topic, cfg.App.Push.GroupID+"-"+nodeID)
	hub := push.NewHub(nodeID)
	consumer := push.NewEventConsumer(reader, hub)
	gateway := push.NewGateway(hub, sessions)

	err = bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Push.Port,
		Config:      cfg,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			gateway.RegisterRoutes(appCtx.Mux)
		},
		Workers:  []func(context.Context) error{hub.Run, consumer.Run},
		Metadata: map[string]string{"nodeId": nodeID},
		OnShutdown: []func(context.Context) error{
			func(context.Context) error { return redisClient.Close() },
			func(context.Context) error { return reader.Close() },
		},
	})
	if err != nil {
		os.Exit(1)
	}
}
