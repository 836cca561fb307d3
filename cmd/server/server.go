package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/workhive/workhive-server/internal/config"
	"github.com/workhive/workhive-server/internal/domain/chat"
	"github.com/workhive/workhive-server/internal/domain/order"
	"github.com/workhive/workhive-server/internal/infrastructure/database"
	"github.com/workhive/workhive-server/internal/infrastructure/database/repository/chatrepo"
	"github.com/workhive/workhive-server/internal/infrastructure/database/repository/orderrepo"
	"github.com/workhive/workhive-server/internal/infrastructure/database/transaction"
	"github.com/workhive/workhive-server/internal/infrastructure/logger"
	"github.com/workhive/workhive-server/internal/infrastructure/metrics"
	"github.com/workhive/workhive-server/internal/infrastructure/notify"
	"github.com/workhive/workhive-server/internal/infrastructure/observability"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/handlers/orderhandler"
	v1 "github.com/workhive/workhive-server/internal/interfaces/httpserver/routes/v1"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/routes/v1/conversations"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/routes/v1/orders"

	_ "github.com/workhive/workhive-server/internal/infrastructure/database/dbschema"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.GetLogger()
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log, err := logger.New(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog := logger.GetLogger()
		bootLog.Fatal().Err(err).Msg("initialize logger")
	}

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	db, err := database.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("apply sql migrations")
		}
		if err := database.Migration(db, database.TablePrefix); err != nil {
			log.Fatal().Err(err).Msg("sync schema registry")
		}
	}

	txDB := transaction.NewDatabase(db)
	conversationRepo := chatrepo.NewConversationGormRepository(txDB)
	messageRepo := chatrepo.NewMessageGormRepository(txDB)
	orderRepo := orderrepo.NewOrderGormRepository(txDB)

	broker := chat.NewBroker(conversationRepo, messageRepo, log)

	var publisher chat.ChangePublisher
	var subscriber *notify.RedisSubscriber
	if cfg.RedisEnabled() {
		redisClient, err := notify.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		publisher = notify.NewRedisPublisher(redisClient)
		subscriber = notify.NewRedisSubscriber(redisClient, log)
	}

	chatService := chat.NewChatService(conversationRepo, messageRepo, txDB, broker, publisher, log)
	orderService := order.NewOrderService(orderRepo)

	chatHandler := chathandler.NewChatHandler(chatService, log)
	orderHandler := orderhandler.NewOrderHandler(orderService, log)
	v1Route := v1.NewV1Route(
		conversations.NewConversationRoute(chatHandler),
		orders.NewOrderRoute(orderHandler),
	)
	server := httpserver.NewHttpServer(v1Route, log, cfg)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), mux)
		if err != nil {
			cancel()
		}
		return err
	})
	if subscriber != nil {
		eg.Go(func() error {
			err := subscriber.Run(runCtx, func(event chat.ChangeEvent) {
				metrics.RemoteChangeEventsTotal.Inc()
				chatService.HandleRemoteChange(event)
			})
			if err != nil && runCtx.Err() == nil {
				cancel()
				return err
			}
			return nil
		})
	}
	eg.Go(func() error {
		err := server.Run()
		if err != nil {
			cancel()
		}
		return err
	})

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Int("metrics_port", cfg.MetricsPort).
		Str("environment", cfg.Environment).
		Msg("chat-api started")

	if err := eg.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
