package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MedMemory/backend/go/internal/config"
	"MedMemory/backend/go/internal/database/kafka"
	"MedMemory/backend/go/internal/database/mongo"
	"MedMemory/backend/go/internal/database/neo4j"
	"MedMemory/backend/go/internal/database/redis"
	"MedMemory/backend/go/internal/database/sqldb"
	"MedMemory/backend/go/internal/discovery/etcd"
	"MedMemory/backend/go/internal/memory/api"
	"MedMemory/backend/go/internal/memory/consumer"
	"MedMemory/backend/go/internal/memory/publisher"
	"MedMemory/backend/go/internal/memory/service"
	"MedMemory/backend/go/internal/memory/store"
	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/pkg/circuitbreaker"
	pkghttp "MedMemory/backend/go/pkg/http"
	"MedMemory/backend/go/pkg/logger"
	"MedMemory/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New(cfg.App.Name, "", "")
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	checks := map[string]api.HealthCheck{}

	// Fact versions (required)
	db, err := sqldb.GetDB(&cfg.Databases.SQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer sqldb.Close()
	checks["sql"] = sqldb.HealthCheck
	facts, err := store.NewGormFactStore(db)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Session windows: Redis when configured, otherwise in-process
	ttl, _ := cfg.Decision.SessionTTLDuration()
	var sessions store.SessionStore = store.NewMemorySessionStore()
	if cfg.Databases.Redis.Address != "" {
		redisClient, err := redis.GetClient(&cfg.Databases.Redis)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer redis.Close()
		sessions = store.NewRedisSessionStore(redisClient, ttl)
		checks["redis"] = redis.HealthCheck
	}

	memoryService := service.NewMemoryService(facts, sessions, service.OptionsFromConfig(cfg.Decision), appLogger)

	// Optional sinks, each behind its own breaker
	for _, sink := range []string{"graph", "audit", "publish"} {
		cb, err := circuitbreaker.FromConfig(cfg.CircuitBreaker)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		memoryService.WithBreaker(sink, cb)
	}

	if cfg.Databases.MongoDB.Address != "" {
		collection, err := mongo.GetCollection(&cfg.Databases.MongoDB)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer mongo.Close(context.Background())
		memoryService.WithAudit(store.NewMongoAuditStore(collection))
		checks["mongodb"] = mongo.HealthCheck
	}

	if cfg.Databases.Neo4j.Uri != "" {
		neo4jClient, err := neo4j.GetClient(ctx, &cfg.Databases.Neo4j)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer neo4jClient.Close(context.Background())
		memoryService.WithGraph(store.NewNeo4jGraphStore(neo4jClient))
		checks["neo4j"] = neo4jClient.HealthCheck
	}

	if len(cfg.Databases.Kafka.Brokers) > 0 {
		kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer kafkaClient.Close()
		memoryService.WithPublisher(publisher.NewDecisionPublisher(kafkaClient.Writer, appLogger))
		checks["kafka"] = kafkaClient.HealthCheck

		// Initialize and start Kafka consumer
		consumer.NewKafkaConsumer(kafkaClient.Reader, memoryService, appLogger).Start(ctx)
	}

	// HTTP API
	var limiter ratelimiter.RateLimiter
	if cfg.Server.RateLimit.Enabled {
		limiter = ratelimiter.NewTokenBucket(cfg.Server.RateLimit.Rate, cfg.Server.RateLimit.Burst)
	}
	handler := api.NewHandler(memoryService, appLogger, checks)
	server := pkghttp.NewServer(api.SetupRouter(handler, limiter, appLogger), pkghttp.WithAddress(cfg.Server.Address))
	go func() {
		if err := server.ListenAndServe(); err != nil {
			appLogger.Fatal(err.Error())
		}
	}()

	// Service registration
	if len(cfg.Databases.Etcd.Endpoints) > 0 {
		discovery, err := etcd.NewServiceDiscovery(&cfg.Databases.Etcd)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer discovery.Close()
		advertise := cfg.Server.AdvertiseAddress
		if advertise == "" {
			advertise = server.Addr()
		}
		stop, err := discovery.Register(ctx, cfg.App.Name, advertise, cfg.Server.RegisterTTL)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer close(stop)
	}

	appLogger.WithPayload(map[string]interface{}{"address": server.Addr(), "mode": cfg.Decision.Mode}).Info("Memory service started")

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(models.NewErrorInfo(err, "shutdown")).Error("failed to shut down http server")
	}
	cancel()

	appLogger.Info("Memory service stopped")
}
