package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "fridgemap/docs"
	"fridgemap/internal/config"
	"fridgemap/internal/events"
	"fridgemap/internal/handler"
	"fridgemap/internal/metrics"
	"fridgemap/internal/repository"
	"fridgemap/internal/service"
	"fridgemap/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 10 * time.Second

// @title        Fridge Map API
// @version      1.0
// @description  Directory of community fridges.
// @BasePath     /
func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	if config.IsLocal() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	conn, err := pgxpool.New(ctx, config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	repo := repository.NewRepository(conn)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("cannot apply schema")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	// Fridge events
	var publisher events.Publisher = events.NopPublisher{}
	if brokers := config.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, config.KafkaTopic, log.Logger)
		log.Info().Strs("brokers", brokers).Str("topic", config.KafkaTopic).Msg("publishing fridge events")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("cannot close event publisher")
		}
	}()

	// Image storage
	var images service.ImageStore
	if config.MinioEndpoint != "" {
		store, err := storage.NewImageStore(ctx, storage.Config{
			Endpoint:  config.MinioEndpoint,
			AccessKey: config.MinioAccessKey,
			SecretKey: config.MinioSecretKey,
			Bucket:    config.MinioBucket,
			Region:    config.MinioRegion,
			UseSSL:    config.MinioUseSSL,
			PublicURL: config.MinioPublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to object storage")
		}
		images = store
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set, image uploads are disabled")
	}

	// Initialize layers
	fridgeService := service.NewFridgeService(repo, publisher, images, m, log.Logger)
	fridgeHandler := handler.NewFridgeHandler(fridgeService, log.Logger)

	r := gin.New()
	r.MaxMultipartMemory = handler.MaxImageSize
	r.Use(
		gin.Recovery(),
		handler.RequestLogger(log.Logger),
		handler.CORS(config.CORSOrigin),
		m.Middleware(),
	)

	r.GET("/health", handler.Health(repo))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	handler.Register(r.Group("/api/fridges"), handler.FridgeRoutes(fridgeHandler))

	srv := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", config.ServerAddress).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
