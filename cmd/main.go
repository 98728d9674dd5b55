package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"filevault/internal/auth"
	"filevault/internal/config"
	"filevault/internal/handler"
	"filevault/internal/logger"
	"filevault/internal/metrics"
	"filevault/internal/repository"
	"filevault/internal/repository/memory"
	"filevault/internal/server"
	"filevault/internal/service"
	"filevault/internal/service/s3"
)

func connectWithRetry(cfg config.DatabaseConfig, maxAttempts int, delay time.Duration, logger zerolog.Logger) (*sqlx.DB, error) {
	// Сначала подключаемся к базе postgres (системная база, которая всегда существует)
	adminCfg := cfg
	adminCfg.Name = "postgres"
	pgDB, err := sqlx.Connect("postgres", adminCfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer pgDB.Close()

	// Проверяем, существует ли база данных приложения
	var exists bool
	err = pgDB.Get(&exists, "SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1)", cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	// Если базы нет, создаем её
	if !exists {
		logger.Info().Str("database", cfg.Name).Msg("database does not exist, creating")
		if _, err := pgDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(cfg.Name)); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	var db *sqlx.DB
	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", cfg.GetDSN())
		if err == nil {
			return db, nil
		}

		logger.Warn().Err(err).Int("attempt", i+1).Int("max_attempts", maxAttempts).Msg("failed to connect to database")
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxAttempts, err)
}

func runMigrations(cfg *config.Config, logger zerolog.Logger) error {
	var m *migrate.Migrate
	var err error

	for i := 0; i < 5; i++ {
		m, err = migrate.New("file://migrations", cfg.Database.GetURL())
		if err == nil {
			break
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("failed to create migrate instance")
		time.Sleep(time.Second * 5)
	}

	if err != nil {
		return fmt.Errorf("failed to create migrate instance after retries: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		logger.Warn().Uint("version", version).Msg("found dirty database state, forcing version")
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

type stores struct {
	files     service.FileStore
	favorites service.FavoriteStore
	users     service.UserStore
}

func main() {
	// Загружаем конфигурации
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	appLogger := logger.New(appConfig.Logging)

	// Метрики на отдельном реестре
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// Инициализация репозиториев
	var st stores
	var db *sqlx.DB
	switch appConfig.Database.Driver {
	case "memory":
		appLogger.Warn().Msg("using in-memory database, data will be lost on restart")
		memDB := memory.NewDB()
		st = stores{
			files:     memory.NewFileRepository(memDB),
			favorites: memory.NewFavoriteRepository(memDB),
			users:     memory.NewUserRepository(memDB),
		}
	default:
		db, err = connectWithRetry(appConfig.Database, 5, time.Second*5, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect to database after retries")
		}
		defer db.Close()

		if err := runMigrations(appConfig, appLogger); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to run migrations")
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to ping database")
		}

		st = stores{
			files:     repository.NewFileRepository(db),
			favorites: repository.NewFavoriteRepository(db),
			users:     repository.NewUserRepository(db),
		}
	}

	// Инициализация хранилища
	s3Config, err := s3.NewConfig(".s3.env")
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to load storage config")
	}

	var storage s3.Storage
	var memStorage *s3.MemoryStorage
	if s3Config.Driver == "memory" {
		memStorage = s3.NewMemoryStorage(s3Config.MemoryBaseURL)
		storage = memStorage
	} else {
		s3Client, err := s3.NewClient(s3Config, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to create S3 client")
		}
		storage = s3Client
	}

	authConfig, err := auth.NewConfig(".auth.env")
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to load auth config")
	}
	verifier := auth.NewVerifier(authConfig)

	// Инициализация сервисов
	guard := service.NewAccessGuard(st.files)
	userService, err := service.NewUserService(st.users, 0, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to create user service")
	}
	fileService := service.NewFileService(
		st.files,
		st.favorites,
		storage,
		guard,
		userService,
		appConfig.Retention.Window,
		appMetrics,
		appLogger,
	)
	sweeper := service.NewRetentionSweeper(st.files, storage, service.SweeperConfig{
		Window:    appConfig.Retention.Window,
		Schedule:  appConfig.Retention.Schedule,
		BatchSize: appConfig.Retention.BatchSize,
	}, appMetrics, appLogger)

	// Инициализация хендлеров
	fileHandler := handler.NewFileHandler(fileService, 0, appLogger)
	userHandler := handler.NewUserHandler(userService, appLogger)

	// Настройка HTTP роутера
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handler.RequestLogger(appLogger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(appConfig.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	if memStorage != nil {
		r.Get("/blobs/*", handler.NewBlobHandler(memStorage, appLogger).ServeBlob)
	}

	// HTTP маршруты
	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware(verifier, appLogger))
		fileHandler.Routes(r)
		userHandler.Routes(r)
	})

	// gRPC сервер отдает только health
	var pinger server.Pinger
	if db != nil {
		pinger = db
	}
	grpcServer := server.NewGRPCServer(pinger, appLogger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: r,
	}

	// Канал для сигналов завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем gRPC сервер
	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", appConfig.Server.GRPCPort))
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to listen for gRPC")
		}
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal().Err(err).Msg("gRPC server stopped")
		}
	}()

	// Запускаем HTTP сервер
	go func() {
		appLogger.Info().Str("port", appConfig.Server.Port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()

	// Проверка зависимостей для health
	grpcServer.Check(ctx)
	healthTicker := time.NewTicker(30 * time.Second)
	go func() {
		for {
			select {
			case <-healthTicker.C:
				checkCtx, checkCancel := context.WithTimeout(ctx, 5*time.Second)
				grpcServer.Check(checkCtx)
				checkCancel()
			case <-ctx.Done():
				healthTicker.Stop()
				return
			}
		}
	}()

	// Запускаем очистку корзины
	if err := sweeper.Start(ctx); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to start retention sweeper")
	}

	// Ожидаем сигнал завершения
	<-quit
	appLogger.Info().Msg("shutting down servers")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}

	grpcServer.GracefulStop()
	sweeper.Stop()

	appLogger.Info().Msg("server exited properly")
}
