package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/coderoom/config"
	"github.com/cwrk-planet/coderoom/internal/memory"
	"github.com/cwrk-planet/coderoom/internal/postgres"
	"github.com/cwrk-planet/coderoom/internal/redis"
	"github.com/cwrk-planet/coderoom/internal/sandbox"
	"github.com/cwrk-planet/coderoom/internal/service"
	grpcx "github.com/cwrk-planet/coderoom/internal/transport/grpc"
	httpx "github.com/cwrk-planet/coderoom/internal/transport/http"
	"github.com/cwrk-planet/coderoom/internal/transport/ws"
	"github.com/cwrk-planet/coderoom/pkg/logger"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	// --- config ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("config: %v", err)
	}

	svcName := cfg.Logging.Service
	if svcName == "" {
		svcName = "roomd"
	}
	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   svcName,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting roomd",
		"version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	// --- tracing: span на каждый HTTP-запрос, trace_id попадает в логи ---
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("roomd stopped with error", slog.Any("err", err))
		_ = tp.Shutdown(context.Background())
		os.Exit(1)
	}
	_ = tp.Shutdown(context.Background())
	slog.Info("stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	// --- storage ---
	roomRepo, partRepo, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	// --- services ---
	roomSvc := service.NewRoomService(roomRepo)
	memberSvc := service.NewMemberService(roomRepo, partRepo)
	chatSvc := service.NewChatService()

	// --- sandbox ---
	sb := sandbox.New(sandbox.Config{
		PythonWasm: cfg.Sandbox.PythonWasm,
		PythonHome: cfg.Sandbox.PythonHome,
		Timeout:    config.ParseDurationOr(0, cfg.Sandbox.Timeout),
	})
	defer func() { _ = sb.Close(context.Background()) }()
	if cfg.Sandbox.Warmup {
		if err := sb.Warmup(ctx); err != nil {
			slog.Warn("python warmup failed", slog.Any("err", err))
		}
	}

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, roomSvc, memberSvc, chatSvc)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, memberSvc, sb)
	router := httpx.NewRouter(httpx.Deps{
		Handler:     handler,
		WS:          wsServer.HandleWS,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})
	httpSrv := httpx.New(httpx.Config{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  config.ParseDurationOr(15*time.Second, cfg.HTTP.ReadTimeout),
		WriteTimeout: config.ParseDurationOr(0, cfg.HTTP.WriteTimeout),
		IdleTimeout:  config.ParseDurationOr(60*time.Second, cfg.HTTP.IdleTimeout),
	}, router)
	httpSrv.OnShutdown(hub.CloseAll)

	// --- gRPC ---
	grpcSrv := grpcx.NewServer()

	// --- run both servers ---
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)

	go func() { errCh <- httpSrv.Run(ctx) }()
	go func() { errCh <- grpcSrv.Run(ctx, cfg.GRPC.Addr) }()
	grpcSrv.SetServing(true)

	// первый завершившийся останавливает второго
	first := <-errCh
	cancel()
	second := <-errCh
	return errors.Join(first, second)
}

func openStorage(ctx context.Context, cfg *config.Config) (service.RoomRepository, service.ParticipantRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.Postgres.DSN,
			postgres.WithApplicationName("roomd"),
			postgres.WithMaxConns(cfg.Postgres.MaxConns),
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, nil, fmt.Errorf("postgres migrate: %w", err)
			}
		}
		return postgres.NewRoomRepository(pool), postgres.NewParticipantRepository(pool), pool.Close, nil

	case config.DriverRedis:
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("redis: %w", err)
		}
		return redis.NewRoomRepository(client, cfg.Redis.KeyPrefix),
			redis.NewParticipantRepository(client, cfg.Redis.KeyPrefix),
			func() { _ = client.Close() }, nil

	default:
		return memory.NewRoomRepository(), memory.NewParticipantRepository(), func() {}, nil
	}
}
