package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ozontech/s3-uploader/internal/api"
	upload_v1 "github.com/ozontech/s3-uploader/internal/api/upload/v1"
	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/app/server"
	"github.com/ozontech/s3-uploader/internal/pkg/filestore"
	"github.com/ozontech/s3-uploader/internal/pkg/service/upload"
	"github.com/ozontech/s3-uploader/logger"
	"github.com/ozontech/s3-uploader/tracing"
	"go.uber.org/zap"
)

const (
	defaultConfig = "config/config.example.yaml"

	tracingShutdownTimeout = 5 * time.Second
)

var (
	configPath = flag.String("config", defaultConfig, "application config")
)

func init() {
	// Load .env file for local development (optional).
	// OS environment variables take precedence.
	_ = godotenv.Load()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM,
		os.Interrupt,
	)
	defer cancel()

	run(ctx)
}

func run(ctx context.Context) {
	flag.Parse()
	defer logger.Sync()

	if *configPath == defaultConfig {
		logger.Warn("app uses the default config file, to provide your own config use -config flag")
	}

	cfg, err := config.FromFile(*configPath)
	if err != nil {
		logger.Fatal("read config file error", zap.Error(err))
	}

	initTracing(cfg.Tracing)
	defer shutdownTracing()

	registrar := initApp(cfg)

	serv, err := server.New(ctx, cfg.Server, registrar)
	if err != nil {
		logger.Fatal("app init error", zap.Error(err))
	}

	// Run launches http and debug servers. On successful
	// http.ErrServerClosed is returned because of http.Server.Serve.
	if err = serv.Run(ctx); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("app run", zap.Error(err))
	}
}

func initApp(cfg config.Config) *api.Registrar {
	logger.Info("initializing file store", zap.String("provider", cfg.FileStore.Provider))
	store, err := filestore.New(*cfg.FileStore)
	if err != nil {
		logger.Fatal("failed to init file store", zap.Error(err))
	}

	uploadService := upload.New(store, *cfg.FileStore)

	return api.NewRegistrar(
		upload_v1.New(uploadService, cfg.Handlers.Upload),
	)
}

func initTracing(cfg *config.Tracing) {
	if cfg == nil {
		logger.Info("tracing is disabled")
		return
	}

	tracingCfg, err := tracing.Initialize(cfg)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return
	}

	logger.Info(
		"tracing initialization success",
		zap.String("service_name", tracingCfg.ServiceName),
		zap.String("agent_host", tracingCfg.AgentHost),
		zap.String("agent_port", tracingCfg.AgentPort),
		zap.Float64("sampler_param", tracingCfg.SamplerParam))
}

func shutdownTracing() {
	ctx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
	defer cancel()

	if err := tracing.Shutdown(ctx); err != nil {
		logger.Error("tracing shutdown failed", zap.Error(err))
	}
}
