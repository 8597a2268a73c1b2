package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/esimov/avatar"
	"github.com/esimov/avatar/config"
	"github.com/esimov/avatar/filestore"
	"github.com/esimov/avatar/generator"
	"github.com/esimov/avatar/logging"
	"github.com/esimov/avatar/server"
	"github.com/esimov/avatar/store"
	"github.com/esimov/avatar/utils"
	"github.com/esimov/avatar/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Version indicates the current build version.
var Version = "dev"

var (
	configPath = flag.String("config", "", "Path to the YAML configuration file")
	envPath    = flag.String("env", ".env", "Path to an optional .env file")
)

// durableStore is the validation tier together with its maintenance hooks.
type durableStore interface {
	validation.Store
	Purge(ctx context.Context) (int, error)
	Close() error
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText("Invalid configuration: "+err.Error(), utils.ErrorMessage))
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText("Unable to create the logger: "+err.Error(), utils.ErrorMessage))
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("avatard_failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("avatard_starting",
		zap.String("version", Version),
		zap.String("addr", cfg.Server.Addr),
		zap.String("store", cfg.Store.Driver),
		zap.String("files", cfg.Files.Driver),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	go purge(ctx, db, cfg.Store.PurgeInterval, logger)

	prober := validation.NewHTTPProber(cfg.Gravatar.Endpoint, cfg.Gravatar.Timeout)
	if cfg.Gravatar.Rate > 0 {
		prober.Limiter = rate.NewLimiter(rate.Limit(cfg.Gravatar.Rate), max(cfg.Gravatar.Burst, 1))
	}
	validator := validation.New(db, prober, validation.Options{
		Logger:  logger.Named("validation"),
		Metrics: validation.NewMetrics(reg),
	})

	files, err := openFiles(cfg.Files, logger)
	if err != nil {
		return err
	}

	gens, err := newGenerators(cfg.Icons, logger)
	if err != nil {
		return err
	}
	kind, err := generator.ParseKind(cfg.Icons.Default)
	if err != nil {
		return err
	}

	svc, err := avatar.New(validator, files, avatar.Options{
		Generators: gens,
		Default:    kind,
		RemoteURL:  cfg.Gravatar.RemoteURL,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	opts := server.Options{
		Mode:        cfg.Server.Mode,
		DefaultSize: cfg.Icons.Size,
		Registry:    reg,
		Logger:      logger.Named("http"),
	}
	if cfg.Files.Driver == "local" && strings.HasPrefix(cfg.Files.BaseURL, "/") {
		opts.StaticDir = cfg.Files.Dir
		opts.StaticPath = cfg.Files.BaseURL
	}

	return server.New(svc, opts).Run(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}

func openStore(cfg config.StoreConfig, logger *zap.Logger) (durableStore, error) {
	opts := store.Options{Logger: logger.Named("store")}
	if cfg.Driver == "memory" {
		return store.NewMemory(opts), nil
	}
	return store.OpenPebble(cfg.Path, opts)
}

func openFiles(cfg config.FilesConfig, logger *zap.Logger) (filestore.Cache, error) {
	logger = logger.Named("files")
	if cfg.Driver == "minio" {
		return filestore.NewMinio(filestore.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			BaseURL:   cfg.Minio.BaseURL,
		}, logger)
	}
	return filestore.NewLocal(cfg.Dir, cfg.BaseURL, logger)
}

func newGenerators(cfg config.IconsConfig, logger *zap.Logger) ([]generator.Generator, error) {
	var parts fs.FS
	if cfg.PartsDir != "" {
		parts = os.DirFS(cfg.PartsDir)
	} else {
		logger.Warn("no_parts_dir", zap.String("hint", "layered icons are rendered without sprites"))
	}
	return generator.All(generator.Options{
		Parts:     parts,
		Logger:    logger.Named("generator"),
		Rasterize: cfg.Rasterize,
	})
}

// purge drops the expired validation results every interval.
func purge(ctx context.Context, db durableStore, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.Purge(ctx)
			if err != nil {
				logger.Warn("store_purge_failed", zap.Error(err))
				continue
			}
			logger.Debug("store_purged", zap.Int("entries", n))
		}
	}
}
