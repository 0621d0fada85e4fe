package nftmeta

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/tracing"
	"github.com/nftmeta/nftmeta/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const DefaultConfigPath = "./nftmeta.yaml"

// LoadEnvFile loads a .env file into the process environment when one exists,
// so that ${VARS} in the config file can be resolved from it.
func LoadEnvFile(logger *zerolog.Logger, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to load env file")
		return
	}
	logger.Info().Str("path", path).Msg("loaded env file")
}

func ResolveConfig(logger *zerolog.Logger, fs afero.Fs, configPath string) (*common.Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	if _, err := fs.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file '%s' does not exist", configPath)
	}
	logger.Info().Msgf("resolved configuration file to: %s", configPath)
	cfg, err := common.LoadConfig(fs, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}
	return cfg, nil
}

func Init(
	ctx context.Context,
	logger zerolog.Logger,
	fs afero.Fs,
	configPath string,
) error {
	//
	// 1) Load configuration
	//
	logger.Info().Msg("loading nftmeta configuration")
	LoadEnvFile(&logger, ".env")
	cfg, err := ResolveConfig(&logger, fs, configPath)
	if err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Msgf("invalid log level '%s', defaulting to 'debug': %s", cfg.LogLevel, err)
	} else {
		logger = logger.Level(level)
	}
	logger.Debug().Object("providers", cfg.Providers).Msg("configured providers")

	if cfg.Tracing != nil && cfg.Tracing.Enabled {
		if err := tracing.Initialize(ctx, &logger, cfg.Tracing); err != nil {
			logger.Error().Err(err).Msg("failed to initialize tracing, continuing without it")
		} else if tracing.IsEnabled() {
			logger.Info().Str("endpoint", cfg.Tracing.Endpoint).Msg("tracing enabled")
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracing.Shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("failed to flush traces")
				}
			}()
		}
	}

	//
	// 2) Initialize resolvers
	//
	logger.Info().Msg("initializing nftmeta")
	nm, err := NewNftMeta(ctx, &logger, cfg)
	if err != nil {
		return err
	}

	//
	// 3) Expose transports
	//
	logger.Info().Msg("initializing transports")
	httpServer := NewHttpServer(ctx, &logger, cfg.Server, nm)
	go func() {
		if err := httpServer.Start(&logger); err != nil {
			if err != http.ErrServerClosed {
				logger.Error().Msgf("failed to start http server: %v", err)
				util.OsExit(util.ExitCodeHttpServerFailed)
			}
		}
	}()

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port)
		logger.Info().Msgf("starting metrics server on %s", addr)
		srv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Msgf("error starting metrics server: %s", err)
				util.OsExit(util.ExitCodeHttpServerFailed)
			}
		}()
		go func() {
			<-ctx.Done()
			logger.Info().Msg("shutting down metrics server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Msgf("metrics server forced to shutdown: %s", err)
			} else {
				logger.Info().Msg("metrics server stopped")
			}
		}()
	}

	return nil
}
