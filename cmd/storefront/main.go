// Package main runs the storefront server. It wires the configuration,
// the freshness cache, the upstream catalog client, the page renderer,
// and the HTTP router, then serves until interrupted.
//
// Package main 运行店面服务器。它连接配置、新鲜度缓存、上游目录客户端、
// 页面渲染器和HTTP路由器，然后提供服务直到被中断。
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/noobtrump/storefront/configs"
	"github.com/noobtrump/storefront/internal/catalog"
	"github.com/noobtrump/storefront/internal/handler"
	"github.com/noobtrump/storefront/internal/metrics"
	"github.com/noobtrump/storefront/internal/render"
	"github.com/noobtrump/storefront/internal/upstream"
	"github.com/noobtrump/storefront/pkg/cache"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional and only used for local development
	// .env 是可选的，仅用于本地开发
	_ = godotenv.Load()

	configFile := pflag.StringP("config", "c", "", "path to configuration file (yaml or json)")
	addr := pflag.StringP("addr", "a", "", "listen address, overrides the config file")
	pflag.Parse()

	cfg, vc, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// Cache with the configured freshness lifecycle
	// 使用配置的新鲜度生命周期的缓存
	cacheInstance, err := cache.New(cfg.Cache.Name,
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
		cache.WithShards(cfg.Cache.ShardCount),
		cache.WithEvictionSampleSize(cfg.Cache.EvictionSampleSize),
		cache.WithDefaultLifetime(cache.Lifetime{
			Stale:      cfg.Cache.Stale,
			Revalidate: cfg.Cache.Revalidate,
			Expire:     cfg.Cache.Expire,
		}),
		cache.WithRevalidateWorkers(cfg.Cache.RevalidateWorkers),
		cache.WithRevalidateQueueSize(cfg.Cache.RevalidateQueueSize),
		cache.WithRevalidateTimeout(cfg.Cache.RevalidateTimeout),
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval),
	)
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	defer cacheInstance.Close()

	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)

	lifetimes := catalog.Lifetimes{
		Products: cache.Lifetime{Stale: cfg.Cache.Stale, Revalidate: cfg.Cache.Revalidate, Expire: cfg.Cache.Expire},
		Product:  cache.Lifetime{Stale: cfg.Cache.Stale, Revalidate: cfg.Cache.Revalidate, Expire: cfg.Cache.Expire},
		Categories: cache.Lifetime{
			Stale:      2 * cfg.Cache.Stale,
			Revalidate: 2 * cfg.Cache.Revalidate,
			Expire:     2 * cfg.Cache.Expire,
		},
	}
	svc := catalog.NewService(cacheInstance, client, lifetimes, logger)

	renderer, err := render.New(logger)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enable {
		m = metrics.New(svc.CacheStats)
	}

	router := handler.NewRouter(
		handler.New(svc, renderer, logger),
		handler.NewAPI(svc),
		handler.NewAdmin(svc, logger),
		m, cacheInstance, logger,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Log config changes picked up by hot reload; listener settings still
	// need a restart.
	// 记录热重载获取的配置更改；监听器设置仍需重启。
	if vc != nil {
		vc.Subscribe(func(newCfg *configs.Config) {
			logger.Info("configuration reloaded", "cache_name", newCfg.Cache.Name)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "upstream", cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// loadConfig loads the configuration file when one is given, enabling hot
// reload per its extensions section, and falls back to defaults otherwise.
//
// loadConfig 在给定配置文件时加载它，并根据其扩展部分启用热重载，
// 否则回退到默认值。
func loadConfig(path string) (*configs.Config, *configs.ViperConfig, error) {
	if path == "" {
		if env := os.Getenv("STOREFRONT_CONFIG"); env != "" {
			path = env
		}
	}
	if path == "" {
		return configs.DefaultConfig(), nil, nil
	}

	vc, err := configs.LoadViperConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return vc.Get(), vc, nil
}

// newLogger builds the slog logger described by the log section.
// newLogger 构建日志部分描述的slog日志器。
func newLogger(cfg configs.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}
