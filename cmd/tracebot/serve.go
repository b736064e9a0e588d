package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/tracebot-dev/tracebot/internal/bot"
	"github.com/tracebot-dev/tracebot/internal/channel"
	"github.com/tracebot-dev/tracebot/internal/channel/adapters/matrix"
	"github.com/tracebot-dev/tracebot/internal/config"
	"github.com/tracebot-dev/tracebot/internal/logger"
	"github.com/tracebot-dev/tracebot/internal/media"
	"github.com/tracebot-dev/tracebot/internal/preview"
	"github.com/tracebot-dev/tracebot/internal/render"
	"github.com/tracebot-dev/tracebot/internal/trace"
	"github.com/tracebot-dev/tracebot/internal/version"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideHTTPClient,
			provideTraceClient,
			provideValidator,
			provideFormatter,
			provideMatrixAdapter,
			provideAssembler,
			provideDispatcher,
		),
		fx.Invoke(startBot),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideHTTPClient() *http.Client {
	// Shared by the URL validator and the preview fetcher. Preview clips can
	// take a while to cut on the trace.moe side.
	return &http.Client{Timeout: 60 * time.Second}
}

func provideTraceClient(log *slog.Logger, cfg config.Config) *trace.Client {
	return trace.NewClient(log, cfg.Trace)
}

func provideValidator(log *slog.Logger, client *http.Client) *media.Validator {
	return media.NewValidator(log, client)
}

func provideFormatter(log *slog.Logger, cfg config.Config) *render.Formatter {
	return render.NewFormatter(log, cfg.Trace.MaxResults)
}

func provideMatrixAdapter(log *slog.Logger, cfg config.Config) (*matrix.Adapter, error) {
	return matrix.NewAdapter(log, cfg)
}

func provideAssembler(log *slog.Logger, client *http.Client, adapter *matrix.Adapter, cfg config.Config) *preview.Assembler {
	return preview.NewAssembler(log, client, adapter, cfg.Trace)
}

func provideDispatcher(log *slog.Logger, adapter *matrix.Adapter, client *trace.Client, validator *media.Validator, formatter *render.Formatter, assembler *preview.Assembler) *bot.Dispatcher {
	var host channel.Host = adapter
	return bot.NewDispatcher(log, host, client, validator, formatter, assembler)
}

func startBot(lc fx.Lifecycle, log *slog.Logger, adapter *matrix.Adapter, dispatcher *bot.Dispatcher, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting tracebot %s\n", version.GetInfo())
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := adapter.Run(ctx, dispatcher.Handle); err != nil {
					log.Error("sync loop failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error { cancel(); return nil },
	})
}
