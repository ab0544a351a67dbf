package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arjundev/goalfolio/config"
	"github.com/arjundev/goalfolio/data"
	"github.com/arjundev/goalfolio/data/cache"
	"github.com/arjundev/goalfolio/data/repository/postgres"
	"github.com/arjundev/goalfolio/internal/externalApi/fxApi"
	"github.com/arjundev/goalfolio/internal/externalApi/mfApi"
	"github.com/arjundev/goalfolio/internal/externalApi/yahooApi"
	"github.com/arjundev/goalfolio/internal/reportGenerator/xlsxGenerator"
	"github.com/arjundev/goalfolio/internal/scheduler"
	"github.com/arjundev/goalfolio/internal/service/goalService"
	"github.com/arjundev/goalfolio/internal/service/portfolioService"
	"github.com/arjundev/goalfolio/utils"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("can't load timezone, falling back to UTC", slog.String("timezone", cfg.Timezone), slog.String("err", err.Error()))
		loc = time.UTC
	}

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)

	yahooApiClient := yahooApi.New(cfg)
	mfApiClient := mfApi.New(cfg)
	fxApiClient := fxApi.New(cfg)

	reportGenerator := xlsxGenerator.New()

	portfolioSrv := portfolioService.New(cfg, pgRepo, redisCache, yahooApiClient, mfApiClient, fxApiClient, reportGenerator)
	goalSrv := goalService.New(cfg, pgRepo)

	sched := scheduler.New(loc)
	sched.NewCrontabJob("daily snapshot", dailySnapshot(portfolioSrv), cfg.Jobs.DailySnapshotCrontab, false)
	sched.NewCrontabJob("monthly sip run", monthlySipRun(goalSrv), cfg.Jobs.MonthlySipCrontab, false)
	sched.NewIntervalJob("warm quote cache", warmQuoteCache(portfolioSrv), cfg.Jobs.WarmQuoteCacheInterval, true)
	sched.Start()
	defer sched.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

// dailySnapshot records today's price observations first so the snapshot
// sees them.
func dailySnapshot(portfolioSrv *portfolioService.PortfolioService) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx = utils.CreateCtxWithRqID(ctx)

		result, err := portfolioSrv.RefreshPriceHistory(ctx)
		if err != nil {
			return err
		}

		slog.Info("price history refreshed", slog.Int("updated", len(result.Updated)), slog.Int("skipped", len(result.Skipped)))

		snapshot, err := portfolioSrv.SnapshotPortfolio(ctx)
		if err != nil {
			return err
		}

		slog.Info("portfolio snapshot recorded", slog.Int("holdings", snapshot.Holdings), slog.String("totalValue", snapshot.TotalValue.StringFixed(2)))

		return nil
	}
}

func monthlySipRun(goalSrv *goalService.GoalService) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx = utils.CreateCtxWithRqID(ctx)

		result, err := goalSrv.ApplyRecurringContributions(ctx)
		if err != nil {
			return err
		}

		slog.Info("recurring contributions applied", slog.Int("applied", result.Applied), slog.Int("skipped", result.Skipped), slog.Int("failed", result.Failed))

		return nil
	}
}

func warmQuoteCache(portfolioSrv *portfolioService.PortfolioService) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return portfolioSrv.WarmQuoteCache(utils.CreateCtxWithRqID(ctx))
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
