package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"CrudeSentinel/internal/alert"
	"CrudeSentinel/internal/api"
	"CrudeSentinel/internal/cache"
	"CrudeSentinel/internal/collector"
	"CrudeSentinel/internal/config"
	"CrudeSentinel/internal/logging"
	"CrudeSentinel/internal/model"
	"CrudeSentinel/internal/notifier"
	"CrudeSentinel/internal/recorder"
	"CrudeSentinel/internal/report"
	"CrudeSentinel/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("could not load .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("config validation")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.WithError(err).Fatal("setup logging")
	}
	log.Info("CrudeSentinel starting...")

	settings, err := cfg.Settings()
	if err != nil {
		log.WithError(err).Fatal("strategy settings")
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Source {
	case "vstrader":
		fetcher = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{Price: 70}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).Warn("redis unavailable, bar cache disabled")
			rdb.Close()
		} else {
			defer rdb.Close()
			fetcher = collector.NewCachedFetcher(fetcher, cache.NewBarCache(rdb, cfg.Redis.TTL))
		}
		cancel()
	}
	log.WithField("source", fetcher.Name()).Info("data source ready")

	var positioning collector.PositioningFetcher
	if pos := cfg.Auxiliary.Positioning; pos.Enabled {
		cftc := collector.NewCFTCFetcher(cfg.Proxy)
		if pos.BaseURL != "" {
			cftc.BaseURL = pos.BaseURL
		}
		if pos.LongField != "" {
			cftc.LongField = pos.LongField
		}
		if pos.ShortField != "" {
			cftc.ShortField = pos.ShortField
		}
		positioning = cftc
	}
	col := collector.NewCollector(fetcher, positioning, cfg.DataSource.Symbol,
		model.Interval(cfg.DataSource.Interval), cfg.DataSource.Bars, cfg.Auxiliary.Positioning.Market)

	// Init recorders
	recs := recorder.Multi{}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, runs will not be persisted")
		} else {
			recs = append(recs, sr)
		}
	}
	if cfg.Export.CSVDir != "" {
		recs = append(recs, report.NewCSVSink(cfg.Export.CSVDir))
	}
	defer recs.Close()

	alerts, err := alert.NewTracker(cfg.Alert.StateFile)
	if err != nil {
		log.WithError(err).Fatal("load alert state")
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sink scheduler.Notifier
	if cfg.TelegramEnabled() {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			log.WithError(err).Fatal("init telegram")
		}
		sink = tn
	} else {
		log.Warn("telegram not configured, reports are only logged and served over http")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, settings, sink, recs, alerts)
	if err := sched.Register(cfg.Schedule.RunCron); err != nil {
		log.WithError(err).Fatal("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
	}

	// HTTP API
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           api.NewRouter(sched),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", srv.Addr).Info("http api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http api stopped")
		}
	}()

	if cfg.Schedule.RunOnStart {
		log.Info("RUN_ON_START enabled, running backtest now")
		go sched.RunNow(ctx)
	}

	log.Info("CrudeSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Info("shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	log.Info("CrudeSentinel stopped")
}
