package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flashcards/internal/bot"
	"flashcards/internal/config"
	httpx "flashcards/internal/http"
	"flashcards/internal/lock"
	"flashcards/internal/logger"
	"flashcards/internal/repository"
	"flashcards/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}

	log, sink, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}
	store := repository.NewStore(db)

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisURL != "" {
		rdb, err := lock.Dial(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb, cfg.LockTTL)
		log.Info().Msg("using redis partition locks")
	}

	rec := service.NewReconciler(store, locker, log)
	services := httpx.Services{
		Classes:    service.NewClassService(store),
		Categories: service.NewCategoryService(store, locker, rec),
		Cards:      service.NewCardService(store, locker, rec),
		Views:      service.NewViewService(store),
		Settings:   service.NewSettingsService(store),
		Reconciler: rec,
	}

	scheduler := service.NewSchedulerService(time.Local, log)
	if cfg.NormalizeInterval > 0 {
		if _, err := scheduler.ScheduleNormalize(ctx, rec, cfg.NormalizeInterval); err != nil {
			log.Fatal().Err(err).Msg("schedule normalize")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	if cfg.TelegramToken != "" {
		if err := tgbotapi.SetLogger(stdlog.New(sink, "telegram: ", stdlog.LstdFlags)); err != nil {
			log.Warn().Err(err).Msg("telegram logger")
		}
		viewerBot, err := bot.New(cfg.TelegramToken, services.Views, services.Settings, services.Classes, cfg.PageSize, log)
		if err != nil {
			log.Fatal().Err(err).Msg("bot")
		}
		go func() {
			if err := viewerBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("bot stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(cfg, services, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("shutdown complete")
}
