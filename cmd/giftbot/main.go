package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Kerhoff/GiftboT/internal/api"
	"github.com/Kerhoff/GiftboT/internal/auth"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/config"
	"github.com/Kerhoff/GiftboT/internal/handlers"
	"github.com/Kerhoff/GiftboT/internal/metrics"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository/postgres"
	"github.com/Kerhoff/GiftboT/internal/service"
	"github.com/Kerhoff/GiftboT/internal/telegram"
	"github.com/Kerhoff/GiftboT/pkg/logger"
)

const (
	shutdownTimeout  = 10 * time.Second
	reminderInterval = 10 * time.Minute
	reminderLead     = 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	logger.WithFields(l, logrus.Fields{
		"port":          cfg.Port,
		"metrics_port":  cfg.PrometheusPort,
		"redis":         cfg.RedisURL != "",
		"bot":           cfg.BotEnabled(),
		"store_timeout": cfg.StoreTimeout,
	}).Info("Starting GiftboT...")

	if err := run(cfg, l); err != nil {
		l.Fatalf("GiftboT stopped with error: %v", err)
	}
	l.Info("GiftboT stopped")
}

func run(cfg *config.Config, l *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.MigrationsPath); err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	c, closeCache, err := newCache(ctx, cfg, l, m)
	if err != nil {
		return err
	}
	defer closeCache()

	// Service layer
	svc := service.New(postgres.NewStore(db.DB), c, l, m, service.Options{StoreTimeout: cfg.StoreTimeout})

	apiServer := api.NewServer(svc, auth.NewProvider(cfg.JWTSecret, cfg.SessionTTL), l)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		return serve(httpServer)
	})
	g.Go(func() error {
		l.Infof("Metrics server listening on :%s", cfg.PrometheusPort)
		return serve(metricsServer)
	})
	g.Go(func() error {
		<-ctx.Done()
		l.Info("Shutting down HTTP servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(httpServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	if cfg.BotEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken, l, cfg.StoreTimeout*3)
		if err != nil {
			stop()
			g.Wait()
			return fmt.Errorf("failed to create Telegram bot: %w", err)
		}
		registerCommands(bot, svc, l)

		g.Go(func() error {
			return bot.Start(ctx)
		})
		g.Go(func() error {
			svc.StartReminderScheduler(ctx, reminderInterval, reminderLead, func(user *models.User, text string) {
				if user.TelegramID == nil {
					return
				}
				bot.SendRaw(tgbotapi.NewMessage(*user.TelegramID, text))
			})
			return nil
		})
	} else {
		l.Warn("TELEGRAM_TOKEN is not set, Telegram bot disabled")
	}

	l.Info("GiftboT started successfully")
	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
	}
	return nil
}

// newCache picks the Redis backend when REDIS_URL is set and the in-process
// backend otherwise.
func newCache(ctx context.Context, cfg *config.Config, l *logrus.Logger, m *metrics.Metrics) (*cache.Cache, func(), error) {
	if cfg.RedisURL == "" {
		l.Info("REDIS_URL is not set, using in-memory cache")
		return cache.New(cache.NewMemoryBackend(cfg.CacheTTL), l, m), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	l.WithField("addr", cfg.RedisURL).Info("Redis cache connected")

	return cache.New(cache.NewRedisBackend(client, cfg.CacheTTL), l, m), func() { client.Close() }, nil
}

func registerCommands(bot *telegram.Bot, svc *service.Service, l *logrus.Logger) {
	bot.RegisterCommand("start", handlers.NewStartHandler(svc, l))
	bot.RegisterCommand("help", handlers.NewHelpHandler())
	bot.RegisterCommand("code", handlers.NewCodeHandler(svc))

	// Friends
	bot.RegisterCommand("friend", handlers.NewFriendRequestHandler(svc, l))
	bot.RegisterCommand("friends", handlers.NewFriendsHandler(svc))
	bot.RegisterCommand("accept", handlers.NewAcceptHandler(svc))
	bot.RegisterCommand("decline", handlers.NewDeclineHandler(svc))

	// Wishlists
	bot.RegisterCommand("wishlists", handlers.NewWishlistsHandler(svc))
	bot.RegisterCommand("wish", handlers.NewWishAddHandler(svc, l))
	bot.RegisterCommand("reserve", handlers.NewReserveHandler(svc))

	// Events
	bot.RegisterCommand("events", handlers.NewEventsHandler(svc))
}
