package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/app"
	"github.com/Freeeeeet/loft_booking_bot/internal/config"
	"github.com/Freeeeeet/loft_booking_bot/internal/controller"
	"github.com/Freeeeeet/loft_booking_bot/internal/controller/httpapi"
	"github.com/Freeeeeet/loft_booking_bot/internal/conversation"
	"github.com/Freeeeeet/loft_booking_bot/internal/notify"
	"github.com/Freeeeeet/loft_booking_bot/internal/repository"
	"github.com/Freeeeeet/loft_booking_bot/internal/repository/memory"
	"github.com/Freeeeeet/loft_booking_bot/internal/schedule"
	"github.com/Freeeeeet/loft_booking_bot/internal/service"
	"github.com/go-redis/redis/v8"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	notifyTimeout   = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting loft booking bot",
		zap.String("environment", cfg.Environment),
		zap.String("telegram_mode", cfg.TelegramMode),
		zap.String("storage", cfg.Storage),
		zap.String("sessions", cfg.SessionStore))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

type storage struct {
	bookings repository.BookingStore
	schedule schedule.Persister
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, bookings are lost on restart")
		return &storage{
			bookings: memory.NewBookingStore(),
			schedule: memory.NewScheduleStore(),
			close:    func() {},
		}, nil
	}

	pool, err := app.NewPostgresPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		return nil, err
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &storage{
		bookings: repository.NewBookingRepository(pool),
		schedule: repository.NewScheduleRepository(pool, logger),
		close:    pool.Close,
	}, nil
}

// openSessions возвращает хранилище сессий и, для памяти, чистильщик простаивающих сессий
func openSessions(ctx context.Context, cfg *config.Config, logger *zap.Logger) (conversation.SessionStore, app.IdleEvictor, func(), error) {
	if cfg.SessionStore == config.SessionsMemory {
		store := conversation.NewMemoryStore()
		return store, store, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}

	logger.Info("✅ Connected to Redis", zap.String("addr", cfg.RedisAddr))
	return conversation.NewRedisStore(client, cfg.SessionIdleTimeout), nil, func() { _ = client.Close() }, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	sessions, evictor, closeSessions, err := openSessions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	scheduleStore := schedule.NewStore(cfg.WorkSchedule, store.schedule, logger)
	if err := scheduleStore.Reload(ctx); err != nil {
		return err
	}

	bookings := service.NewBookingService(store.bookings, cfg.AdminID(), logger)
	slots := service.NewSlotService(scheduleStore, bookings, service.SlotOptions{
		Step:        cfg.SlotStepMinutes,
		HorizonDays: cfg.BookingHorizonDays,
		Location:    cfg.Location,
	})

	// автомату нужен уведомитель через бота, поэтому контроллер создаётся после бота
	var (
		b    *bot.Bot
		ctrl *controller.BotController
	)
	if cfg.TelegramMode != config.ModeNone {
		b, err = bot.New(cfg.TelegramToken, bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			ctrl.HandleUpdate(ctx, b, update)
		}))
		if err != nil {
			return err
		}
	}

	dispatchers := notify.Multi{}
	if b != nil {
		dispatchers = append(dispatchers, notify.NewTelegram(b, cfg.AdminChatID, logger))
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer := notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer writer.Close()
		dispatchers = append(dispatchers, notify.NewKafka(writer, logger))
		logger.Info("Kafka booking events enabled", zap.String("topic", cfg.KafkaTopic))
	}
	dispatcher := notify.NewAsync(dispatchers, notifyTimeout, logger)
	defer dispatcher.Wait()

	engine := conversation.NewEngine(sessions, bookings, slots, scheduleStore, dispatcher, conversation.Config{
		Catalog:     cfg.Services,
		PhoneRegion: cfg.PhoneRegion,
	}, logger)
	ctrl = controller.NewBotController(engine, cfg.AdminChatID, logger)

	scheduler := app.NewScheduler(bookings, evictor, app.SchedulerConfig{
		PurgeInterval: cfg.PurgeInterval,
		SessionTTL:    cfg.SessionIdleTimeout,
		Today:         slots.Today,
	}, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.HTTPAddr != "" {
		opts := httpapi.Options{
			Catalog:        cfg.Services,
			PhoneRegion:    cfg.PhoneRegion,
			AdminToken:     cfg.AdminAPIToken,
			AdminID:        cfg.AdminID(),
			TrustedProxies: cfg.TrustedProxies,
		}
		if cfg.TelegramMode == config.ModeWebhook {
			opts.Webhook = &httpapi.Webhook{
				Processor:        ctrl,
				Sender:           b,
				Secret:           cfg.WebhookSecret,
				AckFailedUpdates: cfg.AckFailedUpdates,
			}
		}
		handler := httpapi.NewHandler(bookings, slots, dispatcher, opts, logger)
		server := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(handler, logger))

		g.Go(func() error {
			logger.Info("Starting HTTP server", zap.String("addr", cfg.HTTPAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if b != nil {
		if err := ctrl.SetCommands(ctx, b); err != nil {
			logger.Warn("Continuing without bot commands menu", zap.Error(err))
		}

		switch cfg.TelegramMode {
		case config.ModeWebhook:
			if cfg.WebhookURL != "" {
				if _, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
					URL:         cfg.WebhookURL,
					SecretToken: cfg.WebhookSecret,
				}); err != nil {
					return err
				}
				logger.Info("✅ Telegram webhook registered", zap.String("url", cfg.WebhookURL))
			}
		case config.ModePolling:
			if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
				logger.Warn("Failed to delete webhook before polling", zap.Error(err))
			}
			g.Go(func() error {
				logger.Info("🤖 Bot started (long polling)")
				b.Start(ctx)
				return nil
			})
		}
	}

	logger.Info("Booking bot is running",
		zap.Int("services", len(cfg.Services)),
		zap.Int("horizon_days", cfg.BookingHorizonDays),
		zap.String("today", slots.Today().String()))

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}
