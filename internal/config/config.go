package config

import (
	"fmt"
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // часовой пояс студии в минимальных образах

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/joho/godotenv"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
	ModeNone    = "none"

	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	SessionsMemory = "memory"
	SessionsRedis  = "redis"

	httpDisabled = "off"
)

const (
	defaultWorkSchedule = "1,3,5=11:00-14:00,17:00-20:00;0,6=09:00-20:00"
	defaultServices     = "Классический массаж спины=30;Успокаивающий массаж спины=30;" +
		"Классический массаж тела=60;Расслабляющий массаж тела=60"
)

type Config struct {
	Environment string

	TelegramToken    string
	TelegramMode     string
	WebhookURL       string
	WebhookSecret    string
	AdminChatID      int64
	AckFailedUpdates bool

	Storage string
	DBDSN   string

	SessionStore       string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SessionIdleTimeout time.Duration

	HTTPAddr       string
	AdminAPIToken  string
	TrustedProxies []netip.Prefix

	KafkaBrokers []string
	KafkaTopic   string

	WorkSchedule       model.WeeklySchedule
	Services           model.Catalog
	SlotStepMinutes    int
	BookingHorizonDays int
	Location           *time.Location
	PhoneRegion        string
	PurgeInterval      time.Duration
}

// AdminID идентификатор администратора в виде строки (как ID сессии)
func (c *Config) AdminID() string {
	if c.AdminChatID == 0 {
		return ""
	}
	return strconv.FormatInt(c.AdminChatID, 10)
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию из функции чтения переменных окружения
func FromEnv(getenv func(string) string) (*Config, error) {
	env := reader{getenv: getenv}

	cfg := &Config{
		Environment:      env.str("ENV", "development"),
		TelegramToken:    env.str("TELEGRAM_TOKEN", ""),
		TelegramMode:     strings.ToLower(env.str("TELEGRAM_MODE", ModePolling)),
		WebhookURL:       env.str("TELEGRAM_WEBHOOK_URL", ""),
		WebhookSecret:    env.str("TELEGRAM_WEBHOOK_SECRET", ""),
		AdminChatID:      env.int64("ADMIN_CHAT_ID", 0),
		AckFailedUpdates: env.bool("ACK_FAILED_UPDATES", true),

		Storage: strings.ToLower(env.str("STORAGE", StoragePostgres)),
		DBDSN:   env.str("DB_DSN", ""),

		SessionStore:       strings.ToLower(env.str("SESSION_STORE", SessionsMemory)),
		RedisAddr:          env.str("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      env.str("REDIS_PASSWORD", ""),
		RedisDB:            env.int("REDIS_DB", 0),
		SessionIdleTimeout: env.duration("SESSION_IDLE_TIMEOUT", 24*time.Hour),

		HTTPAddr:      env.str("HTTP_ADDR", ":8080"),
		AdminAPIToken: env.str("ADMIN_API_TOKEN", ""),

		KafkaBrokers: env.list("KAFKA_BROKERS"),
		KafkaTopic:   env.str("KAFKA_TOPIC", "booking-events"),

		SlotStepMinutes:    env.int("SLOT_STEP_MINUTES", 0),
		BookingHorizonDays: env.int("BOOKING_HORIZON_DAYS", 14),
		PhoneRegion:        strings.ToUpper(env.str("PHONE_REGION", "RU")),
		PurgeInterval:      env.duration("PURGE_INTERVAL", 24*time.Hour),
	}

	if strings.EqualFold(cfg.HTTPAddr, httpDisabled) {
		cfg.HTTPAddr = ""
	}

	var err error
	if cfg.TrustedProxies, err = ParseTrustedProxies(env.list("TRUSTED_PROXIES")); err != nil {
		env.fail("TRUSTED_PROXIES", err)
	}
	if cfg.WorkSchedule, err = ParseWeeklySchedule(env.str("WORK_SCHEDULE", defaultWorkSchedule)); err != nil {
		env.fail("WORK_SCHEDULE", err)
	}
	if cfg.Services, err = ParseCatalog(env.str("SERVICES", defaultServices)); err != nil {
		env.fail("SERVICES", err)
	}
	if cfg.Location, err = time.LoadLocation(env.str("TIMEZONE", "Europe/Moscow")); err != nil {
		env.fail("TIMEZONE", err)
	}

	if env.err != nil {
		return nil, env.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	// Проверяем обязательные поля
	switch c.TelegramMode {
	case ModePolling, ModeWebhook:
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required but not set")
		}
	case ModeNone:
	default:
		return fmt.Errorf("TELEGRAM_MODE must be one of polling, webhook, none; got %q", c.TelegramMode)
	}
	if c.TelegramMode != ModePolling && c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required when TELEGRAM_MODE is %s", c.TelegramMode)
	}
	if c.AdminChatID == 0 {
		return fmt.Errorf("ADMIN_CHAT_ID is required but not set")
	}

	switch c.Storage {
	case StoragePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be postgres or memory; got %q", c.Storage)
	}

	switch c.SessionStore {
	case SessionsMemory, SessionsRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be memory or redis; got %q", c.SessionStore)
	}

	if c.SlotStepMinutes < 0 {
		return fmt.Errorf("SLOT_STEP_MINUTES must not be negative")
	}
	if c.BookingHorizonDays <= 0 {
		return fmt.Errorf("BOOKING_HORIZON_DAYS must be positive")
	}
	if c.SessionIdleTimeout <= 0 || c.PurgeInterval <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT and PURGE_INTERVAL must be positive")
	}

	return nil
}

// ParseWeeklySchedule разбирает "1,3,5=11:00-14:00,17:00-20:00;0,6=09:00-20:00".
// Дни недели 0-6, 0 воскресенье; не упомянутые дни выходные.
func ParseWeeklySchedule(s string) (model.WeeklySchedule, error) {
	weekly := make(model.WeeklySchedule)

	for _, group := range strings.Split(s, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		days, windowsRaw, ok := strings.Cut(group, "=")
		if !ok {
			return nil, fmt.Errorf("group %q: expected days=windows", group)
		}
		windows, err := model.ParseWindows(windowsRaw)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", group, err)
		}

		for _, d := range strings.Split(days, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(d))
			if err != nil || n < 0 || n > 6 {
				return nil, fmt.Errorf("group %q: invalid weekday %q", group, d)
			}
			day := time.Weekday(n)
			if _, dup := weekly[day]; dup {
				return nil, fmt.Errorf("weekday %d configured twice", n)
			}
			weekly[day] = windows
		}
	}

	return weekly, nil
}

// ParseTrustedProxies разбирает адреса и подсети прокси, которым доверяем X-Forwarded-For
func ParseTrustedProxies(items []string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range items {
		if prefix, err := netip.ParsePrefix(item); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: expected IP or CIDR", item)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// ParseCatalog разбирает "Название=минуты;..."
func ParseCatalog(s string) (model.Catalog, error) {
	var catalog model.Catalog

	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		title, minutes, ok := strings.Cut(item, "=")
		title = strings.TrimSpace(title)
		if !ok || title == "" {
			return nil, fmt.Errorf("service %q: expected title=minutes", item)
		}
		duration, err := strconv.Atoi(strings.TrimSpace(minutes))
		if err != nil {
			return nil, fmt.Errorf("service %q: invalid duration", item)
		}
		svc := model.Service{Title: title, DurationMinutes: duration}
		if err := svc.Validate(); err != nil {
			return nil, fmt.Errorf("service %q: %w", item, err)
		}
		if _, dup := catalog.Find(title); dup {
			return nil, fmt.Errorf("service %q listed twice", title)
		}
		catalog = append(catalog, svc)
	}

	if len(catalog) == 0 {
		return nil, fmt.Errorf("no services configured")
	}
	return catalog, nil
}
