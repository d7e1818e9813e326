package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken           string
	DatabaseURL        string
	LogLevel           string
	PollTimeoutSeconds int

	AdminIDs []int64

	MaxDescriptionLength int
	MinCrashTime         int
	MaxCrashTime         int
	MaxReportsPerDay     int
	EnforceDailyCap      bool

	InitialBalance  int64
	RewardAmount    int64
	PayoutThreshold int64

	ServiceZonesText   string
	WelcomePhotoFileID string
}

func Load() (Config, error) {
	// Local development keeps settings in a .env file; deployed
	// environments inject them directly. A missing file is fine.
	_ = godotenv.Load()

	pollTimeout, err := getInt("POLL_TIMEOUT_SECONDS", 30)
	if err != nil {
		return Config{}, err
	}

	maxDescription, err := getInt("MAX_DESCRIPTION_LENGTH", 200)
	if err != nil {
		return Config{}, err
	}

	minCrashTime, err := getInt("MIN_CRASH_TIME", 0)
	if err != nil {
		return Config{}, err
	}

	maxCrashTime, err := getInt("MAX_CRASH_TIME", 60)
	if err != nil {
		return Config{}, err
	}

	maxReportsPerDay, err := getInt("MAX_REPORTS_PER_DAY", 3)
	if err != nil {
		return Config{}, err
	}

	enforceDailyCap, err := getBool("ENFORCE_DAILY_CAP", false)
	if err != nil {
		return Config{}, err
	}

	initialBalance, err := getInt64("INITIAL_BALANCE", 99)
	if err != nil {
		return Config{}, err
	}

	rewardAmount, err := getInt64("REWARD_AMOUNT", 100)
	if err != nil {
		return Config{}, err
	}

	payoutThreshold, err := getInt64("PAYOUT_THRESHOLD", 500)
	if err != nil {
		return Config{}, err
	}

	adminIDs, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BotToken:             strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LogLevel:             getString("LOG_LEVEL", "info"),
		PollTimeoutSeconds:   pollTimeout,
		AdminIDs:             adminIDs,
		MaxDescriptionLength: maxDescription,
		MinCrashTime:         minCrashTime,
		MaxCrashTime:         maxCrashTime,
		MaxReportsPerDay:     maxReportsPerDay,
		EnforceDailyCap:      enforceDailyCap,
		InitialBalance:       initialBalance,
		RewardAmount:         rewardAmount,
		PayoutThreshold:      payoutThreshold,
		ServiceZonesText:     getString("SERVICE_ZONES_TEXT", "Girne, Lefkoşa"),
		WelcomePhotoFileID:   getString("WELCOME_PHOTO_FILE_ID", ""),
	}

	if cfg.PollTimeoutSeconds <= 0 {
		cfg.PollTimeoutSeconds = 30
	}
	if cfg.MaxCrashTime < cfg.MinCrashTime {
		return Config{}, fmt.Errorf("MAX_CRASH_TIME %d is below MIN_CRASH_TIME %d", cfg.MaxCrashTime, cfg.MinCrashTime)
	}

	return cfg, nil
}

func (c Config) IsAdmin(tgID int64) bool {
	for _, id := range c.AdminIDs {
		if id == tgID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) ([]int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []int64{}, nil
	}

	parts := strings.Split(trimmed, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse ADMIN_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getString(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}
