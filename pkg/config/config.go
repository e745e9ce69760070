package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	RunMigrations bool

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Substitution  SubstitutionConfig
	Assignment    AssignmentDefaults
	Notifications NotificationConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int

	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SubstitutionConfig governs leave intake and the substitution workflow endpoints.
type SubstitutionConfig struct {
	Enabled           bool
	Timezone          string
	WindowStart       string
	WindowEnd         string
	ConfigCacheTTL    time.Duration
	LeaveRateLimit    int
	LeaveRateWindow   time.Duration
	ReportTitlePrefix string
}

// AssignmentDefaults seeds the per-tenant assignment configuration when no row exists.
type AssignmentDefaults struct {
	SubjectMatchWeight  int
	ClassTeacherWeight  int
	FairnessBase        int
	FairnessStep        int
	SubstitutionPenalty int
	MinSubstitutions    int
	MaxSubstitutions    int
	MaxDailyPeriods     int
	ReleaseOnComplete   bool
}

// NotificationConfig sizes the notification dispatch queue.
type NotificationConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.RunMigrations = v.GetBool("RUN_MIGRATIONS")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), 30*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Substitution = SubstitutionConfig{
		Enabled:           v.GetBool("ENABLE_SUBSTITUTIONS"),
		Timezone:          v.GetString("SUBSTITUTION_TIMEZONE"),
		WindowStart:       v.GetString("SUBSTITUTION_WINDOW_START"),
		WindowEnd:         v.GetString("SUBSTITUTION_WINDOW_END"),
		ConfigCacheTTL:    parseDuration(v.GetString("SUBSTITUTION_CONFIG_CACHE_TTL"), 5*time.Minute),
		LeaveRateLimit:    v.GetInt("LEAVE_RATE_LIMIT"),
		LeaveRateWindow:   parseDuration(v.GetString("LEAVE_RATE_WINDOW"), time.Minute),
		ReportTitlePrefix: v.GetString("SUBSTITUTION_REPORT_TITLE"),
	}

	cfg.Assignment = AssignmentDefaults{
		SubjectMatchWeight:  v.GetInt("ASSIGNMENT_SUBJECT_MATCH_WEIGHT"),
		ClassTeacherWeight:  v.GetInt("ASSIGNMENT_CLASS_TEACHER_WEIGHT"),
		FairnessBase:        v.GetInt("ASSIGNMENT_FAIRNESS_BASE"),
		FairnessStep:        v.GetInt("ASSIGNMENT_FAIRNESS_STEP"),
		SubstitutionPenalty: v.GetInt("ASSIGNMENT_SUBSTITUTION_PENALTY"),
		MinSubstitutions:    v.GetInt("ASSIGNMENT_MIN_SUBSTITUTIONS"),
		MaxSubstitutions:    v.GetInt("ASSIGNMENT_MAX_SUBSTITUTIONS"),
		MaxDailyPeriods:     v.GetInt("ASSIGNMENT_MAX_DAILY_PERIODS"),
		ReleaseOnComplete:   v.GetBool("ASSIGNMENT_RELEASE_ON_COMPLETE"),
	}

	cfg.Notifications = NotificationConfig{
		Workers:    v.GetInt("NOTIFICATION_WORKERS"),
		Retries:    v.GetInt("NOTIFICATION_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATION_RETRY_DELAY"), 2*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("RUN_MIGRATIONS", true)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_substitution")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "sma-substitution-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SUBSTITUTIONS", true)
	v.SetDefault("SUBSTITUTION_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("SUBSTITUTION_WINDOW_START", "01:00")
	v.SetDefault("SUBSTITUTION_WINDOW_END", "07:20")
	v.SetDefault("SUBSTITUTION_CONFIG_CACHE_TTL", "5m")
	v.SetDefault("LEAVE_RATE_LIMIT", 10)
	v.SetDefault("LEAVE_RATE_WINDOW", "1m")
	v.SetDefault("SUBSTITUTION_REPORT_TITLE", "Substitution Sheet")

	v.SetDefault("ASSIGNMENT_SUBJECT_MATCH_WEIGHT", 50)
	v.SetDefault("ASSIGNMENT_CLASS_TEACHER_WEIGHT", 30)
	v.SetDefault("ASSIGNMENT_FAIRNESS_BASE", 7)
	v.SetDefault("ASSIGNMENT_FAIRNESS_STEP", 5)
	v.SetDefault("ASSIGNMENT_SUBSTITUTION_PENALTY", 15)
	v.SetDefault("ASSIGNMENT_MIN_SUBSTITUTIONS", 0)
	v.SetDefault("ASSIGNMENT_MAX_SUBSTITUTIONS", 3)
	v.SetDefault("ASSIGNMENT_MAX_DAILY_PERIODS", 6)
	v.SetDefault("ASSIGNMENT_RELEASE_ON_COMPLETE", false)

	v.SetDefault("NOTIFICATION_WORKERS", 2)
	v.SetDefault("NOTIFICATION_RETRIES", 3)
	v.SetDefault("NOTIFICATION_RETRY_DELAY", "2s")
}

func isMissingFile(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no such file")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
