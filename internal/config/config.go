package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	MinIO    MinIOConfig
	CORS     CORSConfig
	SMTP     SMTPConfig
	SendGrid SendGridConfig
	Google   GoogleConfig
	Firebase FirebaseConfig
	OTP      OTPConfig
	Schedule ScheduleConfig
}

type AppConfig struct {
	Env  string
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// DSN returns the PostgreSQL connection string
func (d DBConfig) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode +
		" TimeZone=" + d.TimeZone
}

// URL returns the PostgreSQL connection URL (for golang-migrate)
func (d DBConfig) URL() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.Name + "?sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	PublicURL string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type CORSConfig struct {
	Origins []string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// SendGridConfig switches outbound mail to the SendGrid API when APIKey is set
type SendGridConfig struct {
	APIKey string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

type FirebaseConfig struct {
	CredentialsFile string
}

// OTPConfig controls code issuance, rate limiting and the registration reuse window
type OTPConfig struct {
	Length          int
	Expiry          time.Duration
	RateLimit       int
	RateWindow      time.Duration
	ReuseGrace      time.Duration
	CleanupInterval time.Duration // 0 disables the purge job
	Retention       time.Duration
}

// SlotWindow is the minimum distance between two live viewings of one agent.
// The schedule_properties exclusion constraint hard-codes the same hour.
const SlotWindow = time.Hour

type ScheduleConfig struct {
	SlotWindow time.Duration
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, bool) {
	// Missing .env is normal inside containers
	envFileLoaded := godotenv.Load() == nil

	cfg := &Config{
		App: AppConfig{
			Env:  getEnv("APP_ENV", "development"),
			Port: getEnv("APP_PORT", "8080"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "homenest"),
			Password: getEnv("DB_PASSWORD", "homenest"),
			Name:     getEnv("DB_NAME", "homenest"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "default-secret"),
			Expiry: getDuration("JWT_EXPIRY", 24*time.Hour),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "homenest-media"),
			UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
		},
		CORS: CORSConfig{
			Origins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "mailpit"),
			Port:     getEnv("SMTP_PORT", "1025"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "noreply@homenest.local"),
			FromName: getEnv("SMTP_FROM_NAME", "HomeNest"),
		},
		SendGrid: SendGridConfig{
			APIKey: getEnv("SENDGRID_API_KEY", ""),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		OTP: OTPConfig{
			Length:          getInt("OTP_LENGTH", 6),
			Expiry:          getDuration("OTP_EXPIRY", 5*time.Minute),
			RateLimit:       getInt("OTP_RATE_LIMIT", 3),
			RateWindow:      getDuration("OTP_RATE_WINDOW", time.Hour),
			ReuseGrace:      getDuration("OTP_REUSE_GRACE", 10*time.Minute),
			CleanupInterval: getOptionalDuration("OTP_CLEANUP_INTERVAL"),
			Retention:       getDuration("OTP_RETENTION", 24*time.Hour),
		},
		Schedule: ScheduleConfig{
			SlotWindow: SlotWindow,
		},
	}
	cfg.OTP.clampRetention()
	return cfg, envFileLoaded
}

// clampRetention keeps purged rows out of the rate limit window, otherwise
// the cleanup job would hand out fresh rate budget early
func (o *OTPConfig) clampRetention() {
	if o.Retention < o.RateWindow {
		o.Retention = o.RateWindow
	}
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// getOptionalDuration returns 0 (disabled) when unset or invalid
func getOptionalDuration(key string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, "0s"))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
