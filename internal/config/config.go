package config

import (
	"os"
	"strconv"
)

// Profile selects a configuration profile, mirroring the APP_SETTINGS
// environment variable.
type Profile string

const (
	Development Profile = "development"
	Testing     Profile = "testing"
	Production  Profile = "production"
)

// Backup holds S3 backup configuration. Backups are disabled unless the
// bucket, credentials, and passphrase are all present.
type Backup struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	Passphrase    string
	ScheduleHour  int
	RetentionDays int
}

// Enabled reports whether enough configuration is present to run backups.
func (b Backup) Enabled() bool {
	return b.Bucket != "" && b.AccessKey != "" && b.SecretKey != "" && b.Passphrase != ""
}

type Config struct {
	Port        string
	DatabaseURL string
	Profile     Profile
	LogLevel    string
	Backup      Backup
}

// Load reads configuration from the environment with sensible defaults.
// Precedence: explicit env var > .env file (loaded by the caller) > default.
func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "backstock.db"),
		Profile:     parseProfile(os.Getenv("APP_SETTINGS")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Backup: Backup{
			Endpoint:      os.Getenv("BACKUP_S3_ENDPOINT"),
			Bucket:        os.Getenv("BACKUP_S3_BUCKET"),
			Region:        getEnv("BACKUP_S3_REGION", "auto"),
			AccessKey:     os.Getenv("BACKUP_S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("BACKUP_S3_SECRET_KEY"),
			Passphrase:    os.Getenv("BACKUP_PASSPHRASE"),
			ScheduleHour:  getEnvInt("BACKUP_SCHEDULE_HOUR", 3),
			RetentionDays: getEnvInt("BACKUP_RETENTION_DAYS", 30),
		},
	}
	return cfg
}

// IsProduction reports whether the production profile is active. It gates
// HSTS and the Secure flag on cookies.
func (c Config) IsProduction() bool {
	return c.Profile == Production
}

func parseProfile(v string) Profile {
	switch v {
	case string(Production):
		return Production
	case string(Testing):
		return Testing
	default:
		return Development
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return n
	}
	return def
}
