package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/healing-guide-backend/internal/data/db"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

type Config struct {
	Port    string
	LogMode string
	Env     string
	Version string

	DB db.Config

	AdminJWTSecret string
	CORSOrigins    []string

	LeadMagnetObjectKey string
	// LeadMagnetURL is the absolute download link used in welcome emails.
	LeadMagnetURL string

	ObjectStorageMode   string
	GCSBucket           string
	ObjectStorageDir    string
	StorageEmulatorHost string

	GuidanceCacheTTL   time.Duration
	GuidanceDailyQuota int
	StrictAnswers      bool
	VoiceID            string

	OtelServiceName string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("DB_DRIVER", db.DriverPostgres)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_NAME", "healing_guide")
	v.SetDefault("SQLITE_PATH", "healing_guide.db")
	v.SetDefault("OBJECT_STORAGE_LOCAL_DIR", "./static")
	v.SetDefault("GUIDANCE_CACHE_TTL_SECONDS", 3600)
	v.SetDefault("GUIDANCE_DAILY_QUOTA", 0)
	v.SetDefault("ASSESSMENT_STRICT_ANSWERS", false)
	v.SetDefault("OTEL_SERVICE_NAME", "healing-guide-backend")
	return v
}

// LoadConfig reads config.yaml when present; environment variables always win.
func LoadConfig(log *logger.Logger) (Config, error) {
	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		log.Debug("No config.yaml found; using environment and defaults")
	} else {
		log.Info("Loaded config file", "path", v.ConfigFileUsed())
	}
	return configFrom(v), nil
}

func configFrom(v *viper.Viper) Config {
	return Config{
		Port:    v.GetString("PORT"),
		LogMode: v.GetString("LOG_MODE"),
		Env:     v.GetString("APP_ENV"),
		Version: v.GetString("APP_VERSION"),
		DB: db.Config{
			Driver:     v.GetString("DB_DRIVER"),
			DSN:        v.GetString("DATABASE_DSN"),
			Host:       v.GetString("POSTGRES_HOST"),
			Port:       v.GetString("POSTGRES_PORT"),
			User:       v.GetString("POSTGRES_USER"),
			Password:   v.GetString("POSTGRES_PASSWORD"),
			Name:       v.GetString("POSTGRES_NAME"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		AdminJWTSecret:      v.GetString("ADMIN_JWT_SECRET"),
		CORSOrigins:         splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		LeadMagnetObjectKey: v.GetString("LEAD_MAGNET_OBJECT_KEY"),
		LeadMagnetURL:       v.GetString("LEAD_MAGNET_URL"),
		ObjectStorageMode:   v.GetString("OBJECT_STORAGE_MODE"),
		GCSBucket:           v.GetString("GCS_BUCKET_NAME"),
		ObjectStorageDir:    v.GetString("OBJECT_STORAGE_LOCAL_DIR"),
		StorageEmulatorHost: v.GetString("STORAGE_EMULATOR_HOST"),
		GuidanceCacheTTL:    time.Duration(v.GetInt("GUIDANCE_CACHE_TTL_SECONDS")) * time.Second,
		GuidanceDailyQuota:  v.GetInt("GUIDANCE_DAILY_QUOTA"),
		StrictAnswers:       v.GetBool("ASSESSMENT_STRICT_ANSWERS"),
		VoiceID:             v.GetString("ELEVENLABS_VOICE_ID"),
		OtelServiceName:     v.GetString("OTEL_SERVICE_NAME"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
