package config

import (
	"os"
	"time"

	"dine-in-ordering/logger"
	"dine-in-ordering/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Config holds the server settings read from the environment.
type Config struct {
	Port            string
	GinMode         string
	LogMode         string
	DBPath          string
	JWTSecret       []byte
	APIKey          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Current is the active configuration. Load replaces it.
var Current = defaults()

func defaults() Config {
	return Config{
		Port:            "8000",
		GinMode:         "debug",
		LogMode:         "development",
		DBPath:          "dine_in.db",
		JWTSecret:       []byte("dine_in_ordering_dev_secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.L().Warn("invalid duration, using default", zap.String("key", key), zap.String("value", v))
		return fallback
	}
	return d
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	d := defaults()
	Current = Config{
		Port:            getEnv("PORT", d.Port),
		GinMode:         getEnv("GIN_MODE", d.GinMode),
		LogMode:         getEnv("LOG_MODE", d.LogMode),
		DBPath:          getEnv("DB_PATH", d.DBPath),
		JWTSecret:       []byte(getEnv("JWT_SECRET", string(d.JWTSecret))),
		APIKey:          getEnv("API_KEY", ""),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", d.AccessTokenTTL),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", d.RefreshTokenTTL),
	}
	return Current
}

// OpenDB opens a sqlite database at dsn and migrates every model.
func OpenDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGorm(zap.L()),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, err
	}
	return db, nil
}

// InitDB opens the configured database into DB.
func InitDB() error {
	db, err := OpenDB(Current.DBPath)
	if err != nil {
		return err
	}
	DB = db
	zap.L().Info("database connected and migrated", zap.String("path", Current.DBPath))
	return nil
}
