package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// ObjectStoreConfig points at the S3-compatible bucket holding media.
type ObjectStoreConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

type Config struct {
	Port               string
	Env                string
	MongoURI           string
	MongoDB            string
	CORSOrigin         string
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	ObjectStore        ObjectStoreConfig
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getEnv("MONGO_DB", "vidtube"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", "supersecretaccesskey"),
		AccessTokenExpiry:  getDuration("ACCESS_TOKEN_EXPIRY", 24*time.Hour),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", "supersecretrefreshkey"),
		RefreshTokenExpiry: getDuration("REFRESH_TOKEN_EXPIRY", 10*24*time.Hour),
		ObjectStore: ObjectStoreConfig{
			Bucket:        getEnv("S3_BUCKET", ""),
			Region:        getEnv("S3_REGION", "us-east-1"),
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
