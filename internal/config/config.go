package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	TokenTTL  time.Duration

	// How long before event start the reminder should fire.
	NotifyLead time.Duration

	OTLPEndpoint   string
	AllowedOrigins []string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		NotifyLead: getEnvDuration("NOTIFY_LEAD", 30*time.Minute),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", ""),
		AllowedOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "eventlocator")
	pass := getEnv("DB_PASSWORD", "eventlocator")
	name := getEnv("DB_NAME", "eventlocator")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}
