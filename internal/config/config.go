package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is everything main needs to wire the service
type Config struct {
	Port string

	DBDriver   string // postgres | sqlite
	DSN        string
	JWTSecret  []byte
	RedisAddr  string
	CORSOrigin []string

	LaborRate        decimal.Decimal
	AllowOverpayment bool
	PaymentEpsilon   decimal.Decimal
	OverdueSchedule  string
}

// Load reads configs/.env when present, then the process environment
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		JWTSecret:        jwtSecret(),
		CORSOrigin:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		LaborRate:        getDecimal("LABOR_RATE", decimal.NewFromInt(50)),
		AllowOverpayment: getBool("ALLOW_OVERPAYMENT", false),
		PaymentEpsilon:   getDecimal("PAYMENT_EPSILON", decimal.RequireFromString("0.01")),
		OverdueSchedule:  getEnv("OVERDUE_SCHEDULE", "0 0 2 * * *"),
	}

	if cfg.DBDriver == "sqlite" {
		cfg.DSN = getEnv("DB_PATH", "garage.db")
	} else {
		cfg.DSN = "postgres://" + getEnv("DB_USER", "postgres") + ":" + getEnv("DB_PASSWORD", "postgres") +
			"@" + getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432") +
			"/" + getEnv("DB_NAME", "postgres") + "?sslmode=" + getEnv("DB_SSLMODE", "disable")
	}
	return cfg
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			log.Fatal("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // development fallback only
	}
	return []byte(secret)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, raw, err)
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
