package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Env struct {
	AppAddr string
	GinMode string

	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	JWTSecret      string
	AllowedOrigins []string
	ElevatedRoles  []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	RabbitMQURL string
	ReceiptDir  string

	// SchemaCapabilities is "detect" or a static flag list, see db.ParseCapabilities.
	SchemaCapabilities string
}

func LoadEnv() Env {
	return Env{
		AppAddr: getenv("APP_ADDR", ":8080"),
		GinMode: getenv("GIN_MODE", ""),

		DBUser: getenv("DB_USER", "root"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: getenv("DB_HOST", "127.0.0.1"),
		DBPort: getenv("DB_PORT", "3306"),
		DBName: getenv("DB_NAME", "cargo_booking"),

		JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS",
			"http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")),
		ElevatedRoles: splitList(getenv("ELEVATED_ROLES", "admin,superadmin")),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       atoi(getenv("REDIS_DB", "0")),
		CacheTTL:      parseDur(getenv("CACHE_TTL", "60s"), time.Minute),

		RabbitMQURL: getenv("RABBITMQ_URL", ""),
		ReceiptDir:  getenv("RECEIPT_DIR", "./storage/receipts"),

		SchemaCapabilities: getenv("SCHEMA_CAPABILITIES", "detect"),
	}
}

// minJWTSecretLen is the shortest HS256 secret accepted at startup.
const minJWTSecretLen = 16

// Validate reports settings the service cannot start without.
func (e Env) Validate() error {
	var errs []error
	if e.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET wajib diisi"))
	} else if len(e.JWTSecret) < minJWTSecretLen {
		errs = append(errs, errors.New("JWT_SECRET minimal 16 karakter"))
	}
	if e.DBName == "" {
		errs = append(errs, errors.New("DB_NAME wajib diisi"))
	}
	return errors.Join(errs...)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseDur(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
