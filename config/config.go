package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSecretKey is only meant for local development.
const DefaultSecretKey = "dev-change-me"

type Config struct {
	ServerPort string
	TrustProxy bool

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	SecretKey   string
	TokenTTL    time.Duration
	AdminEmails []string
	CORSOrigins []string

	RabbitURL    string
	MongoURI     string
	MongoDB      string
	RedisURL     string
	DisableAudit bool

	QRFunctionURL         string
	QRFunctionSecret      string
	EmailFunctionURL      string
	EmailFunctionSecret   string
	CheckinFunctionURL    string
	CheckinFunctionSecret string
	FunctionsIDToken      string
	TicketHTTPTimeout     time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] no .env file found; using environment")
	}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		TrustProxy: os.Getenv("TRUST_PROXY") == "1",

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "campus_events"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		SecretKey:   getEnv("SECRET_KEY", DefaultSecretKey),
		TokenTTL:    getDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS"), true),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*"), false),

		RabbitURL:    os.Getenv("RABBITMQ_URL"),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      getEnv("MONGO_DB", "campus_events"),
		RedisURL:     os.Getenv("REDIS_URL"),
		DisableAudit: os.Getenv("DISABLE_AUDIT") == "1",

		QRFunctionURL:         os.Getenv("QR_FUNCTION_URL"),
		QRFunctionSecret:      os.Getenv("QR_FUNCTION_SECRET"),
		EmailFunctionURL:      os.Getenv("EMAIL_FUNCTION_URL"),
		EmailFunctionSecret:   os.Getenv("EMAIL_FUNCTION_SECRET"),
		CheckinFunctionURL:    os.Getenv("CHECKIN_FUNCTION_URL"),
		CheckinFunctionSecret: os.Getenv("CHECKIN_FUNCTION_SECRET"),
		FunctionsIDToken:      os.Getenv("FUNCTIONS_ID_TOKEN"),
		TicketHTTPTimeout:     getDuration("TICKET_HTTP_TIMEOUT", 10*time.Second),
	}

	if cfg.SecretKey == DefaultSecretKey {
		log.Println("[Config] WARNING: SECRET_KEY is not set; sessions are signed with the development default")
	}
	return cfg
}

// DSN returns DATABASE_URL when set, otherwise a libpq keyword string built
// from the DB_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
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
		log.Printf("[Config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string, lower bool) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if lower {
			p = strings.ToLower(p)
		}
		out = append(out, p)
	}
	return out
}
