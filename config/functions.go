package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// FunctionsConfig configures the ticket functions server (cmd/ticketfn).
type FunctionsConfig struct {
	Port string

	QRSecret      string
	EmailSecret   string
	CheckinSecret string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridBaseURL   string

	// Database is the same store the web application writes bookings to.
	Database Config

	MongoURI     string
	MongoDB      string
	DisableAudit bool
}

func LoadFunctions() *FunctionsConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] no .env file found; using environment")
	}

	return &FunctionsConfig{
		Port: getEnv("FUNCTIONS_PORT", "8090"),

		QRSecret:      os.Getenv("QR_FUNCTION_SECRET"),
		EmailSecret:   os.Getenv("EMAIL_FUNCTION_SECRET"),
		CheckinSecret: os.Getenv("CHECKIN_FUNCTION_SECRET"),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		SendGridBaseURL:   getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),

		Database: Config{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			DBHost:      getEnv("DB_HOST", "localhost"),
			DBPort:      getEnv("DB_PORT", "5432"),
			DBUser:      getEnv("DB_USER", "postgres"),
			DBPassword:  getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "campus_events"),
			DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		},

		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      getEnv("MONGO_DB", "campus_events"),
		DisableAudit: os.Getenv("DISABLE_FIRESTORE_LOGS") == "1" || os.Getenv("DISABLE_AUDIT") == "1",
	}
}
