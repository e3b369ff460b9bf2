package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerPort string

	JWTSecret string

	TokenMaxAgeDays int

	RedisURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	S3AccountID       string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3PublicURL       string

	// AppURL is the externally reachable base of this API, used to build
	// verification links. FrontendURL is where /verify redirects on success.
	AppURL      string
	FrontendURL string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	tokenMaxAgeDays, err := strconv.Atoi(os.Getenv("TOKEN_MAX_AGE_DAYS"))
	if err != nil || tokenMaxAgeDays <= 0 {
		tokenMaxAgeDays = 31
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || smtpPort <= 0 {
		smtpPort = 587
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:" + serverPort
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173/"
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		ServerPort: serverPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		TokenMaxAgeDays: tokenMaxAgeDays,

		RedisURL: redisURL,

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     smtpPort,
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		S3AccountID:       os.Getenv("S3_ACCOUNT_ID"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3BucketName:      os.Getenv("S3_BUCKET_NAME"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3PublicURL:       os.Getenv("S3_PUBLIC_URL"),

		AppURL:      appURL,
		FrontendURL: frontendURL,
	}, nil
}
