package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/wiproedx/synergeticsopenedx/services/cybersource"
	"github.com/wiproedx/synergeticsopenedx/services/storage"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// RabbitMQ Configuration
	RABBITMQ_URL      string
	RABBITMQ_EXCHANGE string
	// Spaces (S3 compatible) receipt storage
	SPACES_ACCESS_KEY string
	SPACES_SECRET_KEY string
	SPACES_BUCKET     string
	SPACES_REGION     string
	SPACES_ENDPOINT   string
	// Email
	SENDGRID_API_KEY      string
	EMAIL_FROM_ADDRESS    string
	EMAIL_FROM_NAME       string
	PLATFORM_NAME         string
	SITE_NAME             string
	PAYMENT_SUPPORT_EMAIL string
	// Error reporting
	ROLLBAR_TOKEN string
	// CyberSource hosted checkout
	CC_PROCESSOR_SECRET_KEY                  string
	CC_PROCESSOR_ACCESS_KEY                  string
	CC_PROCESSOR_PROFILE_ID                  string
	CC_PROCESSOR_PURCHASE_ENDPOINT           string
	PAYMENT_RECEIPT_PAGE_URL                 string
	PAID_COURSE_REGISTRATION_CURRENCY        string
	PAID_COURSE_REGISTRATION_CURRENCY_SYMBOL string
	// Sealing key for stored processor callbacks
	PAYLOAD_ENCRYPTION_SECRET string
	// Feature toggles
	LOG_POSTPAY_CALLBACKS bool
	CRON_ENABLED          bool
	ALLOWED_ORIGINS       string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getEnvOrDefault("DB_HOST", "localhost"),
		DB_PORT:      getEnvOrDefault("DB_PORT", "5432"),
		DB_SSL_MODE:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvOrDefault("JWT_ISSUER", "lms"),
		// Redis
		REDIS_URL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		// RabbitMQ
		RABBITMQ_URL:      os.Getenv("RABBITMQ_URL"),
		RABBITMQ_EXCHANGE: getEnvOrDefault("RABBITMQ_EXCHANGE", "programs.events"),
		// Spaces
		SPACES_ACCESS_KEY: os.Getenv("SPACES_ACCESS_KEY"),
		SPACES_SECRET_KEY: os.Getenv("SPACES_SECRET_KEY"),
		SPACES_BUCKET:     os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:     getEnvOrDefault("SPACES_REGION", "nyc3"),
		SPACES_ENDPOINT:   os.Getenv("SPACES_ENDPOINT"),
		// Email
		SENDGRID_API_KEY:      os.Getenv("SENDGRID_API_KEY"),
		EMAIL_FROM_ADDRESS:    getEnvOrDefault("EMAIL_FROM_ADDRESS", "billing@example.com"),
		EMAIL_FROM_NAME:       getEnvOrDefault("EMAIL_FROM_NAME", "Billing"),
		PLATFORM_NAME:         getEnvOrDefault("PLATFORM_NAME", "Open edX"),
		SITE_NAME:             getEnvOrDefault("SITE_NAME", "http://localhost:8000"),
		PAYMENT_SUPPORT_EMAIL: getEnvOrDefault("PAYMENT_SUPPORT_EMAIL", "billing@example.com"),
		// Rollbar
		ROLLBAR_TOKEN: os.Getenv("ROLLBAR_TOKEN"),
		// CyberSource
		CC_PROCESSOR_SECRET_KEY:                  os.Getenv("CC_PROCESSOR_SECRET_KEY"),
		CC_PROCESSOR_ACCESS_KEY:                  os.Getenv("CC_PROCESSOR_ACCESS_KEY"),
		CC_PROCESSOR_PROFILE_ID:                  os.Getenv("CC_PROCESSOR_PROFILE_ID"),
		CC_PROCESSOR_PURCHASE_ENDPOINT:           getEnvOrDefault("CC_PROCESSOR_PURCHASE_ENDPOINT", "https://testsecureacceptance.cybersource.com/pay"),
		PAYMENT_RECEIPT_PAGE_URL:                 os.Getenv("PAYMENT_RECEIPT_PAGE_URL"),
		PAID_COURSE_REGISTRATION_CURRENCY:        strings.ToLower(getEnvOrDefault("PAID_COURSE_REGISTRATION_CURRENCY", "usd")),
		PAID_COURSE_REGISTRATION_CURRENCY_SYMBOL: getEnvOrDefault("PAID_COURSE_REGISTRATION_CURRENCY_SYMBOL", "$"),
		// Sealing
		PAYLOAD_ENCRYPTION_SECRET: os.Getenv("PAYLOAD_ENCRYPTION_SECRET"),
		// Toggles
		LOG_POSTPAY_CALLBACKS: getEnvBool("LOG_POSTPAY_CALLBACKS", false),
		CRON_ENABLED:          getEnvBool("CRON_ENABLED", true),
		ALLOWED_ORIGINS:       getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	return envVariables, nil
}

// IsProduction reports whether the service runs with production settings.
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

// Processor returns the hosted-checkout credentials.
func (e *EnviornmentVariable) Processor() cybersource.Config {
	return cybersource.Config{
		SecretKey:        e.CC_PROCESSOR_SECRET_KEY,
		AccessKey:        e.CC_PROCESSOR_ACCESS_KEY,
		ProfileID:        e.CC_PROCESSOR_PROFILE_ID,
		PurchaseEndpoint: e.CC_PROCESSOR_PURCHASE_ENDPOINT,
		Currency:         e.PAID_COURSE_REGISTRATION_CURRENCY,
	}
}

// Spaces returns the receipt bucket settings.
func (e *EnviornmentVariable) Spaces() storage.SpacesConfig {
	return storage.SpacesConfig{
		AccessKey: e.SPACES_ACCESS_KEY,
		SecretKey: e.SPACES_SECRET_KEY,
		Bucket:    e.SPACES_BUCKET,
		Region:    e.SPACES_REGION,
		Endpoint:  e.SPACES_ENDPOINT,
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
