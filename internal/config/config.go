package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	JWTSecret                 string
	JWTRefreshSecret          string
	Database                  DatabaseConfig
	Mailer                    MailerConfig
	Reminder                  ReminderConfig
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	LogLevel                  string
	LogFormat                 string
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// MailerConfig holds email delivery configuration
type MailerConfig struct {
	SMTPAddr    string
	DefaultFrom string
}

// ReminderConfig holds the knobs of the recurrence and reminder engine
type ReminderConfig struct {
	HorizonDays         int    // look-ahead window for occurrence expansion
	SweepLimit          int    // max due reminders per sweep batch
	ExpandCron          string // cadence of the daily expansion job
	SweepCron           string // cadence of the due-reminder sweep
	QueueWorkers        int
	MaxAttempts         int // total dispatch attempts per reminder
	RetryBackoffSeconds int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "appointments"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	// Load mailer configuration
	mailerConfig := MailerConfig{
		SMTPAddr:    getEnv("MAILER_SMTP_ADDR", ""),
		DefaultFrom: getEnv("MAILER_DEFAULT_FROM", "reminders@localhost"),
	}

	reminderConfig := ReminderConfig{
		ExpandCron: getEnv("REMINDER_EXPAND_CRON", "30 0 * * *"),
		SweepCron:  getEnv("REMINDER_SWEEP_CRON", "*/5 * * * *"),
	}

	var err error
	reminderConfig.HorizonDays, err = getEnvInt("REMINDER_HORIZON_DAYS", 30)
	if err != nil {
		return nil, err
	}
	reminderConfig.SweepLimit, err = getEnvInt("REMINDER_SWEEP_LIMIT", 50)
	if err != nil {
		return nil, err
	}
	reminderConfig.QueueWorkers, err = getEnvInt("REMINDER_QUEUE_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	reminderConfig.MaxAttempts, err = getEnvInt("REMINDER_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	reminderConfig.RetryBackoffSeconds, err = getEnvInt("REMINDER_RETRY_BACKOFF_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	jwtExpMinutes, err := getEnvInt("JWT_EXPIRATION_MINUTES", 15)
	if err != nil {
		return nil, err
	}

	jwtRefreshExpHours, err := getEnvInt("JWT_REFRESH_EXPIRATION_HOURS", 168) // 7 days
	if err != nil {
		return nil, err
	}

	// Return complete configuration
	return &Config{
		Port:                      getEnv("PORT", "3001"),
		Origin:                    getEnv("ORIGIN", "http://localhost:4200"),
		Environment:               getEnv("APP_ENV", "development"),
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		Database:                  dbConfig,
		Mailer:                    mailerConfig,
		Reminder:                  reminderConfig,
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		LogFormat:                 getEnv("LOG_FORMAT", "json"),
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
