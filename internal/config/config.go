// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the kiosk backend
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Security SecurityConfig
	OFN      OFNConfig
	IQTool   IQToolConfig
	Kiosk    KioskConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
	ShopName    string
	ShopAddress string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
}

// OFNConfig contains Open Food Network instance configuration
type OFNConfig struct {
	InstanceURL     string
	AdminEmail      string
	AdminPassword   string
	APIKey          string
	DistributorID   string
	OrderCycleID    string
	PaymentMethodID string
	RequestTimeout  time.Duration
	SessionTTL      time.Duration
}

// IQToolConfig contains the settings API and invoice webhook configuration
type IQToolConfig struct {
	BaseURL        string
	Email          string
	Password       string
	InvoicePath    string
	RequestTimeout time.Duration
}

// KioskConfig contains terminal and session behaviour
type KioskConfig struct {
	IdleTimeout     time.Duration
	SweepInterval   time.Duration
	RelayPulse      time.Duration
	RelayOnCommand  []string
	RelayOffCommand []string
	ScaleVID        string
	ScalePID        string
	ScaleBaudRate   int
	ScaleReadWait   time.Duration
	InvoiceMode     string
	ReceiptDir      string
	CardReader      string
	DoorCardReader  string
	SocketURL       string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Nanostore Kiosk"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
			ShopName:    getEnv("SHOP_NAME", "Nanostore"),
			ShopAddress: getEnv("SHOP_ADDRESS", ""),
		},
		Server: ServerConfig{
			Port:         getEnv("APP_PORT", "8765"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("CLOUD_DB_HOST", "localhost"),
			Port:         getEnv("CLOUD_DB_PORT", "5432"),
			Name:         getEnv("CLOUD_DB_NAME", "nanostore_db"),
			User:         getEnv("CLOUD_DB_USER", "postgres"),
			Password:     getEnv("CLOUD_DB_PASSWORD", ""),
			SSLMode:      getEnv("CLOUD_DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept"}),
		},
		OFN: OFNConfig{
			InstanceURL:     strings.TrimRight(getEnv("OFN_INSTANCE_URL", "https://openfoodnetwork.de"), "/"),
			AdminEmail:      getEnv("OFN_ADMIN_EMAIL", ""),
			AdminPassword:   getEnv("OFN_ADMIN_PASSWORD", ""),
			APIKey:          getEnv("OFN_ADMIN_API_KEY", ""),
			DistributorID:   getEnv("OFN_DISTRIBUTOR_ID", "256"),
			OrderCycleID:    getEnv("OFN_ORDER_CYCLE_ID", "1153"),
			PaymentMethodID: getEnv("OFN_PAYMENT_METHOD_ID", "124"),
			RequestTimeout:  getEnvAsDuration("OFN_REQUEST_TIMEOUT", 20*time.Second),
			SessionTTL:      getEnvAsDuration("OFN_SESSION_TTL", 30*time.Minute),
		},
		IQTool: IQToolConfig{
			BaseURL:        strings.TrimRight(getEnv("IQT_API_BASE_URL", "https://ofn.hof-homann.de/api"), "/"),
			Email:          getEnv("IQT_API_EMAIL", ""),
			Password:       getEnv("IQT_API_PASSWORD", ""),
			InvoicePath:    getEnv("IQT_INVOICE_PATH", "/generate-invoice-pdf-webhook/"),
			RequestTimeout: getEnvAsDuration("IQT_REQUEST_TIMEOUT", 10*time.Second),
		},
		Kiosk: KioskConfig{
			IdleTimeout:     getEnvAsDuration("SESSION_IDLE_TIMEOUT", 15*time.Minute),
			SweepInterval:   getEnvAsDuration("SESSION_SWEEP_INTERVAL", 10*time.Second),
			RelayPulse:      getEnvAsDuration("RELAY_PULSE", 8*time.Second),
			RelayOnCommand:  getEnvAsSlice("RELAY_ON_COMMAND", []string{"poetry", "run", "python", "usblrb.py", "-d", "0", "-s", "123"}),
			RelayOffCommand: getEnvAsSlice("RELAY_OFF_COMMAND", []string{"poetry", "run", "python", "usblrb.py", "-d", "0", "-s", "122"}),
			ScaleVID:        getEnv("SCALE_VID", "1A86"),
			ScalePID:        getEnv("SCALE_PID", "7523"),
			ScaleBaudRate:   getEnvAsInt("SCALE_BAUDRATE", 9600),
			ScaleReadWait:   getEnvAsDuration("SCALE_READ_TIMEOUT", time.Second),
			InvoiceMode:     getEnv("INVOICE_MODE", "webhook"),
			ReceiptDir:      getEnv("RECEIPT_DIR", "./receipts"),
			CardReader:      getEnv("CARD_READER", ""),
			DoorCardReader:  getEnv("DOOR_CARD_READER", ""),
			SocketURL:       getEnv("KIOSK_WS_URL", "ws://localhost:8765/ws"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if c.OFN.InstanceURL == "" {
		return fmt.Errorf("OFN_INSTANCE_URL is required")
	}

	if c.Kiosk.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}

	if c.Kiosk.IdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}

	switch c.Kiosk.InvoiceMode {
	case "webhook", "pdf", "none":
	default:
		return fmt.Errorf("INVOICE_MODE must be one of webhook, pdf, none")
	}

	if len(c.Kiosk.RelayOnCommand) == 0 || len(c.Kiosk.RelayOffCommand) == 0 {
		return fmt.Errorf("RELAY_ON_COMMAND and RELAY_OFF_COMMAND are required")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
