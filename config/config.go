package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Store         StoreConfig
	Database      DatabaseConfig
	Azure         AzureConfig
	Bedrock       BedrockConfig
	Pricing       PricingConfig
	Observability ObservabilityConfig
	Environment   string

	// HardTimeout bounds each single provider attempt
	HardTimeout time.Duration

	// EnableRequestLogging gates usage recording; generation behavior is
	// identical either way
	EnableRequestLogging bool

	// CatalogPath optionally points at a YAML model/pricing catalog that
	// overlays the env-derived defaults
	CatalogPath string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig selects the usage store engine
type StoreConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string

	// Path is the SQLite database file (sqlite driver only)
	Path string
}

// DatabaseConfig holds PostgreSQL configuration for the postgres store.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence
// over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AzureConfig holds Azure OpenAI provider configuration.
// Deployments are Azure OpenAI deployment names, not model names.
type AzureConfig struct {
	Endpoint              string
	APIKey                string
	APIVersion            string
	DeploymentLowCost     string
	DeploymentHighQuality string
	DeploymentLowLatency  string
}

// BedrockConfig holds AWS Bedrock provider configuration
type BedrockConfig struct {
	Region           string
	ModelLowCost     string
	ModelHighQuality string
	ModelLowLatency  string
}

// PricingConfig holds approximate per-1K-token prices in USD
type PricingConfig struct {
	AzureInputPer1K    float64
	AzureOutputPer1K   float64
	BedrockInputPer1K  float64
	BedrockOutputPer1K float64
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("APP_ENV", "dev"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", "sqlite"),
			Path:   getEnv("LOG_DB_PATH", "./usage_logs.sqlite"),
		},
		Database: loadDatabaseConfig(),
		Azure: AzureConfig{
			Endpoint:              getEnv("AZURE_OPENAI_ENDPOINT", ""),
			APIKey:                getEnv("AZURE_OPENAI_API_KEY", ""),
			APIVersion:            getEnv("AZURE_OPENAI_API_VERSION", "2024-02-15-preview"),
			DeploymentLowCost:     getEnv("AZURE_DEPLOYMENT_LOW_COST", ""),
			DeploymentHighQuality: getEnv("AZURE_DEPLOYMENT_HIGH_QUALITY", ""),
			DeploymentLowLatency:  getEnv("AZURE_DEPLOYMENT_LOW_LATENCY", ""),
		},
		Bedrock: BedrockConfig{
			Region:           getEnv("AWS_REGION", ""),
			ModelLowCost:     getEnv("BEDROCK_MODEL_LOW_COST", ""),
			ModelHighQuality: getEnv("BEDROCK_MODEL_HIGH_QUALITY", ""),
			ModelLowLatency:  getEnv("BEDROCK_MODEL_LOW_LATENCY", ""),
		},
		Pricing: PricingConfig{
			AzureInputPer1K:    getEnvAsFloat("AZURE_COST_PER_1K_INPUT_USD", 0.00015),
			AzureOutputPer1K:   getEnvAsFloat("AZURE_COST_PER_1K_OUTPUT_USD", 0.00060),
			BedrockInputPer1K:  getEnvAsFloat("BEDROCK_COST_PER_1K_INPUT_USD", 0.00025),
			BedrockOutputPer1K: getEnvAsFloat("BEDROCK_COST_PER_1K_OUTPUT_USD", 0.00125),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
		HardTimeout:          getEnvAsSeconds("HARD_TIMEOUT_S", 20*time.Second),
		EnableRequestLogging: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		CatalogPath:          getEnv("CATALOG_PATH", ""),
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("sqlite store requires LOG_DB_PATH")
		}
	case "postgres":
		if c.Database.ConnectionString == "" && c.Database.Host == "" {
			return fmt.Errorf("postgres store requires DATABASE_URL or DB_HOST")
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}

	if c.HardTimeout <= 0 {
		return fmt.Errorf("hard timeout must be positive")
	}

	// Provider settings are required once the gateway serves real traffic.
	// In development they may stay empty so the offline commands work.
	if c.IsProduction() {
		if c.Azure.Endpoint == "" || c.Azure.APIKey == "" {
			return fmt.Errorf("azure openai endpoint and api key are required in production")
		}
		if c.Azure.DeploymentLowCost == "" || c.Azure.DeploymentHighQuality == "" || c.Azure.DeploymentLowLatency == "" {
			return fmt.Errorf("all three azure deployments are required in production")
		}
		if c.Bedrock.Region == "" {
			return fmt.Errorf("aws region is required in production")
		}
		if c.Bedrock.ModelLowCost == "" || c.Bedrock.ModelHighQuality == "" || c.Bedrock.ModelLowLatency == "" {
			return fmt.Errorf("all three bedrock models are required in production")
		}
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", ""),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", ""),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", ""),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSeconds reads a plain number of seconds, fractional allowed
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return time.Duration(value * float64(time.Second))
}
