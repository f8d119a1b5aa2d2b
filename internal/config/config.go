package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/locvowork/employee_migration/pkg/retry"
)

// Supported source drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported destination kinds
const (
	DestMongo     = "mongo"
	DestElastic   = "elastic"
	DestDatastore = "datastore"
	DestMemory    = "memory"
)

type Config struct {
	// source database config
	SourceDriver         string
	SourceHost           string
	SourcePort           int
	SourceUser           string
	SourcePassword       string
	SourceDatabase       string
	SourceSSLMode        string
	SourceQueryTimeout   time.Duration
	SourceConnectRetries int
	SourceRetryBackoff   time.Duration

	// destination config
	DestKind           string
	MongoURI           string
	MongoDatabase      string
	ElasticURL         string
	ElasticUsername    string
	ElasticPassword    string
	DatastoreProjectID string
	DestWriteTimeout   time.Duration

	// loader config
	BatchSize    int
	ClearOnEmpty bool
	TablesFile   string

	// logger config
	LogLevel    string
	LogFilePath string

	// run observability
	StatusAddr     string
	PushgatewayURL string
	MetricsJob     string
	ReportPath     string
}

// Load reads the optional env file at path (".env" when empty) and builds a Config
// from the environment. A missing env file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", path, err)
	}

	driver := strings.ToLower(getEnvString("SOURCE_DRIVER", DriverMySQL))
	retryDefaults := retry.DefaultPolicy()
	cfg := &Config{
		SourceDriver:         driver,
		SourceHost:           getEnvString("SOURCE_HOST", "localhost"),
		SourcePort:           getEnvInt("SOURCE_PORT", defaultPort(driver)),
		SourceUser:           getEnvString("SOURCE_USER", "root"),
		SourcePassword:       getEnvString("SOURCE_PASSWORD", ""),
		SourceDatabase:       getEnvString("SOURCE_DATABASE", "employees"),
		SourceSSLMode:        getEnvString("SOURCE_SSL_MODE", "disable"),
		SourceQueryTimeout:   getEnvDuration("SOURCE_QUERY_TIMEOUT", 0),
		SourceConnectRetries: getEnvInt("SOURCE_CONNECT_RETRIES", retryDefaults.MaxRetries),
		SourceRetryBackoff:   getEnvDuration("SOURCE_RETRY_BACKOFF", retryDefaults.Backoff),

		DestKind:           strings.ToLower(getEnvString("DEST_KIND", DestMongo)),
		MongoURI:           getEnvString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnvString("MONGO_DATABASE", "employees"),
		ElasticURL:         getEnvString("ELASTIC_URL", "http://localhost:9200"),
		ElasticUsername:    getEnvString("ELASTIC_USERNAME", ""),
		ElasticPassword:    getEnvString("ELASTIC_PASSWORD", ""),
		DatastoreProjectID: getEnvString("DATASTORE_PROJECT_ID", ""),
		DestWriteTimeout:   getEnvDuration("DEST_WRITE_TIMEOUT", 0),

		BatchSize:    getEnvInt("BATCH_SIZE", 1000),
		ClearOnEmpty: getEnvBool("CLEAR_ON_EMPTY", false),
		TablesFile:   getEnvString("TABLES_FILE", ""),

		LogLevel:    getEnvString("LOG_LEVEL", "info"),
		LogFilePath: getEnvString("LOG_FILE_PATH", ""),

		StatusAddr:     getEnvString("STATUS_ADDR", ""),
		PushgatewayURL: getEnvString("PUSHGATEWAY_URL", ""),
		MetricsJob:     getEnvString("METRICS_JOB", "employee_migration"),
		ReportPath:     getEnvString("REPORT_PATH", ""),
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.SourceDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported SOURCE_DRIVER %q", c.SourceDriver)
	}
	switch c.DestKind {
	case DestMongo, DestElastic, DestMemory:
	case DestDatastore:
		if c.DatastoreProjectID == "" {
			return errors.New("DATASTORE_PROJECT_ID is required for the datastore destination")
		}
	default:
		return fmt.Errorf("unsupported DEST_KIND %q", c.DestKind)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.SourceConnectRetries < 0 {
		return fmt.Errorf("SOURCE_CONNECT_RETRIES must not be negative, got %d", c.SourceConnectRetries)
	}
	return nil
}

func defaultPort(driver string) int {
	if driver == DriverPostgres {
		return 5432
	}
	return 3306
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
