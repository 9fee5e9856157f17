package configmgr

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/marcodd23/go-micro-dbx/pkg/validator"
)

// TestEnvironment - environment name for which TLS is disabled on the database connection.
const TestEnvironment = "test"

// DatabaseConfig - database section of the service configuration.
//
// Either ConnectionString or UrlVar must be set. UrlVar holds the NAME of an
// environment variable whose value is the connection URL, so the same property
// file can point at whatever variable the hosting platform injects.
type DatabaseConfig struct {
	Schema              string        `mapstructure:"schema" validate:"required"`
	ConnectionString    string        `mapstructure:"connectionString" validate:"required_without=UrlVar"`
	UrlVar              string        `mapstructure:"urlVar" validate:"required_without=ConnectionString"`
	LogQueries          bool          `mapstructure:"logQueries"`
	ProfileQueries      bool          `mapstructure:"profileQueries"`
	SlowQueryMillis     int64         `mapstructure:"slowQueryMillis" validate:"gte=0"`
	MaxConns            int32         `mapstructure:"maxConns" validate:"gte=0"`
	MinConns            int32         `mapstructure:"minConns" validate:"gte=0"`
	MaxConnLifetime     time.Duration `mapstructure:"maxConnLifetime"`
	MaxConnIdleTime     time.Duration `mapstructure:"maxConnIdleTime"`
	HealthCheckPeriod   time.Duration `mapstructure:"healthCheckPeriod"`
	DrainRetries        int           `mapstructure:"drainRetries" validate:"gte=0"`
	DrainIntervalMillis int64         `mapstructure:"drainIntervalMillis" validate:"gte=0"`
}

// Defaults applied to the database section before decoding.
const (
	DefaultSlowQueryMillis     = 4000
	DefaultDrainRetries        = 3
	DefaultDrainIntervalMillis = 100
)

// NewDatabaseConfig returns a DatabaseConfig carrying the defaults, for code that builds it by hand.
func NewDatabaseConfig(schema, connectionString string) DatabaseConfig {
	return DatabaseConfig{
		Schema:              schema,
		ConnectionString:    connectionString,
		ProfileQueries:      true,
		SlowQueryMillis:     DefaultSlowQueryMillis,
		DrainRetries:        DefaultDrainRetries,
		DrainIntervalMillis: DefaultDrainIntervalMillis,
	}
}

// SlowQueryThreshold - the profiling threshold as a duration.
func (c DatabaseConfig) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMillis) * time.Millisecond
}

// DrainInterval - the pool drain polling interval as a duration.
func (c DatabaseConfig) DrainInterval() time.Duration {
	return time.Duration(c.DrainIntervalMillis) * time.Millisecond
}

// ResolveConnectionString returns the connection string to open the pool with.
//
// The explicit ConnectionString wins over UrlVar. In the test environment
// sslmode=disable is appended unless the string already sets an sslmode.
func (c DatabaseConfig) ResolveConnectionString(environment string) (string, error) {
	connString := c.ConnectionString
	if connString == "" && c.UrlVar != "" {
		connString = os.Getenv(c.UrlVar)
		if connString == "" {
			return "", fmt.Errorf("database url variable %s is empty", c.UrlVar)
		}
	}

	if connString == "" {
		return "", fmt.Errorf("database connection string not configured")
	}

	if strings.EqualFold(environment, TestEnvironment) && !strings.Contains(connString, "sslmode=") {
		connString = appendQueryParam(connString, "sslmode", "disable")
	}

	return connString, nil
}

func appendQueryParam(connString, key, value string) string {
	// keyword/value DSN, e.g. "host=localhost user=postgres"
	if !strings.Contains(connString, "://") {
		return fmt.Sprintf("%s %s=%s", connString, key, value)
	}

	separator := "?"
	if strings.Contains(connString, "?") {
		separator = "&"
	}

	return connString + separator + key + "=" + url.QueryEscape(value)
}

// ValidateDatabaseConfig - apply the struct tag validation to the database section.
func ValidateDatabaseConfig(c *DatabaseConfig) error {
	if c == nil {
		return fmt.Errorf("database configuration missing")
	}

	if err := validator.NewValidator().Validate(c); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	return nil
}
