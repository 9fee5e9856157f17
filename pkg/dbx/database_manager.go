package dbx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/marcodd23/go-micro-dbx/pkg/logx"
	"github.com/marcodd23/go-micro-dbx/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// Config - everything needed to assemble a DatabaseManager in one go.
// Queries are profiled unless DisableProfiling is set.
type Config struct {
	Schema             string `validate:"required"`
	ConnectionString   string `validate:"required"`
	LogQueries         bool
	DisableProfiling   bool
	SlowQueryThreshold time.Duration `validate:"gte=0"`
	DrainRetries       int           `validate:"gte=0"`
	DrainInterval      time.Duration `validate:"gte=0"`
	Logger             logx.Logger   `validate:"-"`
	Observer           Observer      `validate:"-"`
	Tracer             trace.Tracer  `validate:"-"`
	// Statements, when not nil, are bound right away.
	Statements StatementGroups `validate:"-"`
}

// DatabaseManager hands out the process wide Database handle of one schema.
type DatabaseManager struct {
	schema   string
	pool     *PoolManager
	clients  ClientAcquirer
	logger   logx.Logger
	mu       sync.Mutex
	raw      StatementGroups
	bound    BoundStatements
	hasBound bool
	database *Database
}

// NewDatabaseManager - DatabaseManager constructor.
//
// Arguments:
//   - schema: The schema name exposed read-only on every handle.
//   - pool: The PoolManager closed by Database.Close.
//   - clients: Where decorated clients come from, usually a ClientProvider over pool.
//   - logger: logx.GetLogger() when nil.
func NewDatabaseManager(schema string, pool *PoolManager, clients ClientAcquirer, logger logx.Logger) *DatabaseManager {
	return &DatabaseManager{schema: schema, pool: pool, clients: clients, logger: logx.OrDefault(logger)}
}

// New builds the PoolManager, ClientProvider and DatabaseManager described by cfg.
func New(cfg Config, factory PoolFactory) (*DatabaseManager, error) {
	if err := validator.NewValidator().Validate(cfg); err != nil {
		return nil, errorx.NewConfigurationErrorWrapper(err, "invalid database manager config")
	}

	drainRetries, drainInterval := cfg.DrainRetries, cfg.DrainInterval
	if drainInterval == 0 {
		drainRetries, drainInterval = DefaultDrainRetries, DefaultDrainInterval
	}

	pool := NewPoolManager(cfg.ConnectionString, factory, cfg.Logger).
		WithSchema(cfg.Schema).
		WithDrainPolicy(drainRetries, drainInterval).
		WithObserver(cfg.Observer)

	clientConfig := DefaultClientConfig()
	clientConfig.Schema = cfg.Schema
	clientConfig.LogQueries = cfg.LogQueries
	clientConfig.ProfileQueries = !cfg.DisableProfiling
	clientConfig.Logger = cfg.Logger
	clientConfig.Observer = cfg.Observer
	clientConfig.Tracer = cfg.Tracer
	if cfg.SlowQueryThreshold > 0 {
		clientConfig.SlowQueryThreshold = cfg.SlowQueryThreshold
	}

	provider := NewClientProvider(pool, clientConfig)

	manager := NewDatabaseManager(cfg.Schema, pool, provider, cfg.Logger)
	if cfg.Statements != nil {
		manager.BindStatements(cfg.Statements)
	}

	return manager, nil
}

// Schema - the schema name.
func (m *DatabaseManager) Schema() string {
	return m.schema
}

// PoolManager - the underlying pool manager.
func (m *DatabaseManager) PoolManager() *PoolManager {
	return m.pool
}

// Connect opens the pool ahead of the first query.
func (m *DatabaseManager) Connect(ctx context.Context) error {
	return m.pool.Connect(ctx)
}

// BindStatements registers the application statements and binds them in auto-release mode.
// A Database handle obtained before keeps the statements it was built with.
func (m *DatabaseManager) BindStatements(groups StatementGroups) *DatabaseManager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.raw = groups
	m.bound = BindStatementsAutoRelease(groups, m.clients)
	m.hasBound = true

	return m
}

// GetDatabase returns the Database handle, building it on first call.
//
// It fails with errorx.ErrMissingStatements until BindStatements has been
// called; that failure is not remembered. Every successful call returns the
// same handle.
func (m *DatabaseManager) GetDatabase() (*Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.database != nil {
		return m.database, nil
	}

	if !m.hasBound {
		return nil, errorx.ErrMissingStatements
	}

	m.database = &Database{
		schema:     m.schema,
		pool:       m.pool,
		clients:    m.clients,
		raw:        m.raw,
		statements: m.bound,
		logger:     m.logger,
	}
	m.logger.LogDebug(context.Background(), fmt.Sprintf("Database handle ready for schema %s", m.schema))

	return m.database, nil
}
