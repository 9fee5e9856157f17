package pgxdb

import (
	"context"

	"github.com/marcodd23/go-micro-dbx/pkg/configmgr"
	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/marcodd23/go-micro-dbx/pkg/logx"
	"go.opentelemetry.io/otel/trace"
)

// SetupOption customizes SetupDatabaseManager.
type SetupOption func(*setupOptions)

type setupOptions struct {
	logger             logx.Logger
	observer           dbx.Observer
	tracer             trace.Tracer
	preparedStatements []dbx.PreparedStatement
	connect            bool
}

// WithLogger - logger used by the pool and the client decorators.
func WithLogger(logger logx.Logger) SetupOption {
	return func(o *setupOptions) { o.logger = logger }
}

// WithObserver - receives query, retry and pool events (see pkg/metrics).
func WithObserver(observer dbx.Observer) SetupOption {
	return func(o *setupOptions) { o.observer = observer }
}

// WithTracer - enables a span per query.
func WithTracer(tracer trace.Tracer) SetupOption {
	return func(o *setupOptions) { o.tracer = tracer }
}

// WithPreparedStatements - statements prepared on every new connection.
func WithPreparedStatements(statements ...dbx.PreparedStatement) SetupOption {
	return func(o *setupOptions) { o.preparedStatements = append(o.preparedStatements, statements...) }
}

// WithEagerConnect opens the pool before SetupDatabaseManager returns.
func WithEagerConnect() SetupOption {
	return func(o *setupOptions) { o.connect = true }
}

// SetupDatabaseManager - builds a DatabaseManager backed by pgx from the service configuration.
//
// Arguments:
//   - ctx: Used only when WithEagerConnect is given.
//   - config: The service configuration; its database section and environment are read.
//   - statements: The application statements, bound in auto-release mode. May be nil
//     and bound later with DatabaseManager.BindStatements.
//   - opts: Optional logger, observer, tracer and prepared statements.
//
// Returns:
//   - The DatabaseManager, or a ConfigurationError when the database section is missing or invalid.
//
// Example Usage:
//
//	manager, err := pgxdb.SetupDatabaseManager(ctx, &cfg, statements, pgxdb.WithObserver(metrics.NewObserver(nil)))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	db, err := manager.GetDatabase()
func SetupDatabaseManager(ctx context.Context, config configmgr.Config, statements dbx.StatementGroups, opts ...SetupOption) (*dbx.DatabaseManager, error) {
	options := setupOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	dbConfig := config.GetDatabaseConfig()
	if dbConfig == nil {
		return nil, errorx.NewConfigurationError("database configuration is missing")
	}

	if err := configmgr.ValidateDatabaseConfig(dbConfig); err != nil {
		return nil, errorx.NewConfigurationErrorWrapper(err, "invalid database configuration")
	}

	connectionString, err := dbConfig.ResolveConnectionString(config.GetEnvironment())
	if err != nil {
		return nil, errorx.NewConfigurationErrorWrapper(err, "cannot resolve database connection string")
	}

	logger := logx.OrDefault(options.logger)

	factory := NewPoolFactory(PoolConfig{
		MaxConns:           dbConfig.MaxConns,
		MinConns:           dbConfig.MinConns,
		MaxConnLifetime:    dbConfig.MaxConnLifetime,
		MaxConnIdleTime:    dbConfig.MaxConnIdleTime,
		HealthCheckPeriod:  dbConfig.HealthCheckPeriod,
		PreparedStatements: options.preparedStatements,
		Logger:             logger,
	})

	manager, err := dbx.New(dbx.Config{
		Schema:             dbConfig.Schema,
		ConnectionString:   connectionString,
		LogQueries:         dbConfig.LogQueries,
		DisableProfiling:   !dbConfig.ProfileQueries,
		SlowQueryThreshold: dbConfig.SlowQueryThreshold(),
		DrainRetries:       dbConfig.DrainRetries,
		DrainInterval:      dbConfig.DrainInterval(),
		Logger:             logger,
		Observer:           options.observer,
		Tracer:             options.tracer,
		Statements:         statements,
	}, factory)
	if err != nil {
		return nil, err
	}

	if options.connect {
		if err := manager.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return manager, nil
}
