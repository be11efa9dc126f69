// Package app は設定からロガー・DB プール・各サービスを組み立てます。
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ogurasousui/hr-datahub/internal/adapters/repository/postgres"
	"github.com/ogurasousui/hr-datahub/internal/adapters/source"
	"github.com/ogurasousui/hr-datahub/internal/core/employee"
	"github.com/ogurasousui/hr-datahub/internal/core/ingest"
	"github.com/ogurasousui/hr-datahub/internal/core/query"
	"github.com/ogurasousui/hr-datahub/internal/platform/config"
	pgdb "github.com/ogurasousui/hr-datahub/internal/platform/db/postgres"
	"github.com/ogurasousui/hr-datahub/internal/platform/observability"
)

// Database は pgxpool.Pool が満たす操作の集合です。
type Database interface {
	pgdb.Queryer
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Runtime は各コマンドが共有する依存関係です。
type Runtime struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Health  *pgdb.HealthChecker
	Query   *query.Service

	db      Database
	tx      *pgdb.TransactionManager
	closers []func()
}

// Bootstrap は設定ファイルを読み込み、DB に接続した Runtime を返します。
func Bootstrap(ctx context.Context, configPath string) (*Runtime, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if configPath == "" {
		configPath = config.DefaultPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("app: build logger: %w", err)
	}

	pool, err := pgdb.NewPool(ctx, cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
	)

	rt := New(cfg, logger, pool, observability.DefaultMetrics())
	rt.closers = append(rt.closers, pool.Close)
	return rt, nil
}

// New は接続済みの db から Runtime を組み立てます。metrics が nil の場合は専用レジストリを使用します。
func New(cfg *config.Config, logger *zap.Logger, db Database, metrics *observability.Metrics) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		reg := prometheus.NewRegistry()
		metrics = observability.NewMetrics(reg, reg)
	}

	tx := pgdb.NewTransactionManager(db, pgdb.WithStatementTimeout(cfg.Database.StatementTimeout))
	queryRepo := postgres.NewQueryRepository(db)

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Health:  pgdb.NewHealthChecker(db, cfg.Database.Name),
		Query:   query.NewService(queryRepo, tx, metrics),
		db:      db,
		tx:      tx,
	}
}

// Ingest は sourceDir を取り込み元とする ingest.Service を生成します。空の場合は設定値を使用します。
func (r *Runtime) Ingest(sourceDir string) (*ingest.Service, error) {
	if sourceDir == "" {
		sourceDir = r.Config.Import.SourceDir
	}
	dir, err := source.NewDirectory(sourceDir)
	if err != nil {
		return nil, err
	}

	resolver := employee.NewResolver(Roster(r.Config.Import.Roster))
	r.Logger.Debug("manager rules", zap.Strings("rules", resolver.Rules()))

	return ingest.NewService(dir, postgres.NewRecordRepository(r.db), r.tx, resolver, ingest.Options{
		Logger:           r.Logger.Named("ingest"),
		Metrics:          r.Metrics,
		StrictReferences: r.Config.Import.Strict(),
	}), nil
}

// Close はプールを閉じてログを書き出します。
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	_ = r.Logger.Sync()
}

// Roster は設定の固定 ID を既定値に重ねます。
func Roster(cfg config.RosterConfig) employee.Roster {
	roster := employee.DefaultRoster()
	if cfg.CEO != "" {
		roster.CEO = cfg.CEO
	}
	if cfg.CFO != "" {
		roster.CFO = cfg.CFO
	}
	if cfg.SalesManager != "" {
		roster.SalesManager = cfg.SalesManager
	}
	if cfg.SalesTeamLeader != "" {
		roster.SalesTeamLeader = cfg.SalesTeamLeader
	}
	if cfg.OperationsManager != "" {
		roster.OperationsManager = cfg.OperationsManager
	}
	return roster
}
