package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ogurasousui/hr-datahub/internal/core/employee"
	"github.com/ogurasousui/hr-datahub/internal/core/normalize"
	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Metrics は取り込み結果の計測先です。
type Metrics interface {
	ObserveSource(table string, status string, rows int64)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSource(string, string, int64) {}

// Options は Service の任意設定です。
type Options struct {
	Logger  *zap.Logger
	Metrics Metrics
	Clock   Clock
	// StrictReferences が真の場合、上長参照の欠落・循環を検出した社員マスタは挿入しません。
	StrictReferences bool
}

// Service は取り込み元ファイルを決められた順序でストアへ追記します。
type Service struct {
	sources    Sources
	repo       Repository
	tx         TransactionManager
	normalizer *normalize.Normalizer
	resolver   *employee.Resolver
	logger     *zap.Logger
	metrics    Metrics
	clock      Clock
	strict     bool
}

// NewService は Service を生成します。
func NewService(sources Sources, repo Repository, tx TransactionManager, resolver *employee.Resolver, opts Options) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if resolver == nil {
		resolver = employee.NewResolver(employee.DefaultRoster())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &Service{
		sources:    sources,
		repo:       repo,
		tx:         tx,
		normalizer: normalize.New(),
		resolver:   resolver,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		clock:      opts.Clock,
		strict:     opts.StrictReferences,
	}
}

// Load はすべての取り込み元を schema.LoadOrder の順に処理します。
// ファイルやテーブルが無い取り込み元はスキップし、個別の失敗は記録して続行します。
// 既存テーブルの取得に失敗した場合とコンテキストが終了した場合のみエラーを返します。
func (s *Service) Load(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.New(), StartedAt: s.clock.Now()}
	logger := s.logger.With(zap.String("run_id", report.RunID.String()))

	existing, err := s.repo.ExistingTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: list tables: %w", err)
	}
	provisioned := make(map[schema.Table]bool, len(existing))
	for _, table := range existing {
		provisioned[table] = true
	}
	logger.Info("load started", zap.Strings("existing_tables", tableNames(existing)))

	for _, table := range schema.LoadOrder {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = s.clock.Now()
			return report, err
		}

		result := s.loadSource(ctx, logger, table, provisioned[table])
		report.Results = append(report.Results, result)
		s.metrics.ObserveSource(table.String(), string(result.Status), result.Rows)
	}

	report.FinishedAt = s.clock.Now()
	logger.Info("load finished",
		zap.Int("loaded", report.Count(StatusLoaded)),
		zap.Int("skipped", report.Count(StatusSkipped)),
		zap.Int("failed", report.Count(StatusFailed)),
		zap.Int64("rows", report.Rows()),
	)
	return report, nil
}

func (s *Service) loadSource(ctx context.Context, logger *zap.Logger, table schema.Table, provisioned bool) SourceResult {
	def := schema.MustLookup(table)
	result := SourceResult{Table: table}
	logger = logger.With(zap.String("table", table.String()))

	path, err := s.sources.Locate(def.SourceName)
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			logger.Warn("source file does not exist; skipping", zap.String("source", def.SourceName))
			result.Status = StatusSkipped
			result.Reason = ReasonFileMissing
			return result
		}
		logger.Error("locate source failed", zap.Error(err))
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	result.File = path

	if !provisioned {
		logger.Warn("target table does not exist; run provisioning first", zap.String("file", path))
		result.Status = StatusSkipped
		result.Reason = ReasonTableMissing
		return result
	}

	records, err := s.prepare(ctx, logger, def, path)
	if err != nil {
		logger.Error("prepare source failed", zap.String("file", path), zap.Error(err))
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	var inserted int64
	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		n, err := s.repo.Append(txCtx, table, records)
		if err != nil {
			return err
		}
		inserted = n
		return nil
	})
	if err != nil {
		logger.Error("append failed", zap.String("file", path), zap.Error(err))
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	logger.Info("source loaded", zap.String("file", path), zap.Int64("rows", inserted))
	result.Status = StatusLoaded
	result.Rows = inserted
	return result
}

func (s *Service) prepare(ctx context.Context, logger *zap.Logger, def schema.Definition, path string) ([]schema.Record, error) {
	raws, err := s.sources.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	logger.Info("source read", zap.String("file", path), zap.Int("rows", len(raws)))

	records, err := s.normalizer.NormalizeAll(def.Table, raws)
	if err != nil {
		return nil, err
	}

	if def.Table != schema.TableEmployeeMaster {
		return records, nil
	}

	resolution := s.resolver.Resolve(records)
	if err := resolution.Verify(); err != nil {
		if s.strict {
			return nil, fmt.Errorf("%w: %w", ErrReferentialIntegrity, err)
		}
		logger.Warn("manager references not verifiable; relying on store constraints", zap.Error(err))
	}
	return resolution.Records, nil
}

func tableNames(tables []schema.Table) []string {
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.String())
	}
	return names
}
