// Package query は許可されたテーブルに対する参照専用の検索を提供します。
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// DefaultLimit は Limit 未指定時の取得件数です。
const DefaultLimit = 10

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// TransactionManager は読み取り専用トランザクションの抽象です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Metrics は検索結果の計測先です。
type Metrics interface {
	ObserveQuery(table string, outcome string, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveQuery(string, string, time.Duration) {}

// Service は検索ユースケースを提供します。
type Service struct {
	repo    Repository
	tx      TransactionManager
	metrics Metrics
}

// UseCase はトランスポート層から利用する検索操作です。
type UseCase interface {
	Query(ctx context.Context, in Input) (*Result, error)
}

var _ UseCase = (*Service)(nil)

// NewService は Service を生成します。
func NewService(repo Repository, tx TransactionManager, metrics Metrics) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{repo: repo, tx: tx, metrics: metrics}
}

// Input は検索条件です。空文字のフィルタは指定なしとして扱います。
type Input struct {
	Table      string `json:"table" validate:"required"`
	Limit      int    `json:"limit" validate:"gte=0"`
	EmployeeID string `json:"employee_id"`
	Department string `json:"department"`
}

// Result は検索結果です。
type Result struct {
	Table schema.Table
	Rows  []Row
}

// Query は許可リストに含まれるテーブルを検索します。
func (s *Service) Query(ctx context.Context, in Input) (*Result, error) {
	started := time.Now()

	filter, err := buildFilter(in)
	if err != nil {
		s.metrics.ObserveQuery("", OutcomeRejected, time.Since(started))
		return nil, err
	}

	var rows []Row
	err = s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.Find(txCtx, filter)
		if err != nil {
			return err
		}
		rows = found
		return nil
	})
	if err != nil {
		s.metrics.ObserveQuery(filter.Table.String(), OutcomeError, time.Since(started))
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	if rows == nil {
		rows = []Row{}
	}

	s.metrics.ObserveQuery(filter.Table.String(), OutcomeOK, time.Since(started))
	return &Result{Table: filter.Table, Rows: rows}, nil
}

func buildFilter(in Input) (Filter, error) {
	table, err := schema.ParseTable(in.Table)
	if err != nil {
		return Filter{}, &TableNotAllowedError{Table: in.Table}
	}
	if in.Limit < 0 {
		return Filter{}, fmt.Errorf("%w: %d", ErrInvalidLimit, in.Limit)
	}

	filter := Filter{Table: table, Limit: in.Limit}
	if filter.Limit == 0 {
		filter.Limit = DefaultLimit
	}
	if v := strings.TrimSpace(in.EmployeeID); v != "" {
		filter.EmployeeID = &v
	}
	if v := strings.TrimSpace(in.Department); v != "" {
		filter.Department = &v
	}
	return filter, nil
}
