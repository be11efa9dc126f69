package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Scope はトランザクションのアクセスモードです。
type Scope string

const (
	ScopeReadOnly  Scope = "read-only"
	ScopeReadWrite Scope = "read-write"
)

// ErrReadOnlyScope は読み取り専用スコープ内で書き込みスコープを要求した場合に返されます。
var ErrReadOnlyScope = errors.New("postgres: read-write scope requested inside read-only transaction")

type scopedTx struct {
	tx    pgx.Tx
	scope Scope
}

type txContextKey struct{}

// txStarter は pgxpool.Pool と pgxmock の共通部分です。
type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TransactionManager は操作ごとにトランザクションを取得し、すべての終了経路で解放します。
type TransactionManager struct {
	pool             txStarter
	statementTimeout time.Duration
}

// TxOption は TransactionManager の任意設定です。
type TxOption func(*TransactionManager)

// WithStatementTimeout はトランザクション内の各文に statement_timeout を設定します。0 以下は無制限です。
func WithStatementTimeout(d time.Duration) TxOption {
	return func(m *TransactionManager) {
		m.statementTimeout = d
	}
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(pool txStarter, opts ...TxOption) *TransactionManager {
	if pool == nil {
		return nil
	}
	m := &TransactionManager{pool: pool}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithinReadOnly は読み取り専用トランザクションを開始し、fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return m.within(ctx, ScopeReadOnly, fn)
}

// WithinReadWrite は読み書きトランザクションを開始し、fn を実行します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return m.within(ctx, ScopeReadWrite, fn)
}

func (m *TransactionManager) within(ctx context.Context, scope Scope, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("postgres: transaction function is required")
	}
	if m == nil {
		return fn(ctx)
	}

	// 外側のトランザクションを再利用する。読み取り専用の内側で書き込みは許可しない。
	if outer, ok := ctx.Value(txContextKey{}).(scopedTx); ok {
		if outer.scope == ScopeReadOnly && scope == ScopeReadWrite {
			return ErrReadOnlyScope
		}
		return fn(ctx)
	}

	opts := pgx.TxOptions{AccessMode: pgx.ReadWrite}
	if scope == ScopeReadOnly {
		opts.AccessMode = pgx.ReadOnly
	}

	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin %s tx: %w", scope, err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback(ctx)
		}
	}()

	if m.statementTimeout > 0 {
		if _, err := tx.Exec(ctx, "SELECT set_config('statement_timeout', $1, true)", strconv.FormatInt(m.statementTimeout.Milliseconds(), 10)); err != nil {
			return fmt.Errorf("postgres: set statement_timeout: %w", err)
		}
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, scopedTx{tx: tx, scope: scope})); err != nil {
		done = true
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("postgres: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit %s tx: %w", scope, err)
	}
	done = true
	return nil
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	st, ok := ctx.Value(txContextKey{}).(scopedTx)
	return st.tx, ok
}

// QueryerFromContext はコンテキスト内にトランザクションが存在すればそれを返し、存在しなければ fallback を返します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// Queryer は pgx.Tx および pgxpool.Pool と互換性のあるクエリ実行インターフェースです。
// CopyFrom は取り込み時の一括追記に使用します。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}
