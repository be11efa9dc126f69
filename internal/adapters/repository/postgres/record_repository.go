package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/hr-datahub/internal/core/ingest"
	"github.com/ogurasousui/hr-datahub/internal/core/schema"
	pgdb "github.com/ogurasousui/hr-datahub/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	undefinedTableCode      = "42P01"
)

// RecordRepository は取り込み先テーブルへの追記を行う ingest.Repository の実装です。
type RecordRepository struct {
	pool pgdb.Queryer
}

var _ ingest.Repository = (*RecordRepository)(nil)

// NewRecordRepository は RecordRepository を生成します。
func NewRecordRepository(pool pgdb.Queryer) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// ExistingTables は現在のスキーマに存在する取り込み先テーブルを返します。
func (r *RecordRepository) ExistingTables(ctx context.Context) ([]schema.Table, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT table_name
          FROM information_schema.tables
         WHERE table_schema = current_schema()
           AND table_name = ANY($1)
    `, schema.Names())
	if err != nil {
		return nil, fmt.Errorf("postgres: list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]schema.Table, 0, len(schema.LoadOrder))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres: scan table name: %w", err)
		}
		table, err := schema.ParseTable(name)
		if err != nil {
			continue
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list tables: %w", err)
	}
	return tables, nil
}

// Append は COPY で records を追記します。重複排除は行いません。
// 複数行は 1 文で送られるため、同じバッチ内の自己参照は行順に依存しません。
func (r *RecordRepository) Append(ctx context.Context, table schema.Table, records []schema.Record) (int64, error) {
	def, ok := schema.Lookup(table)
	if !ok {
		return 0, fmt.Errorf("postgres: append: %w", schema.ErrUnknownTable)
	}
	if len(records) == 0 {
		return 0, nil
	}

	columns := def.ColumnNames()
	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		values := make([]any, len(def.Columns))
		for j, col := range def.Columns {
			v, err := encodeValue(col.Kind, rec[col.Name])
			if err != nil {
				return 0, fmt.Errorf("postgres: row %d column %s: %w", i+1, col.Name, err)
			}
			values[j] = v
		}
		rows = append(rows, values)
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	n, err := exec.CopyFrom(ctx, pgx.Identifier{table.String()}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, translateRecordPgError(table, err)
	}
	return n, nil
}

func encodeValue(kind schema.Kind, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch kind {
	case schema.KindDate:
		switch v := value.(type) {
		case time.Time:
			return pgtype.Date{Time: time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), Valid: true}, nil
		case pgtype.Date:
			return v, nil
		}
	case schema.KindNumeric:
		switch v := value.(type) {
		case decimal.Decimal:
			return numericFromDecimal(v), nil
		case decimal.NullDecimal:
			if !v.Valid {
				return nil, nil
			}
			return numericFromDecimal(v.Decimal), nil
		case pgtype.Numeric:
			return v, nil
		}
	case schema.KindBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case schema.KindText:
		if v, ok := value.(string); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unexpected %T for %s column", value, kind)
}

func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).Set(d.Coefficient()), Exp: d.Exponent(), Valid: true}
}

func translateRecordPgError(table schema.Table, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			return fmt.Errorf("%w: %s: %s", ingest.ErrForeignKeyViolation, table, pgErr.Detail)
		case uniqueViolationCode:
			return fmt.Errorf("%w: %s: %s", ingest.ErrDuplicateKey, table, pgErr.Detail)
		}
	}

	return fmt.Errorf("postgres: copy into %s: %w", table, err)
}
