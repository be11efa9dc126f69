package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/hr-datahub/internal/core/query"
	"github.com/ogurasousui/hr-datahub/internal/core/schema"
	pgdb "github.com/ogurasousui/hr-datahub/internal/platform/db/postgres"
)

// findTemplate は列挙値ごとに定義時点で固定された検索文です。
type findTemplate struct {
	selectClause string
	// departmentPredicate は $%d を 1 つ含む部署条件です。
	departmentPredicate string
}

var findTemplates = buildFindTemplates()

// maxPrealloc は結果スライスに先取りする容量の上限です。
const maxPrealloc = 64

func buildFindTemplates() map[schema.Table]findTemplate {
	templates := make(map[schema.Table]findTemplate, len(schema.LoadOrder))
	for _, table := range schema.LoadOrder {
		def := schema.MustLookup(table)
		tpl := findTemplate{
			selectClause: "SELECT " + strings.Join(def.ColumnNames(), ", ") + " FROM " + table.String(),
		}
		if def.HasColumn(schema.ColumnDepartment) {
			tpl.departmentPredicate = "department = $%d"
		} else {
			tpl.departmentPredicate = "employee_id IN (SELECT employee_id FROM employee_master WHERE department = $%d)"
		}
		templates[table] = tpl
	}
	return templates
}

// QueryRepository は query.Repository の PostgreSQL 実装です。
type QueryRepository struct {
	pool pgdb.Queryer
}

var _ query.Repository = (*QueryRepository)(nil)

// NewQueryRepository は QueryRepository を生成します。
func NewQueryRepository(pool pgdb.Queryer) *QueryRepository {
	return &QueryRepository{pool: pool}
}

// Find は filter に一致する行をストアの既定順で返します。
func (r *QueryRepository) Find(ctx context.Context, filter query.Filter) ([]query.Row, error) {
	sql, args, err := buildFind(filter)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	result := make([]query.Row, 0, min(filter.Limit, maxPrealloc))
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = decodeValue(values[i])
		}
		row, err := query.NewRow(columns, values)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func buildFind(filter query.Filter) (string, []any, error) {
	tpl, ok := findTemplates[filter.Table]
	if !ok {
		return "", nil, fmt.Errorf("postgres: find: %w", schema.ErrUnknownTable)
	}

	args := make([]any, 0, 3)
	conditions := make([]string, 0, 2)

	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		conditions = append(conditions, "employee_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		conditions = append(conditions, fmt.Sprintf(tpl.departmentPredicate, len(args)))
	}

	var b strings.Builder
	b.WriteString(tpl.selectClause)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	args = append(args, filter.Limit)
	b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))

	return b.String(), args, nil
}

func decodeValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.DateOnly)
	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		if v.NaN || v.InfinityModifier != pgtype.Finite {
			f, err := v.Float64Value()
			if err != nil || !f.Valid {
				return nil
			}
			return strconv.FormatFloat(f.Float64, 'f', -1, 64)
		}
		return decimal.NewFromBigInt(v.Int, v.Exp)
	case pgtype.Date:
		if !v.Valid {
			return nil
		}
		return v.Time.Format(time.DateOnly)
	default:
		return v
	}
}
