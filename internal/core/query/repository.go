package query

import (
	"context"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// Filter は参照条件です。nil のフィールドは条件に含めません。
type Filter struct {
	Table      schema.Table
	EmployeeID *string
	Department *string
	Limit      int
}

// Repository は参照専用ストアの抽象です。
type Repository interface {
	Find(ctx context.Context, filter Filter) ([]Row, error)
}
