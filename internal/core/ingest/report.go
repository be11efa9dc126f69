package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// Status は取り込み元 1 件ごとの処理結果です。
type Status string

const (
	StatusLoaded  Status = "loaded"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

const (
	ReasonFileMissing  = "file_missing"
	ReasonTableMissing = "table_missing"
)

// SourceResult は取り込み元 1 件分の結果です。
type SourceResult struct {
	Table  schema.Table
	File   string
	Status Status
	Reason string
	Rows   int64
	Err    error
}

// Report は 1 回の取り込み実行の結果です。
type Report struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []SourceResult
}

// Count は指定した状態の件数を返します。
func (r *Report) Count(status Status) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Rows は挿入された総行数を返します。
func (r *Report) Rows() int64 {
	if r == nil {
		return 0
	}
	var total int64
	for _, res := range r.Results {
		total += res.Rows
	}
	return total
}

// Result はテーブルの結果を返します。
func (r *Report) Result(table schema.Table) (SourceResult, bool) {
	if r == nil {
		return SourceResult{}, false
	}
	for _, res := range r.Results {
		if res.Table == table {
			return res, true
		}
	}
	return SourceResult{}, false
}
