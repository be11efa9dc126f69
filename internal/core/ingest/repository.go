package ingest

import (
	"context"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// Sources は取り込み元ファイルの探索と読み込みの抽象です。
type Sources interface {
	// Locate は拡張子を除いたファイル名から実ファイルのパスを返します。
	// 見つからない場合は ErrSourceNotFound を返します。
	Locate(name string) (string, error)
	// Read は見出し行をキーとしたレコード列を返します。
	Read(ctx context.Context, path string) ([]schema.Record, error)
}

// Repository は取り込み先ストアの抽象です。
type Repository interface {
	ExistingTables(ctx context.Context) ([]schema.Table, error)
	// Append は records を追記し、挿入件数を返します。重複排除は行いません。
	Append(ctx context.Context, table schema.Table, records []schema.Record) (int64, error)
}
