package source

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// ReadXLSX はブックの先頭シートを読み込みます。1 行目を見出しとして扱います。
func ReadXLSX(path string) ([]schema.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("source: %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("source: read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("source: missing header")
	}
	return toRecords(rows[0], rows[1:]), nil
}
