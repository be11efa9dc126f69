// Package source は取り込み元ディレクトリの CSV / XLSX ファイルを読み込みます。
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ogurasousui/hr-datahub/internal/core/ingest"
	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// Extensions は探索する拡張子です。先頭が優先されます。
var Extensions = []string{".csv", ".xlsx"}

// Directory は 1 つのディレクトリを取り込み元とする ingest.Sources の実装です。
type Directory struct {
	root string
}

var _ ingest.Sources = (*Directory)(nil)

// NewDirectory は Directory を生成します。root が存在しない場合はエラーを返します。
func NewDirectory(root string) (*Directory, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("source: directory is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source: %s is not a directory", root)
	}
	return &Directory{root: root}, nil
}

// Root は取り込み元ディレクトリを返します。
func (d *Directory) Root() string {
	return d.root
}

// Locate は name に拡張子を付けたファイルを探します。
func (d *Directory) Locate(name string) (string, error) {
	for _, ext := range Extensions {
		path := filepath.Join(d.root, name+ext)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("source: stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%s in %s: %w", name, d.root, ingest.ErrSourceNotFound)
}

// Read は拡張子に応じたリーダーでファイルを読み込みます。
func (d *Directory) Read(ctx context.Context, path string) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("source: unsupported file type %s", path)
	}
}

// toRecords は見出し行とデータ行から Record を組み立てます。
// 見出しより短い行は不足分を空文字で補い、空行は読み飛ばします。
func toRecords(header []string, rows [][]string) []schema.Record {
	records := make([]schema.Record, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		rec := make(schema.Record, len(header))
		for i, label := range header {
			if label == "" {
				continue
			}
			if i < len(row) {
				rec[label] = row[i]
			} else {
				rec[label] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
