package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// ReadCSV は UTF-8 の CSV を読み込みます。先頭の BOM は無視します。
func ReadCSV(path string) ([]schema.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	return decodeCSV(f)
}

func decodeCSV(r io.Reader) ([]schema.Record, error) {
	br := stripUTF8BOM(bufio.NewReader(r))

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("source: missing header")
		}
		return nil, fmt.Errorf("source: read header: %w", err)
	}
	for _, h := range header {
		if !utf8.ValidString(h) {
			return nil, errors.New("source: invalid header encoding")
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("source: read rows: %w", err)
	}
	return toRecords(header, rows), nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
