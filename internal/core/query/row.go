package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row は列順を保持した 1 行分の結果です。
type Row struct {
	Columns []string
	Values  []any
}

// NewRow は列名と値の組から Row を生成します。長さが異なる場合はエラーを返します。
func NewRow(columns []string, values []any) (Row, error) {
	if len(columns) != len(values) {
		return Row{}, fmt.Errorf("query: %d columns but %d values", len(columns), len(values))
	}
	return Row{Columns: columns, Values: values}, nil
}

// Get は列名で値を取得します。
func (r Row) Get(column string) (any, bool) {
	for i, name := range r.Columns {
		if name == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map は列順を捨てた map 表現を返します。
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, name := range r.Columns {
		m[name] = r.Values[i]
	}
	return m
}

// MarshalJSON は列順どおりのオブジェクトとして出力します。
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("query: encode column %s: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeRows は結果行をインデント付き JSON 配列の文字列にします。
func EncodeRows(rows []Row) (string, error) {
	if rows == nil {
		rows = []Row{}
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ErrorPayload は呼び出し側へ返すエラーの形です。
type ErrorPayload struct {
	Error string `json:"error"`
}

// EncodeError はエラーを {"error": "..."} 形式の文字列にします。
func EncodeError(err error) string {
	b, marshalErr := json.Marshal(ErrorPayload{Error: Message(err)})
	if marshalErr != nil {
		return `{"error":"Query failed"}`
	}
	return string(b)
}
