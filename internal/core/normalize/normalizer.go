// Package normalize は取り込み元の生レコードを正規の列名と型へ変換します。
// 変換は純粋関数であり、解釈できない値は nil に落とすだけでエラーにはしません。
package normalize

import (
	"fmt"
	"strings"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// Normalizer はテーブル定義ごとの見出し対応表を保持します。
type Normalizer struct {
	labels    map[schema.Table]map[string]schema.Column
	canonical map[schema.Table]map[string]schema.Column
}

// New はすべてのテーブル定義から Normalizer を構築します。
func New() *Normalizer {
	n := &Normalizer{
		labels:    make(map[schema.Table]map[string]schema.Column, len(schema.LoadOrder)),
		canonical: make(map[schema.Table]map[string]schema.Column, len(schema.LoadOrder)),
	}
	for _, table := range schema.LoadOrder {
		def := schema.MustLookup(table)
		labels := make(map[string]schema.Column, len(def.Columns))
		canonical := make(map[string]schema.Column, len(def.Columns))
		for _, col := range def.Columns {
			labels[strings.TrimSpace(col.Label)] = col
			for _, alias := range col.Aliases {
				labels[strings.TrimSpace(alias)] = col
			}
			canonical[col.Name] = col
		}
		n.labels[table] = labels
		n.canonical[table] = canonical
	}
	return n
}

// Normalize は見出しをキーとする raw を列名キーへ変換し、列の型に従って値を変換します。
// 定義に無い列は捨てます。正規化済みのレコードを渡した場合は同じ内容を返します。
func (n *Normalizer) Normalize(table schema.Table, raw schema.Record) (schema.Record, error) {
	labels, ok := n.labels[table]
	if !ok {
		return nil, fmt.Errorf("normalize %s: %w", table, schema.ErrUnknownTable)
	}
	canonical := n.canonical[table]

	out := make(schema.Record, len(canonical))

	// 見出し一致より列名一致を優先する。
	for key, value := range raw {
		if _, isCanonical := canonical[key]; isCanonical {
			continue
		}
		if col, ok := labels[strings.TrimSpace(key)]; ok {
			out[col.Name] = Coerce(col.Kind, value)
		}
	}
	for key, value := range raw {
		if col, ok := canonical[key]; ok {
			out[col.Name] = Coerce(col.Kind, value)
		}
	}

	for _, col := range canonical {
		if col.Kind != schema.KindBool {
			continue
		}
		if _, present := out[col.Name]; !present {
			out[col.Name] = false
		}
	}

	return out, nil
}

// NormalizeAll は複数行をまとめて正規化します。
func (n *Normalizer) NormalizeAll(table schema.Table, raws []schema.Record) ([]schema.Record, error) {
	out := make([]schema.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := n.Normalize(table, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Coerce は列の型に合わせて単一の値を変換します。
func Coerce(kind schema.Kind, value any) any {
	switch kind {
	case schema.KindDate:
		return toDate(value)
	case schema.KindNumeric:
		return toNumeric(value)
	case schema.KindBool:
		return toBool(value)
	default:
		return toText(value)
	}
}

func toText(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return strings.TrimSpace(v)
	case *string:
		if v == nil {
			return nil
		}
		return toText(*v)
	default:
		return fmt.Sprint(v)
	}
}

var truthy = map[string]struct{}{
	"yes":  {},
	"true": {},
	"1":    {},
}

func toBool(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case *bool:
		return v != nil && *v
	case string:
		_, ok := truthy[strings.ToLower(strings.TrimSpace(v))]
		return ok
	default:
		_, ok := truthy[strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))]
		return ok
	}
}
