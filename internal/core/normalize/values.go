package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	// 月/日 を優先し、成立しなければ 日/月 として解釈する。
	"1/2/2006",
	"2/1/2006",
	"1/2/06",
	"2/1/06",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2/1/2006 15:04",
	"1-2-2006",
	"2-1-2006",
	"02-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate は文字列を UTC の日付へ変換します。解釈できない場合は ok=false です。
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toDate(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return dateOnly(v)
	case *time.Time:
		if v == nil {
			return nil
		}
		return toDate(*v)
	case string:
		if t, ok := ParseDate(v); ok {
			return t
		}
		return nil
	default:
		if t, ok := ParseDate(fmt.Sprint(v)); ok {
			return t
		}
		return nil
	}
}

var numericNoise = strings.NewReplacer("$", "", ",", "", "%", "", " ", "")

// ParseNumeric は金額・率などの文字列を decimal へ変換します。
func ParseNumeric(raw string) (decimal.Decimal, bool) {
	s := numericNoise.Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func toNumeric(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return v
	case decimal.NullDecimal:
		if !v.Valid {
			return nil
		}
		return v.Decimal
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case float32:
		return toNumeric(float64(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return decimal.NewFromFloat(v)
	case string:
		if d, ok := ParseNumeric(v); ok {
			return d
		}
		return nil
	default:
		if d, ok := ParseNumeric(fmt.Sprint(v)); ok {
			return d
		}
		return nil
	}
}
