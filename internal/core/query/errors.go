package query

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTableNotAllowed = errors.New("query: table not allowed")
	ErrInvalidLimit    = errors.New("query: limit must not be negative")
	ErrQueryFailed     = errors.New("query failed")
)

// TableNotAllowedError は許可リスト外のテーブル名を保持します。
type TableNotAllowedError struct {
	Table string
}

func (e *TableNotAllowedError) Error() string {
	return fmt.Sprintf("query: table %q is not allowed", e.Table)
}

// Is は ErrTableNotAllowed との比較を可能にします。
func (e *TableNotAllowedError) Is(target error) bool {
	return target == ErrTableNotAllowed
}

// IsInvalidInput は呼び出し側の入力に起因するエラーかを判定します。
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrTableNotAllowed) || errors.Is(err, ErrInvalidLimit)
}

// Message はエラーを呼び出し側へ返す文言に変換します。
func Message(err error) string {
	if err == nil {
		return ""
	}
	var notAllowed *TableNotAllowedError
	switch {
	case errors.As(err, &notAllowed):
		return fmt.Sprintf("Table %s is not allowed", notAllowed.Table)
	case errors.Is(err, ErrInvalidLimit):
		return "Limit must be a non-negative integer"
	case errors.Is(err, ErrQueryFailed):
		if cause, ok := strings.CutPrefix(err.Error(), ErrQueryFailed.Error()+": "); ok {
			return "Query failed: " + cause
		}
		return "Query failed"
	default:
		return "Query failed: " + err.Error()
	}
}
