package schema

import "errors"

var (
	ErrUnknownTable = errors.New("schema: unknown table")
)
