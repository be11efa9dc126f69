package employee

import "errors"

var (
	ErrDanglingManager = errors.New("employee: manager reference not present in batch")
	ErrManagerCycle    = errors.New("employee: manager relation contains a cycle")
)
