package ingest

import "errors"

var (
	ErrSourceNotFound       = errors.New("ingest: source file not found")
	ErrReferentialIntegrity = errors.New("ingest: referential integrity violation")
	ErrForeignKeyViolation  = errors.New("ingest: foreign key violation")
	ErrDuplicateKey         = errors.New("ingest: duplicate key")
)
