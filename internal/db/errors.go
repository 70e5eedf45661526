package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
)

// Op constants name the backend operation for error context.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpTagVals     = "FT.TAGVALS"
	OpHSet        = "HSET"
	OpHMGet       = "HMGET"
	OpScan        = "SCAN"
	OpGet         = "GET"
	OpSet         = "SET"

	OpUpsert  = "UPSERT"
	OpQuery   = "QUERY"
	OpCount   = "COUNT"
	OpScroll  = "SCROLL"
	OpCreate  = "CREATE_COLLECTION"
	OpExists  = "COLLECTION_EXISTS"
	OpHealth  = "HEALTH_CHECK"
	OpFieldIx = "CREATE_FIELD_INDEX"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
