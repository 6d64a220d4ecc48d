package store

import "errors"

var (
	// ErrIndexCreation means a stale index could not be removed or a new one created.
	ErrIndexCreation = errors.New("index creation failed")

	// ErrIndexNotFound means no index file exists at the requested path.
	ErrIndexNotFound = errors.New("index not found")

	// ErrRowInsert aborts a build; nothing from the failed transaction is kept.
	ErrRowInsert = errors.New("row insert failed")

	// ErrQuery wraps any store-level failure while answering a query.
	ErrQuery = errors.New("query failed")

	// ErrRowDecode means a stored row does not match the expected shape,
	// usually an index built by an incompatible version.
	ErrRowDecode = errors.New("row decode failed")
)
