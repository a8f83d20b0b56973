package repository

import "errors"

// ErrRetryable wraps storage failures caused by contention or timeouts
// (lock timeout, serialization failure, deadlock, cancellation, failed commit). Nothing was
// written and the whole unit of work can be replayed.
var ErrRetryable = errors.New("storage contention")

// ErrRowMissing is returned when an update inside a transaction matched no
// row even though the row was read earlier in the same transaction.
var ErrRowMissing = errors.New("row missing")

// ErrDuplicate is returned by Create when a unique constraint rejects the row.
var ErrDuplicate = errors.New("duplicate row")
