package service

import "errors"

var (
	// ErrStoreRead means a job could not read its input; nothing was written.
	ErrStoreRead = errors.New("store read failed")
	// ErrStoreWrite means a job failed while writing its results.
	ErrStoreWrite = errors.New("store write failed")
)
