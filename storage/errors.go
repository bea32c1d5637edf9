package storage

import "errors"

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable object mismatch")

	// ErrEmptyContent means the container exists but holds no versions yet.
	ErrEmptyContent = errors.New("storage: container has no entries")
	// ErrVersionConflict means an append did not name the next version,
	// usually because another writer got there first.
	ErrVersionConflict = errors.New("storage: version conflict")
	ErrAlreadyExists   = errors.New("storage: container already exists")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsEmptyContent(err error) bool { return errors.Is(err, ErrEmptyContent) }

func IsVersionConflict(err error) bool { return errors.Is(err, ErrVersionConflict) }

func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
