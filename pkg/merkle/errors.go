package merkle

import (
	"errors"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

var (
	// ErrEmptyInput is returned when a tree is built from no records.
	ErrEmptyInput = errors.New("empty input")

	// ErrIndexOutOfRange is returned for proofs requested outside the real (non-pad) leaves.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotFound is returned when a reverse record lookup has no match.
	ErrNotFound = errors.New("record not found")

	// ErrEncodingOverflow is returned when a field value does not fit its declared width.
	ErrEncodingOverflow = util.ErrEncodingOverflow

	// ErrInvalidFieldValue is returned when a field value does not match its declared type.
	ErrInvalidFieldValue = util.ErrInvalidFieldValue
)
