package chain

import (
	"errors"
	"fmt"

	"github.com/watchfloor/opschain/internal/ref"
)

// Error represents a typed failure from chain operations.
//
// The taxonomy is small and caller-facing:
//   - Not found: chain or link id does not resolve
//   - Invalid argument: empty title, non-positive id, unknown kind
//   - Already linked: duplicate attach of the same record to a chain
//   - Store unavailable: the underlying adapter failed; wrapped as-is
//
// Error includes structured fields so a presentation layer can render a
// clear, non-technical message without parsing strings.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ChainID identifies the affected chain, when known.
	ChainID int64

	// LinkID identifies the affected link, when known.
	LinkID int64

	// Ref identifies the affected record reference, when known.
	Ref ref.Ref

	// Err is the underlying cause (store errors only).
	Err error
}

// ErrorCode categorizes chain errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a chain or link id that does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidArgument indicates unusable input (empty title,
	// non-positive id, kind absent from the catalog).
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeAlreadyLinked indicates the record is already attached to
	// the chain.
	ErrCodeAlreadyLinked ErrorCode = "ALREADY_LINKED"

	// ErrCodeStoreUnavailable indicates the record store adapter failed.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.ChainID != 0 && e.Ref.Kind != "":
		return fmt.Sprintf("%s: %s (chain=%d, record=%s)", e.Code, e.Message, e.ChainID, e.Ref)
	case e.ChainID != 0 && e.LinkID != 0:
		return fmt.Sprintf("%s: %s (chain=%d, link=%d)", e.Code, e.Message, e.ChainID, e.LinkID)
	case e.ChainID != 0:
		return fmt.Sprintf("%s: %s (chain=%d)", e.Code, e.Message, e.ChainID)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap exposes the underlying store error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return codeOf(err) == ErrCodeNotFound
}

// IsInvalidArgument returns true if the error is an invalid-argument error.
func IsInvalidArgument(err error) bool {
	return codeOf(err) == ErrCodeInvalidArgument
}

// IsAlreadyLinked returns true if the error is a duplicate-attach error.
func IsAlreadyLinked(err error) bool {
	return codeOf(err) == ErrCodeAlreadyLinked
}

// IsStoreUnavailable returns true if the error wraps a store failure.
func IsStoreUnavailable(err error) bool {
	return codeOf(err) == ErrCodeStoreUnavailable
}

func codeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// NewNotFound creates a not-found Error for a chain id.
func NewNotFound(what string, chainID int64) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s does not exist", what),
		ChainID: chainID,
	}
}

// NewLinkNotFound creates a not-found Error for a link id within a chain.
func NewLinkNotFound(chainID, linkID int64) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "link does not exist",
		ChainID: chainID,
		LinkID:  linkID,
	}
}

// NewInvalidArgument creates an invalid-argument Error.
func NewInvalidArgument(message string) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: message}
}

// NewAlreadyLinked creates a duplicate-attach Error.
func NewAlreadyLinked(chainID int64, r ref.Ref) *Error {
	return &Error{
		Code:    ErrCodeAlreadyLinked,
		Message: "record is already linked to this chain",
		ChainID: chainID,
		Ref:     r,
	}
}

// NewStoreError wraps a record-store failure. The cause is preserved for
// errors.Is/As; this package never retries, retries belong in the adapter.
func NewStoreError(op string, err error) *Error {
	return &Error{
		Code:    ErrCodeStoreUnavailable,
		Message: op,
		Err:     err,
	}
}
