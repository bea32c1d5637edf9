package model

import (
	"errors"
	"fmt"

	"xdao.co/nameres/locator"
	"xdao.co/nameres/namesys"
	"xdao.co/nameres/resolver"
	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/bundle"
)

type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrInvalidLocator ErrorCode = "INVALID_LOCATOR"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrEntryNotFound  ErrorCode = "ENTRY_NOT_FOUND"
	ErrCorruptMap     ErrorCode = "CORRUPT_MAP"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrStore          ErrorCode = "STORE"
	ErrCIDMismatch    ErrorCode = "CID_MISMATCH"
	ErrInternal       ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a human message.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

var kindCodes = map[namesys.Kind]ErrorCode{
	namesys.KindInvalidInput:  ErrInvalidRequest,
	namesys.KindNotFound:      ErrNotFound,
	namesys.KindAlreadyExists: ErrAlreadyExists,
	namesys.KindEntryNotFound: ErrEntryNotFound,
	namesys.KindCorruptMap:    ErrCorruptMap,
	namesys.KindConflict:      ErrConflict,
	namesys.KindStore:         ErrStore,
}

// CodeOf classifies any error this module returns.
func CodeOf(err error) ErrorCode {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	if code, ok := kindCodes[namesys.KindOf(err)]; ok {
		return code
	}
	switch {
	case errors.Is(err, resolver.ErrInvalidName):
		return ErrInvalidRequest
	case errors.Is(err, locator.ErrDecode):
		return ErrInvalidLocator
	case storage.IsNotFound(err):
		return ErrNotFound
	case storage.IsAlreadyExists(err):
		return ErrAlreadyExists
	case storage.IsVersionConflict(err), errors.Is(err, bundle.ErrDiverged):
		return ErrConflict
	case errors.Is(err, storage.ErrCIDMismatch), errors.Is(err, storage.ErrImmutable):
		return ErrCIDMismatch
	default:
		return ErrInternal
	}
}

// FromError projects err into a CodedError. A nil err yields nil.
func FromError(err error) *CodedError {
	if err == nil {
		return nil
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}
	return NewError(CodeOf(err), err.Error())
}
