package model

import (
	"errors"
	"fmt"

	"xdao.co/macaroon/macaroon"
)

type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrDecode         ErrorCode = "DECODE"
	ErrFraming        ErrorCode = "FRAMING"
	ErrKeyValue       ErrorCode = "KEY_VALUE"
	ErrText           ErrorCode = "TEXT"
	ErrUnknownTag     ErrorCode = "UNKNOWN_TAG"
	ErrSequence       ErrorCode = "SEQUENCE"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"
	ErrCrypto         ErrorCode = "CRYPTO"
	ErrVerify         ErrorCode = "VERIFY"
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

// mapErr projects core codec errors onto stable boundary codes.
func mapErr(err error) *CodedError {
	if err == nil {
		return nil
	}
	var merr *macaroon.Error
	if !errors.As(err, &merr) {
		return NewError(ErrInternal, err.Error())
	}
	code := ErrInternal
	switch merr.Kind {
	case macaroon.KindDecode:
		code = ErrDecode
	case macaroon.KindFraming:
		code = ErrFraming
	case macaroon.KindKeyValue:
		code = ErrKeyValue
	case macaroon.KindText:
		code = ErrText
	case macaroon.KindUnknownTag:
		code = ErrUnknownTag
	case macaroon.KindSequence:
		code = ErrSequence
	case macaroon.KindNotImplemented:
		code = ErrNotImplemented
	case macaroon.KindCrypto:
		code = ErrCrypto
	case macaroon.KindVerify:
		code = ErrVerify
	}
	return NewError(code, merr.Error())
}
