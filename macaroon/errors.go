package macaroon

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindDecode         Kind = "Decode"         // outer envelope: base64, JSON, version marker
	KindFraming        Kind = "Framing"        // packet structure: length header, varint, terminator
	KindKeyValue       Kind = "KeyValue"       // packet body without a tag/value separator
	KindText           Kind = "Text"           // required-text bytes are not valid UTF-8
	KindUnknownTag     Kind = "UnknownTag"     // unrecognized packet tag
	KindSequence       Kind = "Sequence"       // well-formed packets in an order that is not a macaroon
	KindNotImplemented Kind = "NotImplemented" // format without a registered codec
	KindCrypto         Kind = "Crypto"         // minting, sealing, or opening key material
	KindVerify         Kind = "Verify"         // credential fails verification
	KindInternal       Kind = "Internal"       // library misuse
)

// Error is the library's structured error type.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return newError(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
