package curling

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"syscall"
)

// ClientError represents the different categories of curling errors.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of a client error.
type ErrorType string

const (
	// InitializationError covers engine or handle creation failures.
	InitializationError ErrorType = "initialization"
	// RequestError covers transfer-level failures (DNS, connect, TLS,
	// timeout, callback-initiated abort).
	RequestError ErrorType = "request"
	// HeaderError covers malformed or unappendable headers.
	HeaderError ErrorType = "header"
	// MimeError covers multipart body construction failures.
	MimeError ErrorType = "mime"
	// LogicError covers API misuse.
	LogicError ErrorType = "logic"
)

// TransportCode classifies the transport-level cause of a failed transfer,
// in the spirit of the numeric error codes native HTTP engines report.
type TransportCode int

const (
	CodeUnknown TransportCode = iota
	CodeResolve
	CodeConnect
	CodeTLS
	CodeTimeout
	CodeAborted
	CodeFile
)

func (c TransportCode) String() string {
	switch c {
	case CodeResolve:
		return "could not resolve host"
	case CodeConnect:
		return "connection failed"
	case CodeTLS:
		return "TLS handshake failed"
	case CodeTimeout:
		return "operation timed out"
	case CodeAborted:
		return "aborted by callback"
	case CodeFile:
		return "local file error"
	default:
		return "transfer failed"
	}
}

// classifyTransport maps an error from the transport engine to a TransportCode.
func classifyTransport(err error) TransportCode {
	if errors.Is(err, errTransferAborted) {
		return CodeAborted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeResolve
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return CodeTLS
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return CodeTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return CodeFile
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return CodeConnect
	}

	return CodeUnknown
}

type initializationError struct {
	message string
	wrapped error
}

func (e *initializationError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("initialization error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("initialization error: %s", e.message)
}

func (e *initializationError) Type() ErrorType { return InitializationError }
func (e *initializationError) Unwrap() error   { return e.wrapped }

// requestError carries the full diagnostic context of a failed transfer:
// the effective URL, the classified transport code with its description,
// and the last HTTP status observed across attempts (0 if none).
type requestError struct {
	url        string
	code       TransportCode
	lastStatus int
	wrapped    error
}

func (e *requestError) Error() string {
	return fmt.Sprintf("request failed for URL %s: code %d (%s): %v; last HTTP status: %d",
		e.url, e.code, e.code, e.wrapped, e.lastStatus)
}

func (e *requestError) Type() ErrorType     { return RequestError }
func (e *requestError) Unwrap() error       { return e.wrapped }
func (e *requestError) Code() TransportCode { return e.code }
func (e *requestError) LastStatus() int     { return e.lastStatus }

type headerError struct {
	line    string
	message string
}

func (e *headerError) Error() string {
	return fmt.Sprintf("header error: %s: %q", e.message, e.line)
}

func (e *headerError) Type() ErrorType { return HeaderError }

type mimeError struct {
	message string
	wrapped error
}

func (e *mimeError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("mime error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("mime error: %s", e.message)
}

func (e *mimeError) Type() ErrorType { return MimeError }
func (e *mimeError) Unwrap() error   { return e.wrapped }

type logicError struct {
	message string
}

func (e *logicError) Error() string   { return fmt.Sprintf("logic error: %s", e.message) }
func (e *logicError) Type() ErrorType { return LogicError }

// NewInitializationError creates a new initialization error.
func NewInitializationError(message string, wrapped error) ClientError {
	return &initializationError{message: message, wrapped: wrapped}
}

// NewRequestError creates a new transfer-level error with full context.
func NewRequestError(url string, code TransportCode, lastStatus int, wrapped error) ClientError {
	return &requestError{url: url, code: code, lastStatus: lastStatus, wrapped: wrapped}
}

// NewHeaderError creates a new header error for the offending line.
func NewHeaderError(message, line string) ClientError {
	return &headerError{message: message, line: line}
}

// NewMimeError creates a new multipart construction error.
func NewMimeError(message string, wrapped error) ClientError {
	return &mimeError{message: message, wrapped: wrapped}
}

// NewLogicError creates a new API misuse error.
func NewLogicError(message string) ClientError {
	return &logicError{message: message}
}

// IsErrorType checks whether an error belongs to a specific category.
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// TransportCodeOf extracts the transport code from a request error.
func TransportCodeOf(err error) (TransportCode, bool) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr.code, true
	}
	return CodeUnknown, false
}
