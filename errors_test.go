package curling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypes(t *testing.T) {
	wrapped := errors.New("underlying")

	tests := []struct {
		name string
		err  ClientError
		typ  ErrorType
	}{
		{"initialization", NewInitializationError("engine failed", wrapped), InitializationError},
		{"request", NewRequestError("http://example.com", CodeConnect, 0, wrapped), RequestError},
		{"header", NewHeaderError("malformed header line", "bad"), HeaderError},
		{"mime", NewMimeError("part failed", wrapped), MimeError},
		{"logic", NewLogicError("misuse"), LogicError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type())
			assert.True(t, IsErrorType(tt.err, tt.typ))
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestIsErrorType(t *testing.T) {
	assert.False(t, IsErrorType(nil, LogicError))
	assert.False(t, IsErrorType(errors.New("plain"), LogicError))
	assert.False(t, IsErrorType(NewLogicError("misuse"), RequestError))

	// Works through wrapping.
	wrapped := fmt.Errorf("context: %w", NewLogicError("misuse"))
	assert.True(t, IsErrorType(wrapped, LogicError))
}

func TestRequestErrorDiagnostics(t *testing.T) {
	err := NewRequestError("https://api.example.com/v1?page=1", CodeResolve, 503, errors.New("lookup failed"))

	msg := err.Error()
	assert.Contains(t, msg, "https://api.example.com/v1?page=1")
	assert.Contains(t, msg, fmt.Sprintf("code %d", CodeResolve))
	assert.Contains(t, msg, "could not resolve host")
	assert.Contains(t, msg, "last HTTP status: 503")

	code, ok := TransportCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeResolve, code)
}

func TestTransportCodeOfNonRequestError(t *testing.T) {
	_, ok := TransportCodeOf(NewLogicError("misuse"))
	assert.False(t, ok)
	_, ok = TransportCodeOf(nil)
	assert.False(t, ok)
}

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code TransportCode
	}{
		{"abort", errTransferAborted, CodeAborted},
		{"wrapped abort", fmt.Errorf("read: %w", errTransferAborted), CodeAborted},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, CodeResolve},
		{"file", &fs.PathError{Op: "open", Path: "/tmp/x", Err: syscall.ENOENT}, CodeFile},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), CodeConnect},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), CodeConnect},
		{"unknown", errors.New("mystery"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, classifyTransport(tt.err))
		})
	}
}

func TestTransportCodeStrings(t *testing.T) {
	codes := []TransportCode{CodeUnknown, CodeResolve, CodeConnect, CodeTLS, CodeTimeout, CodeAborted, CodeFile}
	for _, code := range codes {
		assert.NotEmpty(t, code.String())
	}
}
