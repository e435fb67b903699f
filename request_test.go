package curling

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curling-dev/curling/logger"
)

func newTestRequest(t *testing.T) *Request {
	t.Helper()
	req := New(logger.Noop())
	t.Cleanup(req.Close)
	return req
}

func TestNewDefaults(t *testing.T) {
	req := newTestRequest(t)

	assert.Equal(t, MethodGet, req.method)
	assert.Empty(t, req.url)
	assert.Empty(t, req.args)
	assert.Empty(t, req.headers)
	assert.Equal(t, payloadEmpty, req.payload.kind)
	assert.True(t, req.follow)
	assert.Equal(t, DefaultTimeout, req.timeout)
	assert.Equal(t, DefaultConnectTimeout, req.connectTimeout)
	assert.Equal(t, DefaultRetryDelay, req.retryDelay)
}

func TestNewNilLogger(t *testing.T) {
	req := New(nil)
	defer req.Close()
	assert.NotNil(t, req.log)
}

func TestSetMethod(t *testing.T) {
	t.Run("valid methods", func(t *testing.T) {
		req := newTestRequest(t)
		for _, m := range []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead} {
			require.NoError(t, req.SetMethod(m))
			assert.Equal(t, m, req.method)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		req := newTestRequest(t)
		err := req.SetMethod(Method("TRACE"))
		require.Error(t, err)
		assert.True(t, IsErrorType(err, LogicError))
	})

	t.Run("MIME is sticky", func(t *testing.T) {
		req := newTestRequest(t)
		require.NoError(t, req.SetMethod(MethodMIME))

		err := req.SetMethod(MethodPost)
		require.Error(t, err)
		assert.True(t, IsErrorType(err, LogicError))
		assert.Equal(t, MethodMIME, req.method)

		// Re-selecting MIME is a successful no-op.
		require.NoError(t, req.SetMethod(MethodMIME))
	})

	t.Run("reset clears MIME stickiness", func(t *testing.T) {
		req := newTestRequest(t)
		require.NoError(t, req.SetMethod(MethodMIME))
		req.Reset()
		require.NoError(t, req.SetMethod(MethodPost))
	})
}

func TestAddArgEscaping(t *testing.T) {
	req := newTestRequest(t)
	req.AddArg("page", "1").AddArg("q", "a b")

	assert.Equal(t, "page=1&q=a%20b", strings.Join(req.args, "&"))
}

func TestAddHeader(t *testing.T) {
	t.Run("valid line", func(t *testing.T) {
		req := newTestRequest(t)
		require.NoError(t, req.AddHeader("Accept: application/json"))
		require.NoError(t, req.AddHeader("X-Token: abc"))
		assert.Len(t, req.headers, 2)
	})

	t.Run("missing colon", func(t *testing.T) {
		req := newTestRequest(t)
		err := req.AddHeader("not a header")
		require.Error(t, err)
		assert.True(t, IsErrorType(err, HeaderError))
	})

	t.Run("empty key", func(t *testing.T) {
		req := newTestRequest(t)
		err := req.AddHeader(": value")
		require.Error(t, err)
		assert.True(t, IsErrorType(err, HeaderError))
	})
}

func TestBodyExclusivity(t *testing.T) {
	t.Run("form part after plain body", func(t *testing.T) {
		req := newTestRequest(t)
		require.NoError(t, req.SetBody("payload"))

		err := req.AddFormField("name", "value")
		require.Error(t, err)
		assert.True(t, IsErrorType(err, LogicError))
	})

	t.Run("plain body after form part", func(t *testing.T) {
		req := newTestRequest(t)
		require.NoError(t, req.AddFormField("name", "value"))

		err := req.SetBody("payload")
		require.Error(t, err)
		assert.True(t, IsErrorType(err, LogicError))
	})

	t.Run("form call selects MIME method", func(t *testing.T) {
		req := newTestRequest(t)
		require.NoError(t, req.AddFormField("name", "value"))
		assert.Equal(t, MethodMIME, req.method)
	})
}

func TestSetHTTPVersion(t *testing.T) {
	req := newTestRequest(t)

	require.NoError(t, req.SetHTTPVersion(Version1_1))
	require.NoError(t, req.SetHTTPVersion(Version2))
	require.NoError(t, req.SetHTTPVersion(VersionDefault))

	err := req.SetHTTPVersion(Version3)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, LogicError))
	assert.Contains(t, err.Error(), "HTTP/3")
}

func TestAuthSchemes(t *testing.T) {
	req := newTestRequest(t)

	require.NoError(t, req.SetHTTPAuthScheme(AuthBasic))
	require.NoError(t, req.SetProxyAuthScheme(AuthBasic))

	for _, s := range []AuthScheme{AuthDigest, AuthNTLM} {
		err := req.SetHTTPAuthScheme(s)
		require.Error(t, err)
		assert.True(t, IsErrorType(err, LogicError))

		err = req.SetProxyAuthScheme(s)
		require.Error(t, err)
		assert.True(t, IsErrorType(err, LogicError))
	}
}

func TestSetAuthToken(t *testing.T) {
	req := newTestRequest(t)
	require.NoError(t, req.SetAuthToken("secret"))
	require.Len(t, req.headers, 1)
	assert.Equal(t, "Authorization: Bearer secret", req.headers[0])
}

func TestReset(t *testing.T) {
	req := newTestRequest(t)

	require.NoError(t, req.SetMethod(MethodPost))
	req.SetURL("https://example.com").
		AddArg("a", "b").
		SetUserAgent("agent").
		SetTimeout(5 * time.Second).
		SetConnectTimeout(2 * time.Second).
		SetFollowRedirects(false).
		SetProxy("http://proxy:3128").
		DownloadToFile("out.bin").
		SetCookiePath("jar.json").
		SetRetryDelay(250 * time.Millisecond).
		SetProgressCallback(func(_, _, _, _ int64) bool { return false }).
		EnableVerbose(true)
	require.NoError(t, req.SetBody("data"))
	require.NoError(t, req.AddHeader("X-A: 1"))

	req.Reset()

	assert.Equal(t, MethodGet, req.method)
	assert.Empty(t, req.url)
	assert.Empty(t, req.args)
	assert.Empty(t, req.headers)
	assert.Equal(t, payloadEmpty, req.payload.kind)
	assert.Empty(t, req.download)
	assert.Empty(t, req.proxyURL)
	assert.Empty(t, req.userAgent)
	assert.True(t, req.follow)
	assert.False(t, req.verbose)
	assert.Equal(t, DefaultTimeout, req.timeout)
	assert.Equal(t, DefaultConnectTimeout, req.connectTimeout)

	// The cookie path, progress callback and retry delay outlive a reset.
	assert.Equal(t, "jar.json", req.cookiePath)
	assert.NotNil(t, req.progress)
	assert.Equal(t, 250*time.Millisecond, req.retryDelay)
}

func TestClose(t *testing.T) {
	req := New(logger.Noop())

	req.Close()
	req.Close() // idempotent

	_, err := req.Send(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, LogicError))
}

func TestSendValidation(t *testing.T) {
	t.Run("zero attempts", func(t *testing.T) {
		req := newTestRequest(t)
		req.SetURL("http://example.com")
		_, err := req.Send(context.Background(), 0)
		require.Error(t, err)
		assert.True(t, IsErrorType(err, LogicError))
	})

	t.Run("missing URL", func(t *testing.T) {
		req := newTestRequest(t)
		_, err := req.Send(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, IsErrorType(err, LogicError))
	})
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "1.1.0", Version())
}
