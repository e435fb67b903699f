package curling

import (
	"net/url"
	"strings"
	"time"

	"github.com/curling-dev/curling/config"
	"github.com/curling-dev/curling/engine"
	"github.com/curling-dev/curling/logger"
)

const (
	// DefaultTimeout is the default overall transfer timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultConnectTimeout is the default connection establishment timeout.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultRetryDelay is the base delay for exponential backoff between
	// retry attempts.
	DefaultRetryDelay = 1 * time.Second
)

// Method is the HTTP method of a request. MethodMIME selects a
// multipart/form-data POST.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
	MethodHead   Method = "HEAD"
	MethodMIME   Method = "MIME"
)

// HTTPVersion selects the protocol version for a transfer.
type HTTPVersion = engine.Version

const (
	VersionDefault = engine.VersionDefault
	Version1_1     = engine.Version1_1
	Version2       = engine.Version2
	Version3       = engine.Version3
)

// AuthScheme selects the HTTP authentication scheme.
type AuthScheme int

const (
	AuthBasic AuthScheme = iota
	AuthDigest
	AuthNTLM
)

func (s AuthScheme) String() string {
	switch s {
	case AuthDigest:
		return "digest"
	case AuthNTLM:
		return "NTLM"
	default:
		return "basic"
	}
}

// ProgressFunc receives periodic transfer progress. Returning true aborts
// the in-flight transfer, which surfaces as a RequestError.
type ProgressFunc func(dlTotal, dlNow, ulTotal, ulNow int64) (abort bool)

// Request is a configurable, reusable single HTTP transaction. It is not
// safe for concurrent use; each goroutine needs its own Request.
//
// A Request owns its transport handle, header list and multipart parts
// exclusively. Close releases them; after Close the Request is inert.
type Request struct {
	noCopy noCopy

	handle *engine.Handle
	log    logger.Logger

	method   Method
	url      string
	args     []string
	headers  []string
	payload  payload
	download string
	progress ProgressFunc

	httpVersion    HTTPVersion
	proxyURL       string
	proxyUser      string
	proxyPass      string
	authUser       string
	authPass       string
	cookiePath     string
	userAgent      string
	timeout        time.Duration
	connectTimeout time.Duration
	follow         bool
	verbose        bool
	retryDelay     time.Duration

	closed bool
}

// New creates a Request with default configuration: method GET, empty
// URL, headers and body. The nil logger is replaced with a no-op one.
func New(log logger.Logger) *Request {
	if log == nil {
		log = logger.Noop()
	}
	r := &Request{
		handle:     engine.Acquire(),
		log:        log,
		retryDelay: DefaultRetryDelay,
	}
	r.applyDefaults()
	return r
}

// NewFromConfig creates a Request seeded with defaults from a loaded
// configuration: timeouts, retry base delay, user agent, cookie path and
// redirect policy.
func NewFromConfig(cfg *config.Config, log logger.Logger) *Request {
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}
	r := New(log)
	r.timeout = cfg.Client.Timeout.Request
	r.connectTimeout = cfg.Client.Timeout.Connect
	r.follow = cfg.Client.FollowRedirects
	r.userAgent = cfg.Client.UserAgent
	r.cookiePath = cfg.Client.CookiePath
	r.retryDelay = cfg.Retry.BaseDelay
	return r
}

func (r *Request) applyDefaults() {
	r.method = MethodGet
	r.url = ""
	r.args = nil
	r.headers = nil
	r.payload.clear()
	r.download = ""
	r.httpVersion = VersionDefault
	r.proxyURL = ""
	r.proxyUser = ""
	r.proxyPass = ""
	r.authUser = ""
	r.authPass = ""
	r.userAgent = ""
	r.timeout = DefaultTimeout
	r.connectTimeout = DefaultConnectTimeout
	r.follow = true
	r.verbose = false
}

// SetMethod sets the HTTP method. Once MethodMIME has been selected, only
// re-selecting MethodMIME is permitted until Reset: switching away would
// silently discard the multipart body.
func (r *Request) SetMethod(m Method) error {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodMIME:
	default:
		return NewLogicError("unknown HTTP method " + string(m))
	}
	if r.method == MethodMIME && m != MethodMIME {
		return NewLogicError("cannot override MIME method with another HTTP method")
	}
	r.method = m
	return nil
}

// SetURL sets the base request URL. Query arguments added with AddArg are
// appended at send time.
func (r *Request) SetURL(u string) *Request {
	r.url = u
	return r
}

// AddArg appends one percent-escaped key=value query argument. Arguments
// are joined with "&" in call order when the final URL is computed at
// send time.
func (r *Request) AddArg(key, value string) *Request {
	r.args = append(r.args, queryEscape(key)+"="+queryEscape(value))
	return r
}

// AddHeader parses and appends one raw header line, e.g.
// "Accept: application/json".
func (r *Request) AddHeader(line string) error {
	if _, _, ok := splitHeaderLine(line); !ok {
		return NewHeaderError("malformed header line", line)
	}
	r.headers = append(r.headers, line)
	return nil
}

// SetBody stores the plain request body. The body is only transmitted
// for POST, PUT and PATCH; other methods retain the stored value without
// sending it. A plain body cannot be combined with multipart parts.
func (r *Request) SetBody(text string) error {
	if r.payload.kind == payloadMultipart {
		return NewLogicError("plain body and multipart parts are mutually exclusive")
	}
	r.payload.setPlain(text)
	return nil
}

// AddFormField appends one named multipart field. The first form call
// switches the request to MethodMIME.
func (r *Request) AddFormField(name, value string) error {
	if r.payload.kind == payloadPlain {
		return NewLogicError("multipart parts and plain body are mutually exclusive")
	}
	r.payload.addPart(mimePart{name: name, value: value})
	r.method = MethodMIME
	return nil
}

// AddFormFile appends one multipart file part referencing a file on disk.
// The file is read at send time; the first form call switches the request
// to MethodMIME.
func (r *Request) AddFormFile(name, filePath string) error {
	if r.payload.kind == payloadPlain {
		return NewLogicError("multipart parts and plain body are mutually exclusive")
	}
	r.payload.addPart(mimePart{name: name, filePath: filePath, isFile: true})
	r.method = MethodMIME
	return nil
}

// DownloadToFile streams the response body to the given path instead of
// collecting it in memory. The file is created (or truncated) per attempt
// and closed on every exit path.
func (r *Request) DownloadToFile(path string) *Request {
	r.download = path
	return r
}

// SetProgressCallback registers a progress callback. The callback
// survives Reset, matching the lifetime of the Request rather than of a
// single transfer.
func (r *Request) SetProgressCallback(fn ProgressFunc) *Request {
	r.progress = fn
	return r
}

// SetTimeout bounds the whole transfer, including body collection.
func (r *Request) SetTimeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// SetConnectTimeout bounds connection establishment only.
func (r *Request) SetConnectTimeout(d time.Duration) *Request {
	r.connectTimeout = d
	return r
}

// SetFollowRedirects toggles automatic redirect following. When disabled,
// the redirect response itself is returned.
func (r *Request) SetFollowRedirects(follow bool) *Request {
	r.follow = follow
	return r
}

// SetProxy routes the transfer through the given proxy URL.
func (r *Request) SetProxy(u string) *Request {
	r.proxyURL = u
	return r
}

// SetProxyAuth sets credentials for proxy authentication.
func (r *Request) SetProxyAuth(username, password string) *Request {
	r.proxyUser = username
	r.proxyPass = password
	return r
}

// SetProxyAuthScheme selects the proxy authentication scheme. The engine
// only supports basic authentication.
func (r *Request) SetProxyAuthScheme(s AuthScheme) error {
	if s != AuthBasic {
		return NewLogicError(s.String() + " proxy authentication is not supported by the transport engine")
	}
	return nil
}

// SetHTTPAuth sets credentials for HTTP basic authentication.
func (r *Request) SetHTTPAuth(username, password string) *Request {
	r.authUser = username
	r.authPass = password
	return r
}

// SetHTTPAuthScheme selects the HTTP authentication scheme. The engine
// only supports basic authentication; digest and NTLM fail eagerly.
func (r *Request) SetHTTPAuthScheme(s AuthScheme) error {
	if s != AuthBasic {
		return NewLogicError(s.String() + " authentication is not supported by the transport engine")
	}
	return nil
}

// SetAuthToken adds a bearer token through the normal header path.
func (r *Request) SetAuthToken(token string) error {
	return r.AddHeader("Authorization: Bearer " + token)
}

// SetCookiePath enables a persistent cookie jar at the given file path,
// used both for sending stored cookies and for recording cookies received
// from the server. The path survives Reset. An empty path disables the
// jar.
func (r *Request) SetCookiePath(path string) *Request {
	r.cookiePath = path
	return r
}

// SetUserAgent sets the User-Agent header for the transfer.
func (r *Request) SetUserAgent(userAgent string) *Request {
	r.userAgent = userAgent
	return r
}

// SetRetryDelay overrides the base delay used for exponential backoff
// between attempts. The delay survives Reset.
func (r *Request) SetRetryDelay(d time.Duration) *Request {
	if d > 0 {
		r.retryDelay = d
	}
	return r
}

// EnableVerbose toggles debug-level logging of request and response
// headers for each transfer.
func (r *Request) EnableVerbose(enabled bool) *Request {
	r.verbose = enabled
	return r
}

// SetHTTPVersion pins the protocol version. Versions the engine build
// cannot speak are rejected eagerly instead of silently downgrading.
func (r *Request) SetHTTPVersion(v HTTPVersion) error {
	if !engine.Supports(v) {
		return NewLogicError(v.String() + " is not supported by the transport engine build")
	}
	r.httpVersion = v
	return nil
}

// Reset returns the Request to a fresh, reusable configuration state.
// The cookie path, progress callback and retry delay survive; everything
// else returns to defaults.
func (r *Request) Reset() {
	r.applyDefaults()
}

// Close releases the transport handle, header list and multipart parts.
// It is idempotent and safe to call on every exit path. A closed Request
// cannot be sent.
func (r *Request) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.headers = nil
	r.payload.clear()
	if r.handle != nil {
		r.handle.Release()
		r.handle = nil
	}
}

// queryEscape percent-escapes a query component the way native engines
// do: space becomes %20, not "+".
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// noCopy makes `go vet -copylocks` flag copies of Request, which owns
// non-duplicable transfer state.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
