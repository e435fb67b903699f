package curling

import (
	"bytes"
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/curling-dev/curling/engine"
)

// errTransferAborted marks a transfer cancelled by the progress callback.
var errTransferAborted = errors.New("transfer aborted by progress callback")

// transfer is the configuration of one send call, finalized once before
// the retry loop. Request state does not change between attempts, so the
// URL, headers and body are computed exactly once.
type transfer struct {
	url     string
	method  string
	header  nethttp.Header
	body    []byte
	hasBody bool
	client  *nethttp.Client
	jar     *fileJar
}

// Send executes the configured transaction, driving up to attempts tries
// against the transport engine with exponential backoff between failures.
//
// A transfer that completes at the transport level is a success regardless
// of HTTP status: a 4xx/5xx response is returned, not retried. Only
// transport-level failures (DNS, connect, TLS, timeout, callback abort)
// trigger backoff and retry. On success the Request resets to a fresh,
// reusable state; exhausting all attempts resets it as well before the
// classified error is returned.
func (r *Request) Send(ctx context.Context, attempts int) (*Response, error) {
	if r.closed {
		return nil, NewLogicError("request is closed")
	}
	if attempts < 1 {
		return nil, NewLogicError("attempts must be at least 1")
	}
	if r.url == "" {
		return nil, NewLogicError("URL is not set")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t, err := r.finalize()
	if err != nil {
		return nil, err
	}

	log := r.log.WithFields(map[string]any{"transfer_id": uuid.NewString()})

	var lastStatus int
	for attempt := 1; ; attempt++ {
		log.Info().
			Str("direction", "outbound").
			Str("method", t.method).
			Str("url", t.url).
			Int("attempt", attempt).
			Msg("HTTP transfer")

		start := time.Now()
		resp, status, err := r.perform(ctx, t)
		if status != 0 {
			lastStatus = status
		}

		if err == nil {
			log.Info().
				Str("direction", "inbound").
				Int("status", resp.HTTPCode).
				Dur("elapsed", time.Since(start)).
				Msg("HTTP transfer complete")

			if t.jar != nil {
				if err := t.jar.save(); err != nil {
					log.Warn().Err(err).Str("path", t.jar.path).Msg("failed to persist cookie jar")
				}
			}
			r.Reset()
			return resp, nil
		}

		code := classifyTransport(err)
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("code", int(code)).
			Msg("HTTP transfer failed")

		if attempt < attempts {
			if serr := sleepContext(ctx, backoffDelay(r.retryDelay, attempt)); serr != nil {
				r.Reset()
				return nil, NewRequestError(t.url, classifyTransport(serr), lastStatus, serr)
			}
			continue
		}

		r.Reset()
		return nil, NewRequestError(t.url, code, lastStatus, err)
	}
}

// finalize computes the effective URL, wire method, headers, body and
// transport for this send call.
func (r *Request) finalize() (*transfer, error) {
	t := &transfer{url: r.url}
	if len(r.args) > 0 {
		t.url = r.url + "?" + strings.Join(r.args, "&")
	}

	t.method = string(r.method)
	if r.method == MethodMIME {
		t.method = string(MethodPost)
	}

	t.header = make(nethttp.Header, len(r.headers))
	for _, line := range r.headers {
		key, value, ok := splitHeaderLine(line)
		if !ok {
			return nil, NewHeaderError("malformed header line", line)
		}
		t.header.Add(key, value)
	}
	if r.userAgent != "" {
		t.header.Set("User-Agent", r.userAgent)
	}

	switch r.payload.kind {
	case payloadPlain:
		// The stored body is only transmitted for methods that carry one.
		if r.method == MethodPost || r.method == MethodPut || r.method == MethodPatch {
			t.body = []byte(r.payload.text)
			t.hasBody = true
			if t.header.Get("Content-Type") == "" {
				t.header.Set("Content-Type", "application/json")
			}
		}
	case payloadMultipart:
		body, contentType, err := r.payload.encodeMultipart()
		if err != nil {
			return nil, err
		}
		t.body = body
		t.hasBody = true
		t.header.Set("Content-Type", contentType)
	}

	opts := engine.Options{
		ConnectTimeout: r.connectTimeout,
		Version:        r.httpVersion,
	}
	if r.proxyURL != "" {
		proxy, err := url.Parse(r.proxyURL)
		if err != nil {
			return nil, NewLogicError("invalid proxy URL " + r.proxyURL)
		}
		if r.proxyUser != "" {
			proxy.User = url.UserPassword(r.proxyUser, r.proxyPass)
		}
		opts.Proxy = proxy
	}

	transport, err := r.handle.Configure(opts)
	if err != nil {
		return nil, NewInitializationError("failed to configure transport", err)
	}

	t.client = &nethttp.Client{
		Transport: transport,
		Timeout:   r.timeout,
	}
	if !r.follow {
		t.client.CheckRedirect = func(*nethttp.Request, []*nethttp.Request) error {
			return nethttp.ErrUseLastResponse
		}
	}
	if r.cookiePath != "" {
		t.jar = newFileJar(r.cookiePath, r.log)
		t.client.Jar = t.jar
	}

	return t, nil
}

// perform drives one attempt. The body reader is rebuilt from the
// finalized bytes so retries never depend on rewinding a consumed stream.
// The returned status is the HTTP code observed this attempt, 0 if none.
func (r *Request) perform(ctx context.Context, t *transfer) (*Response, int, error) {
	var bodyReader io.Reader
	var upload *uploadCounter
	if t.hasBody {
		br := bytes.NewReader(t.body)
		if r.progress != nil {
			upload = &uploadCounter{src: br, total: int64(len(t.body)), fn: r.progress}
			bodyReader = upload
		} else {
			bodyReader = br
		}
	}

	req, err := nethttp.NewRequestWithContext(ctx, t.method, t.url, bodyReader)
	if err != nil {
		return nil, 0, err
	}
	req.Header = t.header.Clone()
	if t.hasBody {
		req.ContentLength = int64(len(t.body))
	}
	if r.authUser != "" || r.authPass != "" {
		req.SetBasicAuth(r.authUser, r.authPass)
	}

	if r.verbose {
		if dump, err := httputil.DumpRequestOut(req, false); err == nil {
			r.log.Debug().Bytes("request", dump).Msg("verbose transfer dump")
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if upload != nil && upload.aborted {
			err = errTransferAborted
		}
		return nil, 0, err
	}
	defer resp.Body.Close()

	if r.verbose {
		if dump, err := httputil.DumpResponse(resp, false); err == nil {
			r.log.Debug().Bytes("response", dump).Msg("verbose transfer dump")
		}
	}

	status := resp.StatusCode
	body, err := r.collectBody(resp, int64(len(t.body)))
	if err != nil {
		return nil, status, err
	}

	return &Response{
		HTTPCode: status,
		Body:     body,
		Headers:  collectHeader(resp.Header),
	}, status, nil
}

// collectBody drains the response into the configured sink: memory, or an
// exclusively-owned file when DownloadToFile was set. The file is closed
// on every exit path. The returned bytes are nil when streaming to file.
func (r *Request) collectBody(resp *nethttp.Response, uploaded int64) ([]byte, error) {
	var src io.Reader = resp.Body
	if r.progress != nil {
		total := resp.ContentLength
		if total < 0 {
			total = 0
		}
		src = &downloadCounter{src: resp.Body, total: total, ulDone: uploaded, fn: r.progress}
	}

	if r.download != "" {
		f, err := os.Create(r.download)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(f, src); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return io.ReadAll(src)
}

// uploadCounter reports upload progress as the request body is consumed.
type uploadCounter struct {
	src     io.Reader
	total   int64
	now     int64
	fn      ProgressFunc
	aborted bool
}

func (u *uploadCounter) Read(p []byte) (int, error) {
	n, err := u.src.Read(p)
	u.now += int64(n)
	if n > 0 || err == nil {
		if u.fn(0, 0, u.total, u.now) {
			u.aborted = true
			return n, errTransferAborted
		}
	}
	return n, err
}

// downloadCounter reports download progress as the response body is read.
type downloadCounter struct {
	src    io.Reader
	total  int64
	now    int64
	ulDone int64
	fn     ProgressFunc
}

func (d *downloadCounter) Read(p []byte) (int, error) {
	n, err := d.src.Read(p)
	d.now += int64(n)
	if n > 0 || err == nil {
		if d.fn(d.total, d.now, d.ulDone, d.ulDone) {
			return n, errTransferAborted
		}
	}
	return n, err
}

// backoffDelay returns the delay before the retry that follows the given
// attempt: base × 2^(attempt−1), capped to keep sleeps bounded.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultRetryDelay
	}
	if attempt > 20 {
		attempt = 20
	}
	d := base << (attempt - 1)
	const maxBackoff = 30 * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
