// Package engine manages the process-wide lifecycle of the underlying
// HTTP transport and hands out exclusively-owned transport handles.
//
// The engine is initialized once, on first use. A mutex-protected counter
// tracks live handles; when the last handle is released the shared state
// is torn down. Acquire/Release are safe to call from multiple goroutines,
// but a single Handle must only be used by one goroutine at a time.
package engine

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

// Version selects the HTTP protocol version for a transfer.
type Version int

const (
	// VersionDefault lets the transport negotiate the best supported version.
	VersionDefault Version = iota
	// Version1_1 forces HTTP/1.1.
	Version1_1
	// Version2 forces HTTP/2 over TLS.
	Version2
	// Version3 requests HTTP/3. Not supported by this engine build.
	Version3
)

func (v Version) String() string {
	switch v {
	case Version1_1:
		return "HTTP/1.1"
	case Version2:
		return "HTTP/2"
	case Version3:
		return "HTTP/3"
	default:
		return "auto"
	}
}

// Supports reports whether the engine build can speak the given version.
// HTTP/3 would require a QUIC stack, which this build does not carry.
func Supports(v Version) bool {
	switch v {
	case VersionDefault, Version1_1, Version2:
		return true
	default:
		return false
	}
}

const (
	defaultConnectTimeout = 30 * time.Second
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	maxIdleConns          = 100
)

var (
	globalMu  sync.Mutex
	liveCount int
	sessions  tls.ClientSessionCache
)

// Acquire registers a new live handle with the global runtime and returns
// it. The first acquisition after a full teardown re-initializes the
// shared engine state.
func Acquire() *Handle {
	globalMu.Lock()
	if liveCount == 0 {
		sessions = tls.NewLRUClientSessionCache(0)
	}
	liveCount++
	globalMu.Unlock()

	return &Handle{}
}

// Handle is an exclusively-owned view of the transport engine. It is not
// safe for concurrent use; each goroutine needs its own handle.
type Handle struct {
	transport *http.Transport
	released  bool
}

// Options describes how a transfer's transport should be materialized.
type Options struct {
	// Proxy overrides proxy selection. Nil means environment-based.
	Proxy *url.URL
	// ConnectTimeout bounds connection establishment. Zero means default.
	ConnectTimeout time.Duration
	// Version pins the HTTP protocol version.
	Version Version
}

// Configure materializes a transport for the given options. The returned
// transport is owned by the handle and is replaced on the next call.
func (h *Handle) Configure(o Options) (*http.Transport, error) {
	if h.released {
		return nil, fmt.Errorf("transport handle already released")
	}
	if !Supports(o.Version) {
		return nil, fmt.Errorf("%s is not supported by this engine build", o.Version)
	}

	connectTimeout := o.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	proxy := http.ProxyFromEnvironment
	if o.Proxy != nil {
		proxy = http.ProxyURL(o.Proxy)
	}

	t := &http.Transport{
		Proxy:                 proxy,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       &tls.Config{ClientSessionCache: sessionCache()},
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     o.Version == VersionDefault,
	}

	switch o.Version {
	case Version1_1:
		// An empty (non-nil) TLSNextProto map disables HTTP/2 negotiation.
		t.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	case Version2:
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, fmt.Errorf("configure HTTP/2 transport: %w", err)
		}
	}

	if h.transport != nil {
		h.transport.CloseIdleConnections()
	}
	h.transport = t
	return t, nil
}

// Release returns the handle to the global runtime. The last release
// tears the shared engine state down. Release is idempotent.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true

	if h.transport != nil {
		h.transport.CloseIdleConnections()
		h.transport = nil
	}

	globalMu.Lock()
	liveCount--
	if liveCount == 0 {
		sessions = nil
	}
	globalMu.Unlock()
}

// Released reports whether the handle has been returned to the runtime.
func (h *Handle) Released() bool { return h.released }

func sessionCache() tls.ClientSessionCache {
	globalMu.Lock()
	defer globalMu.Unlock()
	return sessions
}
