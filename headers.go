package curling

import (
	nethttp "net/http"
	"strings"
)

// splitHeaderLine splits a raw "Key: Value" line on the first colon and
// trims surrounding whitespace from both parts. ok is false for lines
// without a colon or with an empty key, such as the blank separator
// between the header block and the body.
func splitHeaderLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// Header maps lowercased header keys to their values in arrival order.
// Repeated headers (multiple Set-Cookie lines, for example) keep every
// value.
type Header map[string][]string

// Add appends a value under the lowercased key.
func (h Header) Add(key, value string) {
	lowered := strings.ToLower(key)
	h[lowered] = append(h[lowered], value)
}

// AddLine parses one raw header line and records it. Lines without a
// colon are ignored rather than treated as errors.
func (h Header) AddLine(line string) {
	key, value, ok := splitHeaderLine(line)
	if !ok {
		return
	}
	h.Add(key, value)
}

// Get returns all values recorded for key, looked up case-insensitively,
// in arrival order. A missing key yields an empty slice.
func (h Header) Get(key string) []string {
	return h[strings.ToLower(key)]
}

// collectHeader converts the engine's parsed response headers into a
// Header, lowercasing keys and preserving per-key value order.
func collectHeader(src nethttp.Header) Header {
	h := make(Header, len(src))
	for key, values := range src {
		for _, value := range values {
			h.Add(key, strings.TrimSpace(value))
		}
	}
	return h
}
