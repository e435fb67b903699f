package curling

import (
	"fmt"
	"sort"
	"strings"
)

// Response is the outcome of a completed transfer.
type Response struct {
	// HTTPCode is the HTTP status code.
	HTTPCode int
	// Body holds the response body. It is nil when the body was streamed
	// to a file via DownloadToFile.
	Body []byte
	// Headers maps lowercased header keys to their values in arrival order.
	Headers Header
}

// GetHeader returns all values for key, looked up case-insensitively, in
// server arrival order. A missing key yields an empty slice.
func (r *Response) GetHeader(key string) []string {
	return r.Headers.Get(key)
}

// String renders the response for debugging: status, body and headers.
func (r *Response) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "status: %d\nbody:\n%s\nheaders:\n", r.HTTPCode, r.Body)

	keys := make([]string, 0, len(r.Headers))
	for key := range r.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", key, strings.Join(r.Headers[key], " "))
	}
	return sb.String()
}
