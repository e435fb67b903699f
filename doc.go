// Package curling provides a stateful, reusable HTTP request object with
// multipart bodies, persistent cookies, progress reporting, and a
// retry mechanism with exponential backoff.
//
// A Request is configured through setters and consumed by Send:
//
//	req := curling.New(logger.New("info", false))
//	defer req.Close()
//
//	req.SetMethod(curling.MethodPost)
//	req.SetURL("https://example.com/api")
//	req.AddHeader("Accept: application/json")
//	req.SetBody(`{"key": "value"}`)
//
//	resp, err := req.Send(ctx, 3)
//
// Retries
//   - Send(ctx, attempts) drives up to attempts transfers.
//   - Only transport-level failures are retried: DNS, connect, TLS,
//     timeouts and callback-initiated aborts.
//   - An HTTP 4xx/5xx response is a completed transfer, returned as a
//     Response rather than retried.
//
// Backoff strategy
//   - Exponential, deterministic: delay = baseDelay * 2^(attempt-1).
//   - Capped at 30 seconds to avoid excessive sleeps.
//
// Notes
//   - Request bodies are replayed from finalized bytes on each attempt;
//     retries never depend on rewinding a consumed stream.
//   - After a successful Send the Request resets to a fresh configuration
//     (method GET, empty URL, headers and body) and can be reused. The
//     cookie path, progress callback and retry delay survive the reset.
//   - A Request is not safe for concurrent use. Use one Request per
//     goroutine; the engine's global state handles its own locking.
package curling
