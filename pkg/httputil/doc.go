// Package httputil provides HTTP utilities for the design API client.
//
// # Overview
//
// This package provides the request infrastructure shared by every remote
// call the application makes:
//
//   - [Retry]: Automatic retry with exponential backoff
//   - [RetryableError]: Marker for transient failures worth retrying
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// The delay doubles after each failed attempt. When a failure carries an
// explicit retry-after hint, as rate-limited image exports do, the hint
// overrides the computed backoff so the client never hammers a throttled
// endpoint early:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return fetchChunk(ctx, ids)
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Max retries: 3
//   - Base backoff: 1 second
//
// Response caching lives in the cache package; this package is purely about
// getting one request through.
package httputil
