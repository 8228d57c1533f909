// Package figma provides an HTTP client for the design file API.
//
// # Overview
//
// The client fetches document trees, renders nodes to images, and
// resolves image fill references to source URLs. All responses are
// cached through [cache.Cache] so repeated compiles of the same file
// don't hit the API, and transient failures (5xx, rate limits) retry
// with exponential backoff.
//
// # Client Pattern
//
//	client := figma.NewClient(token, backend, nil)
//	doc, err := client.File(ctx, "a1B2c3D4e5F6g7H8i9J0k1L2", figma.FileOpts{})
//
// Authentication uses a personal access token sent in the X-Figma-Token
// header. A 401 or 403 response surfaces as an auth error (see
// [errors.IsAuth]) and is never retried; callers should prompt for a
// new token instead.
//
// [cache.Cache]: github.com/quellt/boxwood/pkg/cache.Cache
// [errors.IsAuth]: github.com/quellt/boxwood/pkg/errors.IsAuth
package figma
