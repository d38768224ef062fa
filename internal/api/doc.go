// Package api exposes the documentation cache over HTTP: the
// fetch_document operation (cache lookup, deduplicated upstream fetch,
// insert-on-miss) plus the /-/ diagnostics endpoints for inspecting,
// saving and clearing the cache.
package api
