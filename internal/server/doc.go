// Package server assembles the Fiber application shared by every route:
// panic recovery, per-request IDs, structured error rendering and the tuned
// upstream HTTP client. Route registration lives in server/routes so the
// handler layer can depend on this package without a cycle.
package server
