// Package server exposes margin translation over HTTP.
//
// The API is stateless and mirrors the library:
//
//	GET  /healthz        build information
//	POST /v1/parse       normalize a root margin
//	POST /v1/translate   translate a margin for a viewport snapshot
//	POST /v1/simulate    run a TOML scenario and return its report
//
// Errors are returned as {"code": ..., "message": ...} with a status
// derived from the error code.
package server
