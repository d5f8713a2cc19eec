// Package main runs the read-only claims server used by the redemption
// front-end. It loads a claims file written by `feigov merkle build
// --claims-out` and serves roots and per-holder proofs.
//
// HTTP API
//
//	GET /roots
//	    Return {token: root} for every token.
//
//	GET /claims/{token}/{holder}
//	    Return the holder's amount, proof and the token root.
//
//	GET /healthz
//	    Liveness check.
//
// Behaviour
//
//   - All state is loaded at startup and never modified.
//   - Responses are JSON. Non-2xx statuses carry {"error": {message, code}}.
//   - An access log records method, path, remote, status, bytes and duration
//     for each request.
//   - The default listen address is :8080.
package main
