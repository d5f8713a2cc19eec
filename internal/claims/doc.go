// Package claims serves and fetches merkle claims for the redemption
// front-end.
//
// The server is read-only: it loads a claims file produced by the snapshot
// builder and answers root and proof lookups over JSON.
//
// HTTP API
//
//	GET /roots
//	    Return {token: root} for every token in the claims file.
//
//	GET /claims/:token/:holder
//	    Return the holder's amount, proof and the token root. Addresses are
//	    matched case-insensitively.
//
//	GET /healthz
//	    Liveness check.
//
// Unknown tokens or holders yield 404 with a JSON error envelope; malformed
// addresses yield 400.
package claims
