// Package fetch retrieves one URL over HTTP with a bounded retry loop.
//
// The HTTP client built by NewHTTPClient does not verify TLS certificates.
// This is deliberate: the targets of a fingerprinting run are unknown
// deployments that frequently serve self-signed or expired certificates,
// and refusing them would hide the very sites being surveyed. Do not reuse
// this client for anything that must trust the server it talks to.
//
// Only network-level failures are retried (dial, DNS, TLS, timeout, body
// read). Any HTTP status code, including 4xx and 5xx, is a successful fetch
// whose body is still worth fingerprinting.
package fetch
