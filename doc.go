// Package acmedns implements an ACME DNS-01 issuance client: account
// key management, JWS request construction with anti-replay nonces,
// the DNS-01 challenge lifecycle, CSR generation, and certificate
// assembly, driven against an injected DNSProvider.
//
// Concrete DNS provider implementations, CLI argument parsing, and
// on-disk storage of issued certificates are not this package's
// concern — see DNSProvider and EventSink for the seams a caller
// plugs into.
package acmedns
