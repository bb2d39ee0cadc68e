package acmedns

import "fmt"

// DNSProvider is the abstract capability the orchestrator drives to
// publish and retract the DNS-01 challenge TXT record at
// _acme-challenge.<domain>. It is an explicit, injected interface
// rather than a duck-typed shell-out, so a caller's provider
// implementation is checked at compile time.
//
// Concrete provider implementations (Cloudflare, Route53, etc.) are
// deliberately out of scope here; callers inject their own.
type DNSProvider interface {
	// CreateAuthRecord publishes a TXT record at
	// _acme-challenge.<domain>. whose value is exactly value. It must
	// return only after the provider API confirms acceptance.
	CreateAuthRecord(domain, value string) error

	// DeleteAuthRecord removes the record created by
	// CreateAuthRecord. It is idempotent: deleting a record that does
	// not exist is not an error.
	DeleteAuthRecord(domain, value string) error
}

// dnsChallengeRecordName returns the DNS-01 record name for domain.
func dnsChallengeRecordName(domain string) string {
	return fmt.Sprintf("_acme-challenge.%s.", domain)
}

// dnsChallengeValue computes the DNS TXT value for a key
// authorization: base64url_nopad(sha256(key_authorization)). This is
// distinct from the key authorization itself, which is never
// published to DNS.
func dnsChallengeValue(keyAuthorization string) string {
	digest := sha256sum([]byte(keyAuthorization))
	return b64url(digest[:])
}
