package acmedns

import (
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Default option values: a 2048-bit key, a 65-second per-request
// timeout, a 4-second wait between challenge polls, and 15 polls
// before giving up.
const (
	DefaultBits           = 2048
	DefaultDigest         = "sha256"
	DefaultRequestTimeout = 65 * time.Second
	DefaultChallengeWait  = 4 * time.Second
	DefaultMaxPolls       = 15
)

// Options configures a Client.
type Options struct {
	// AccountKey, if non-nil, is reused across issuances (renewal
	// path). If nil, a fresh one is generated and the account is
	// treated as not-yet-registered.
	AccountKey *AccountKey

	// RegistrationRecoveryEmail, if non-empty, is sent as a
	// mailto: contact on new-reg/new-account so the account can be
	// recovered later.
	RegistrationRecoveryEmail string

	// Bits is the RSA key size used for both AccountKey (when
	// generated) and CertificateKey. Must be >= 2048.
	Bits int

	// Digest names the signing digest. Only "sha256" is implemented;
	// present for parity with the original's constructor signature.
	Digest string

	// RequestTimeout bounds every individual HTTP request.
	RequestTimeout time.Duration

	// ChallengeWait is the sleep between polls, and the delay before
	// the first poll after NOTIFIED.
	ChallengeWait time.Duration

	// MaxPolls bounds the number of status checks per authorization.
	MaxPolls int

	// DirectoryURL / AuthorityBaseURL / TOSURL / IssuerChainURL
	// identify the ACME authority. DirectoryURL doubles as the nonce
	// endpoint.
	DirectoryURL     string
	AuthorityBaseURL string
	TOSURL           string
	IssuerChainURL   string

	// Sink receives structured events. A nil Sink discards events.
	Sink EventSink
}

// withDefaults returns a copy of o with zero-valued fields replaced by
// their documented defaults.
func (o Options) withDefaults() Options {
	if o.Bits == 0 {
		o.Bits = DefaultBits
	}
	if o.Digest == "" {
		o.Digest = DefaultDigest
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.ChallengeWait == 0 {
		o.ChallengeWait = DefaultChallengeWait
	}
	if o.MaxPolls == 0 {
		o.MaxPolls = DefaultMaxPolls
	}
	if o.Sink == nil {
		o.Sink = nopSink{}
	}
	return o
}

// validate rejects an Options/domain combination that cannot possibly
// succeed, before any network call is made.
func (o Options) validate(domain string) error {
	if domain == "" {
		return &ConfigError{Field: "domain", Reason: "must not be empty"}
	}
	suffixPlusOne, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(domain))
	if err != nil || suffixPlusOne == "" {
		return &ConfigError{Field: "domain", Reason: "not a registrable domain name"}
	}
	if o.Bits != 0 && o.Bits < 2048 {
		return &ConfigError{Field: "bits", Reason: "must be at least 2048"}
	}
	if o.DirectoryURL == "" {
		return &ConfigError{Field: "directory_url", Reason: "must not be empty"}
	}
	return nil
}
