package acmedns

import (
	"encoding/base64"
	"strings"
)

// Client is the ACME DNS-01 issuance orchestrator. It composes the
// crypto primitives, JOSE envelope builder, transport, and challenge
// state machine, driving an injected DNSProvider to prove control of
// Domain.
//
// A Client is sequential: all of Issue/Renew runs as a single
// blocking call. Multiple Clients may run concurrently provided each
// owns its own AccountKey/nonce state — a Client's internal transport
// is not safe for concurrent issuance.
type Client struct {
	domain   string
	provider DNSProvider
	opts     Options

	transport *transport
	account   *AccountKey
	registered bool

	issuerChain []byte
	certKey     *CertificateKey
}

// New constructs a Client for domain, driving provider to publish and
// retract the DNS-01 challenge record. If opts.AccountKey is nil, a
// fresh account key is generated and the account is treated as
// not-yet-registered; otherwise the supplied key is reused and
// treated as already registered (the Renew path).
func New(domain string, provider DNSProvider, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if err := opts.validate(domain); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, &ConfigError{Field: "provider", Reason: "must not be nil"}
	}

	t, err := newTransport(opts.RequestTimeout)
	if err != nil {
		return nil, err
	}

	c := &Client{
		domain:    strings.ToLower(domain),
		provider:  provider,
		opts:      opts,
		transport: t,
	}

	if opts.AccountKey != nil {
		c.account = opts.AccountKey
		c.registered = true
	} else {
		key, err := NewAccountKey(opts.Bits)
		if err != nil {
			return nil, err
		}
		c.account = key
		c.registered = false
	}

	if opts.IssuerChainURL != "" {
		chain, err := c.fetchIssuerChain()
		if err != nil {
			return nil, err
		}
		c.issuerChain = chain
	}

	return c, nil
}

// AccountKey returns the PEM-encoded account private key, for a caller
// to persist across a later Renew call.
func (c *Client) AccountKey() []byte {
	return c.account.PEM()
}

// CertificateKey returns the PEM-encoded private key generated for the
// most recently finalized certificate, or nil if no issuance has
// completed yet.
func (c *Client) CertificateKey() []byte {
	if c.certKey == nil {
		return nil
	}
	return c.certKey.PEM()
}

func (c *Client) fetchIssuerChain() ([]byte, error) {
	c.opts.Sink.Emit("chain.fetch", map[string]interface{}{"url": c.opts.IssuerChainURL})
	resp, err := c.transport.get(c.opts.IssuerChainURL)
	if err != nil {
		return nil, err
	}
	if resp.Status != 200 {
		return nil, &ProtocolError{Reason: "fetching issuer chain failed", Status: resp.Status}
	}
	return resp.Body, nil
}

// endpoint joins the authority base URL with a well-known ACME v1
// resource path.
func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.opts.AuthorityBaseURL, "/") + path
}

// postSigned acquires a nonce (reusing one captured from the previous
// response if available, else fetching a fresh one) and POSTs a
// flattened JWS built from payload.
func (c *Client) postSigned(url string, payload interface{}) (*response, error) {
	nonce := c.transport.takeNonce()
	if nonce == "" {
		n, err := c.transport.fetchNonce(c.opts.DirectoryURL)
		if err != nil {
			return nil, err
		}
		nonce = n
	}
	body, err := buildJWS(c.account, nonce, payload)
	if err != nil {
		return nil, err
	}
	return c.transport.postJWS(url, body)
}

// register performs new-reg if the account is not already registered.
// A 409 ("already-registered") is treated as success.
func (c *Client) register() error {
	if c.registered {
		return nil
	}
	c.opts.Sink.Emit("account.register", map[string]interface{}{"domain": c.domain})

	payload := map[string]interface{}{
		"resource":  "new-reg",
		"agreement": c.opts.TOSURL,
	}
	if c.opts.RegistrationRecoveryEmail != "" {
		payload["contact"] = []string{"mailto:" + c.opts.RegistrationRecoveryEmail}
	}

	resp, err := c.postSigned(c.endpoint("/acme/new-reg"), payload)
	if err != nil {
		return err
	}
	if resp.Status != 201 && resp.Status != 409 {
		return &ProtocolError{Reason: "registration failed", Status: resp.Status, Detail: string(resp.Body)}
	}
	c.registered = true
	c.opts.Sink.Emit("account.registered", map[string]interface{}{"status": resp.Status})
	return nil
}

// requestAuthorization performs new-authz for c.domain and selects the
// dns-01 challenge.
func (c *Client) requestAuthorization() (*authorization, error) {
	c.opts.Sink.Emit("authz.request", map[string]interface{}{"domain": c.domain})

	payload := map[string]interface{}{
		"resource": "new-authz",
		"identifier": map[string]string{
			"type":  "dns",
			"value": c.domain,
		},
	}
	resp, err := c.postSigned(c.endpoint("/acme/new-authz"), payload)
	if err != nil {
		return nil, err
	}
	if resp.Status != 201 {
		return nil, &ProtocolError{Reason: "new-authz failed", Status: resp.Status, Detail: string(resp.Body)}
	}

	var body struct {
		Challenges []acmeChallengeJSON `json:"challenges"`
	}
	if err := resp.json(&body); err != nil {
		return nil, err
	}
	az, err := selectDNSChallenge(c.domain, body.Challenges)
	if err != nil {
		return nil, err
	}
	az.URI = resp.Header.Get("Location")
	return az, nil
}

// notify POSTs the key authorization to the challenge URL
// (PROVISIONED → NOTIFIED).
func (c *Client) notify(challengeURL, keyAuthorization string) error {
	c.opts.Sink.Emit("challenge.notify", map[string]interface{}{"url": challengeURL})
	payload := map[string]interface{}{
		"resource":         "challenge",
		"keyAuthorization": keyAuthorization,
	}
	resp, err := c.postSigned(challengeURL, payload)
	if err != nil {
		return err
	}
	if resp.Status != 200 && resp.Status != 202 {
		return &ProtocolError{Reason: "challenge notify failed", Status: resp.Status, Detail: string(resp.Body)}
	}
	return nil
}

// finalize submits the CSR and assembles the PEM certificate bundle.
func (c *Client) finalize() (*PemBundle, error) {
	certKey, err := NewCertificateKey(c.opts.Bits)
	if err != nil {
		return nil, err
	}
	der, err := buildCSR(c.domain, certKey)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"resource": "new-cert",
		"csr":      b64url(der),
	}
	resp, err := c.postSigned(c.endpoint("/acme/new-cert"), payload)
	if err != nil {
		return nil, err
	}
	if resp.Status != 201 {
		return nil, &ProtocolError{Reason: "new-cert failed", Status: resp.Status, Detail: string(resp.Body)}
	}

	leaf := pemEncodeCertificate(resp.Body)
	bundle := append(append([]byte(nil), leaf...), c.issuerChain...)

	c.certKey = certKey
	return &PemBundle{
		Bytes:          bundle,
		CertificateKey: certKey,
	}, nil
}

// pemEncodeCertificate wraps DER certificate bytes in a PEM block with
// body lines of at most 64 columns.
func pemEncodeCertificate(der []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(der)
	var b strings.Builder
	b.WriteString("-----BEGIN CERTIFICATE-----\n")
	for i := 0; i < len(encoded); i += 64 {
		end := i + 64
		if end > len(encoded) {
			end = len(encoded)
		}
		b.WriteString(encoded[i:end])
		b.WriteByte('\n')
	}
	b.WriteString("-----END CERTIFICATE-----\n")
	return []byte(b.String())
}

// PemBundle is the result of a successful issuance: the PEM leaf
// certificate concatenated with the issuer chain, and the fresh
// certificate key it was issued for.
type PemBundle struct {
	Bytes          []byte
	CertificateKey *CertificateKey
}

// issue runs the full end-to-end procedure backing both Issue and
// Renew.
func (c *Client) issue() (*PemBundle, error) {
	if err := c.register(); err != nil {
		return nil, err
	}

	az, err := c.requestAuthorization()
	if err != nil {
		return nil, err
	}

	keyAuthorization := az.Token + "." + c.account.thumbprint()
	dnsValue := dnsChallengeValue(keyAuthorization)
	recordName := dnsChallengeRecordName(c.domain)

	c.opts.Sink.Emit("dns.create", map[string]interface{}{"domain": c.domain, "record": recordName, "value": dnsValue})
	if err := c.provider.CreateAuthRecord(c.domain, dnsValue); err != nil {
		// Fatal before notify; no cleanup has anything to retract yet.
		return nil, &ProviderError{Op: "create", Domain: c.domain, Err: err}
	}

	runner := newChallengeRunner(c.transport, c.opts.Sink, c.opts.ChallengeWait, c.opts.MaxPolls)

	// cleanup retracts the DNS record and returns the delete error, if
	// any, so a caller with a primary error to report can attach it as
	// secondary context instead of dropping it silently.
	cleanup := func() error {
		c.opts.Sink.Emit("dns.delete", map[string]interface{}{"domain": c.domain, "record": recordName, "value": dnsValue})
		if err := c.provider.DeleteAuthRecord(c.domain, dnsValue); err != nil {
			c.opts.Sink.Emit("dns.delete.failed", map[string]interface{}{"domain": c.domain, "error": err.Error()})
			return err
		}
		return nil
	}

	if err := c.notify(az.ChallengeURL, keyAuthorization); err != nil {
		if cleanupErr := cleanup(); cleanupErr != nil {
			return nil, &cleanupError{Primary: err, Cleanup: cleanupErr}
		}
		return nil, err
	}

	outcome, polls, pollErr := runner.poll(az.ChallengeURL)
	switch outcome {
	case outcomeValid:
		c.opts.Sink.Emit("challenge.valid", map[string]interface{}{"domain": c.domain, "polls": polls})
		bundle, err := c.finalize()
		cleanupErr := cleanup()
		if err != nil {
			if cleanupErr != nil {
				return nil, &cleanupError{Primary: err, Cleanup: cleanupErr}
			}
			return nil, err
		}
		// A delete failure here is logged but never overrides a
		// successful issuance.
		return bundle, nil
	case outcomeInvalid:
		cleanupErr := cleanup()
		primary := &ChallengeFailed{Domain: c.domain, State: StatePolling.String()}
		if cleanupErr != nil {
			return nil, &cleanupError{Primary: primary, Cleanup: cleanupErr}
		}
		return nil, primary
	default: // outcomeTimedOut
		cleanupErr := cleanup()
		if pollErr != nil {
			c.opts.Sink.Emit("challenge.timeout.last_error", map[string]interface{}{"domain": c.domain, "error": pollErr.Error()})
		}
		primary := &PollTimeout{Domain: c.domain, Polls: polls, MaxPoll: c.opts.MaxPolls}
		if cleanupErr != nil {
			return nil, &cleanupError{Primary: primary, Cleanup: cleanupErr}
		}
		return nil, primary
	}
}

// Issue runs the full issuance procedure for a new certificate.
func (c *Client) Issue() (*PemBundle, error) {
	return c.issue()
}

// Renew is structurally identical to Issue, reusing the Client's
// account key; the authority treats a request over the same name set
// as a renewal.
func (c *Client) Renew() (*PemBundle, error) {
	return c.issue()
}
