package acmedns

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/certifi/gocertifi"
)

// ClientVersion is embedded in the User-Agent string sent with every
// request.
const ClientVersion = "0.1.0"

// response captures an HTTP response: status, headers, and the body,
// decoded as JSON on demand.
type response struct {
	Status  int
	Header  http.Header
	Body    []byte
}

// json decodes the response body into v.
func (r *response) json(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &ProtocolError{Reason: fmt.Sprintf("malformed JSON response: %v", err), Status: r.Status, Detail: string(r.Body)}
	}
	return nil
}

// transport is the HTTPS request executor used for every call to the
// ACME authority. It is not safe for concurrent use by multiple
// issuances sharing one nonce pool — callers needing parallel
// issuance construct separate Clients.
type transport struct {
	httpClient *http.Client
	userAgent  string

	mu    sync.Mutex
	nonce string
}

// newTransport builds a transport using the certifi CA bundle, which
// avoids depending on the host OS or base image for a CA bundle, and
// the given per-request timeout.
func newTransport(timeout time.Duration) (*transport, error) {
	certPool, err := gocertifi.CACerts()
	if err != nil {
		return nil, &ConfigError{Field: "tls_root_ca", Reason: err.Error()}
	}
	return &transport{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{RootCAs: certPool},
			},
		},
		userAgent: fmt.Sprintf("acmedns/%s (%s: %s)", ClientVersion, runtime.GOOS, runtime.GOARCH),
	}, nil
}

// captureNonce stores the Replay-Nonce header from any response that
// carries one.
func (t *transport) captureNonce(h http.Header) {
	if n := h.Get("Replay-Nonce"); n != "" {
		t.mu.Lock()
		t.nonce = n
		t.mu.Unlock()
	}
}

// takeNonce consumes the current nonce, returning "" if none is
// available. A nonce is single-use by contract.
func (t *transport) takeNonce() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.nonce
	t.nonce = ""
	return n
}

// fetchNonce issues a HEAD against url solely to harvest a fresh
// Replay-Nonce, retrying once on transport failure. That bounded
// retry is implemented with backoff.Retry/WithMaxRetries rather than
// a hand-rolled loop.
func (t *transport) fetchNonce(url string) (string, error) {
	op := func() error {
		resp, err := t.do("HEAD", url, nil)
		if err != nil {
			return err
		}
		if resp.Header.Get("Replay-Nonce") == "" {
			return backoff.Permanent(&ProtocolError{Reason: "nonce not found in response", Status: resp.Status})
		}
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(200*time.Millisecond), 1)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}
	return t.takeNonce(), nil
}

// get issues a GET request, capturing any nonce present on the
// response.
func (t *transport) get(url string) (*response, error) {
	return t.do("GET", url, nil)
}

// postJWS issues a POST with an already-built JWS body.
func (t *transport) postJWS(url string, jwsBody []byte) (*response, error) {
	return t.do("POST", url, jwsBody)
}

func (t *transport) do(method, url string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", t.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/jose+json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	t.captureNonce(resp.Header)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return &response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
