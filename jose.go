package acmedns

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
)

// signRS256 computes an RSASSA-PKCS1-v1_5 signature over message using
// SHA-256, as required by every JWS produced by this client.
func signRS256(key *rsa.PrivateKey, message []byte) ([]byte, error) {
	digest := sha256sum(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, &CryptoError{Op: "sign_rs256", Err: err}
	}
	return sig, nil
}

// verifyRS256 checks an RSASSA-PKCS1-v1_5/SHA-256 signature against a
// pre-computed digest. It exists primarily so tests can assert that
// buildJWS produces a signature that verifies against the embedded
// public key.
func verifyRS256(pub *rsa.PublicKey, digest, sig []byte) error {
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest, sig)
}

// canonicalJWK returns the exact byte string
// `{"e":"<e>","kty":"RSA","n":"<n>"}`, keys lexically sorted with no
// whitespace — the thumbprint is only stable if this string is
// reproduced byte-for-byte. Built with
// fmt.Sprintf rather than encoding/json because json.Marshal of a
// map does sort keys but does not guarantee the compact, no-space
// formatting this invariant pins down without additional flags.
func canonicalJWK(e, n []byte) string {
	return fmt.Sprintf(`{"e":"%s","kty":"RSA","n":"%s"}`, b64url(e), b64url(n))
}

// jwkThumbprint computes the JWK thumbprint per RFC 7638: the base64url
// (no padding) SHA-256 digest of the canonical JWK JSON.
func jwkThumbprint(e, n []byte) string {
	digest := sha256sum([]byte(canonicalJWK(e, n)))
	return b64url(digest[:])
}

// protectedHeaderV1 is the ACME v1 ("legacy") flattened-JWS protected
// header: jwk is always present, resource lives in the payload, and
// there is no url/kid field.
type protectedHeaderV1 struct {
	Alg   string        `json:"alg"`
	JWK   jwkJSON       `json:"jwk"`
	Nonce string        `json:"nonce"`
}

type jwkJSON struct {
	E   string `json:"e"`
	Kty string `json:"kty"`
	N   string `json:"n"`
}

// flattenedJWS is the three-field flattened JWS object sent as the
// body of every signed ACME request.
type flattenedJWS struct {
	Protected string `json:"protected"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// buildJWS wraps payload in a flattened JWS signed by key, consuming
// exactly one nonce. It returns an error if nonce is empty — the
// builder never silently proceeds without a fresh anti-replay token.
func buildJWS(key *AccountKey, nonce string, payload interface{}) ([]byte, error) {
	if nonce == "" {
		return nil, &ProtocolError{Reason: "no nonce available to sign request"}
	}

	comp := publicKeyComponents(&key.private.PublicKey)
	header := protectedHeaderV1{
		Alg: "RS256",
		JWK: jwkJSON{
			E:   b64url(comp.E),
			Kty: "RSA",
			N:   b64url(comp.N),
		},
		Nonce: nonce,
	}
	protectedJSON, err := json.Marshal(header)
	if err != nil {
		return nil, &CryptoError{Op: "marshal_protected_header", Err: err}
	}
	protected64 := b64url(protectedJSON)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, &CryptoError{Op: "marshal_payload", Err: err}
	}
	payload64 := b64url(payloadJSON)

	signingInput := protected64 + "." + payload64
	sig, err := signRS256(key.private, []byte(signingInput))
	if err != nil {
		return nil, err
	}

	jws := flattenedJWS{
		Protected: protected64,
		Payload:   payload64,
		Signature: b64url(sig),
	}
	out, err := json.Marshal(jws)
	if err != nil {
		return nil, &CryptoError{Op: "marshal_jws", Err: err}
	}
	return out, nil
}
