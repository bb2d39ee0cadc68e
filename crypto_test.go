package acmedns

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
)

// Base64url round-trip: the output contains no '=', '+', or '/'.
func TestB64urlRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0},
		{0, 1, 2, 3, 4, 5},
		bytes.Repeat([]byte{0xff}, 37),
	}
	for _, b := range randomCases(t, 20) {
		cases = append(cases, b)
	}

	for _, b := range cases {
		encoded := b64url(b)
		if strings.ContainsAny(encoded, "=+/") {
			t.Fatalf("b64url(%x) = %q contains forbidden character", b, encoded)
		}
		decoded, err := b64urlDecode(encoded)
		if err != nil {
			t.Fatalf("b64urlDecode(%q): %v", encoded, err)
		}
		if !bytes.Equal(decoded, b) {
			t.Fatalf("round trip mismatch: got %x want %x", decoded, b)
		}
	}
}

func randomCases(t *testing.T, n int) [][]byte {
	t.Helper()
	var out [][]byte
	for i := 1; i <= n; i++ {
		b := make([]byte, i)
		if _, err := rand.Read(b); err != nil {
			t.Fatalf("rand.Read: %v", err)
		}
		out = append(out, b)
	}
	return out
}

// The canonical JWK JSON is exactly
// `{"e":"<e>","kty":"RSA","n":"<n>"}` with sorted keys and no
// whitespace, and its thumbprint is deterministic for a fixed key.
func TestJWKThumbprintStability(t *testing.T) {
	key, err := generateRSAKey(2048)
	if err != nil {
		t.Fatalf("generateRSAKey: %v", err)
	}
	comp := publicKeyComponents(&key.PublicKey)

	canonical := canonicalJWK(comp.E, comp.N)
	wantPrefix := `{"e":"`
	if !strings.HasPrefix(canonical, wantPrefix) {
		t.Fatalf("canonical JWK does not start with %q: %s", wantPrefix, canonical)
	}
	if strings.ContainsAny(canonical, " \t\n") {
		t.Fatalf("canonical JWK contains whitespace: %s", canonical)
	}
	if !strings.Contains(canonical, `,"kty":"RSA","n":"`) {
		t.Fatalf("canonical JWK key order is wrong: %s", canonical)
	}

	tp1 := jwkThumbprint(comp.E, comp.N)
	tp2 := jwkThumbprint(comp.E, comp.N)
	if tp1 != tp2 {
		t.Fatalf("thumbprint not deterministic: %s vs %s", tp1, tp2)
	}
	if strings.ContainsAny(tp1, "=+/") {
		t.Fatalf("thumbprint %q is not base64url-safe", tp1)
	}
}

// Key authorization equals token + "." +
// thumbprint, and the DNS TXT value equals
// b64url_nopad(sha256(keyAuthorization)).
func TestKeyAuthorizationAndDNSValue(t *testing.T) {
	key, err := NewAccountKey(2048)
	if err != nil {
		t.Fatalf("NewAccountKey: %v", err)
	}
	token := "abc123token"
	thumbprint := key.thumbprint()

	keyAuth := token + "." + thumbprint
	gotValue := dnsChallengeValue(keyAuth)

	digest := sha256sum([]byte(keyAuth))
	wantValue := b64url(digest[:])
	if gotValue != wantValue {
		t.Fatalf("dnsChallengeValue = %q, want %q", gotValue, wantValue)
	}
	if gotValue == keyAuth {
		t.Fatal("DNS TXT value must not equal the key authorization itself")
	}
}

// Round-tripping an AccountKey through PEM must reproduce the same
// key material (and therefore the same thumbprint).
func TestAccountKeyPEMRoundTrip(t *testing.T) {
	key, err := NewAccountKey(2048)
	if err != nil {
		t.Fatalf("NewAccountKey: %v", err)
	}
	parsed, err := ParseAccountKey(key.PEM())
	if err != nil {
		t.Fatalf("ParseAccountKey: %v", err)
	}
	if parsed.thumbprint() != key.thumbprint() {
		t.Fatal("thumbprint changed across PEM round trip")
	}
}

func TestGenerateRSAKeyRejectsSmallBits(t *testing.T) {
	if _, err := generateRSAKey(1024); err == nil {
		t.Fatal("expected error generating a sub-2048-bit key")
	}
}

func TestB64urlMatchesRawURLEncoding(t *testing.T) {
	// sanity check that our base64url helper and the standard library's
	// raw URL encoding agree, since jwk components must use the exact
	// same encoding.
	b := []byte("hello world")
	if b64url(b) != base64.RawURLEncoding.EncodeToString(b) {
		t.Fatal("b64url diverges from base64.RawURLEncoding")
	}
}
