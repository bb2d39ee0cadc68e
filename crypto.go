package acmedns

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"math/big"
)

var (
	errNoPEMBlock = errors.New("no PEM block found")
	errNotRSAKey  = errors.New("PEM block does not contain an RSA key")
)

// b64url encodes b as URL-safe base64 with padding removed, as used
// throughout the ACME wire protocol (protected header, payload,
// signature, CSR, DNS TXT value).
func b64url(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// b64urlDecode reverses b64url. It decodes unpadded URL-safe base64
// only; input carrying '=' padding is rejected.
func b64urlDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// sha256sum returns the SHA-256 digest of b.
func sha256sum(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// generateRSAKey creates a fresh RSA private key of the given bit size.
// Keys below 2048 bits are rejected.
func generateRSAKey(bits int) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		return nil, &ConfigError{Field: "bits", Reason: "must be at least 2048"}
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, &CryptoError{Op: "generate_rsa_key", Err: err}
	}
	return key, nil
}

// encodeRSAPrivateKeyPEM PEM-encodes an RSA private key in PKCS#1 form,
// using the conventional "RSA PRIVATE KEY" block type.
func encodeRSAPrivateKeyPEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

// decodeRSAPrivateKeyPEM parses a PEM-encoded RSA private key,
// accepting both PKCS#1 ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY")
// block types for caller-supplied keys.
func decodeRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, &CryptoError{Op: "decode_rsa_key", Err: errNoPEMBlock}
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, &CryptoError{Op: "decode_rsa_key", Err: err}
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, &CryptoError{Op: "decode_rsa_key", Err: errNotRSAKey}
	}
	return rsaKey, nil
}

// jwkComponents is the big-endian unsigned byte representation of the
// public exponent and modulus of an RSA public key, as consumed by the
// JWK encoder. big.Int.Bytes() already strips any leading zero sign
// byte and returns the minimal big-endian encoding the JWK format
// requires.
type jwkComponents struct {
	E []byte
	N []byte
}

func publicKeyComponents(pub *rsa.PublicKey) jwkComponents {
	return jwkComponents{
		E: big.NewInt(int64(pub.E)).Bytes(),
		N: pub.N.Bytes(),
	}
}
