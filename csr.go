package acmedns

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
)

// CertificateKey is the keypair generated fresh for a single issuance
// and bound into the CSR. It is never reused as an AccountKey.
type CertificateKey struct {
	private *rsa.PrivateKey
	pem     []byte
}

// NewCertificateKey generates a fresh RSA certificate key.
func NewCertificateKey(bits int) (*CertificateKey, error) {
	key, err := generateRSAKey(bits)
	if err != nil {
		return nil, err
	}
	return &CertificateKey{private: key, pem: encodeRSAPrivateKeyPEM(key)}, nil
}

// PEM returns the PEM-encoded private key bytes.
func (k *CertificateKey) PEM() []byte {
	return append([]byte(nil), k.pem...)
}

// buildCSR assembles a DER-encoded PKCS#10 request with CN=domain and
// a non-critical SAN extension containing DNS:domain, signed by key
// with SHA-256. crypto/x509's CreateCertificateRequest emits the SAN
// extension automatically from DNSNames, always marked non-critical,
// so no manual pkix extension encoding is needed.
func buildCSR(domain string, key *CertificateKey) ([]byte, error) {
	template := &x509.CertificateRequest{
		Subject:            pkix.Name{CommonName: domain},
		DNSNames:           []string{domain},
		SignatureAlgorithm: x509.SHA256WithRSA,
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, template, key.private)
	if err != nil {
		return nil, &CryptoError{Op: "build_csr", Err: err}
	}
	return der, nil
}
