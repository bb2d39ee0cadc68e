package acmedns

import "crypto/rsa"

// AccountKey identifies the ACME client to the authority. It is
// created once per Client (or supplied by the caller) and is never
// used to sign a CSR. Keeping it a distinct, non-convertible type from
// CertificateKey rules out accidentally signing a CSR with the
// account key or vice versa.
type AccountKey struct {
	private *rsa.PrivateKey
	pem     []byte
}

// NewAccountKey generates a fresh RSA account key of the given bit
// size.
func NewAccountKey(bits int) (*AccountKey, error) {
	key, err := generateRSAKey(bits)
	if err != nil {
		return nil, err
	}
	return &AccountKey{private: key, pem: encodeRSAPrivateKeyPEM(key)}, nil
}

// ParseAccountKey reconstructs an AccountKey from a PEM-encoded RSA
// private key, as produced by a prior AccountKey.PEM() call, for the
// renewal path where a caller reuses a previously issued account key.
func ParseAccountKey(pemBytes []byte) (*AccountKey, error) {
	key, err := decodeRSAPrivateKeyPEM(pemBytes)
	if err != nil {
		return nil, err
	}
	return &AccountKey{private: key, pem: pemBytes}, nil
}

// PEM returns the PEM-encoded private key bytes.
func (k *AccountKey) PEM() []byte {
	return append([]byte(nil), k.pem...)
}

// thumbprint returns the JWK thumbprint of the account key's public
// component, the fixed half of every key authorization.
func (k *AccountKey) thumbprint() string {
	comp := publicKeyComponents(&k.private.PublicKey)
	return jwkThumbprint(comp.E, comp.N)
}
