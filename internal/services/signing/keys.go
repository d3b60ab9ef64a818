package signing

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"wallet-gateway/pkg/errors"
)

// LoadPrivateKey reads a PEM encoded RSA private key in PKCS#1 or PKCS#8 form.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(err, "failed to read private key file")
	}
	return ParsePrivateKey(keyData)
}

// ParsePrivateKey decodes PEM bytes into an RSA private key.
func ParsePrivateKey(keyData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, errors.NewConfigError(nil, "no PEM block found in private key")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.NewConfigError(err, "private key is neither PKCS#1 nor PKCS#8")
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.NewConfigError(nil, fmt.Sprintf("private key is %T, not RSA", parsed))
	}
	return key, nil
}

// LoadPublicKey reads a PEM encoded PKIX RSA public key.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(err, "failed to read public key file")
	}
	return ParsePublicKey(keyData)
}

// ParsePublicKey decodes PEM bytes into an RSA public key.
func ParsePublicKey(keyData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, errors.NewConfigError(nil, "no PEM block found in public key")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.NewConfigError(err, "invalid PKIX public key")
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.NewConfigError(nil, fmt.Sprintf("public key is %T, not RSA", parsed))
	}
	return key, nil
}
