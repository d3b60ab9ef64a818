package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"wallet-gateway/pkg/errors"
)

// RequestTimeLayout renders the Request-Time header. The gateway requires a
// literal "+00:00" offset; the "Z" suffix is rejected.
const RequestTimeLayout = "2006-01-02T15:04:05+00:00"

// HeaderFormat is the Signature header value layout.
const HeaderFormat = "algorithm=RSA256, keyVersion=1, signature=%s"

// FormatRequestTime returns t in UTC using RequestTimeLayout.
func FormatRequestTime(t time.Time) string {
	return t.UTC().Format(RequestTimeLayout)
}

// SignContent builds the canonical string covered by the signature:
//
//	"{method} {path}\n{clientId}.{requestTime}.{body}"
func SignContent(method, path, clientID, requestTime string, body []byte) []byte {
	return []byte(fmt.Sprintf("%s %s\n%s.%s.%s", method, path, clientID, requestTime, body))
}

// Sign produces the base64 RSA-SHA256 (PKCS#1 v1.5) signature of the
// canonical string. PKCS#1 v1.5 is deterministic, so identical inputs always
// yield identical signatures.
func Sign(method, path, clientID, requestTime string, body []byte, key *rsa.PrivateKey) (string, error) {
	if key == nil {
		return "", errors.NewConfigError(nil, "signing key not loaded")
	}

	hash := sha256.Sum256(SignContent(method, path, clientID, requestTime, body))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hash[:])
	if err != nil {
		return "", errors.NewConfigError(err, "rsa signing failed")
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

// Verify checks a signature produced by Sign against the matching public key.
func Verify(method, path, clientID, requestTime string, body []byte, signature string, key *rsa.PublicKey) error {
	if key == nil {
		return fmt.Errorf("verification key not loaded")
	}

	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}

	hash := sha256.Sum256(SignContent(method, path, clientID, requestTime, body))
	return rsa.VerifyPKCS1v15(key, crypto.SHA256, hash[:], raw)
}

// Signer signs gateway requests on behalf of one merchant identity.
type Signer interface {
	ClientID() string
	SignRequest(method, path, requestTime string, body []byte) (string, error)
}

// RSASigner binds the merchant client id and private key to Sign.
type RSASigner struct {
	clientID string
	key      *rsa.PrivateKey
}

// NewRSASigner creates a signer; both arguments are required.
func NewRSASigner(clientID string, key *rsa.PrivateKey) (*RSASigner, error) {
	if clientID == "" {
		return nil, errors.NewConfigError(nil, "client id is required")
	}
	if key == nil {
		return nil, errors.NewConfigError(nil, "private key is required")
	}
	return &RSASigner{clientID: clientID, key: key}, nil
}

func (s *RSASigner) ClientID() string {
	return s.clientID
}

func (s *RSASigner) SignRequest(method, path, requestTime string, body []byte) (string, error) {
	return Sign(method, path, s.clientID, requestTime, body, s.key)
}
