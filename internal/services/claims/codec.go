package claims

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"wallet-gateway/pkg/errors"

	"github.com/go-jose/go-jose/v4"
)

// KeySize is the required symmetric key length for A256GCM.
const KeySize = 32

// Standard claim keys.
const (
	KeyUserID      = "user_id"
	KeyAccessToken = "access_token"
)

// Codec issues and opens session tokens: base64 of a JWE (dir, A256GCM) JSON
// serialization whose plaintext is a JSON object of strings. It guarantees
// confidentiality and integrity only; freshness is the caller's concern.
type Codec struct {
	key       []byte
	encrypter jose.Encrypter
}

// NewCodec requires a 32-byte key. There is no fallback key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.NewConfigError(nil, "claims token key is not configured")
	}
	if len(key) != KeySize {
		return nil, errors.NewConfigError(nil, fmt.Sprintf("claims token key must be %d bytes, got %d", KeySize, len(key)))
	}

	k := make([]byte, KeySize)
	copy(k, key)

	encrypter, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{Algorithm: jose.DIRECT, Key: k}, nil)
	if err != nil {
		return nil, errors.NewConfigError(err, "claims token encrypter")
	}

	return &Codec{key: k, encrypter: encrypter}, nil
}

// Issue encrypts claims into a token. Each call uses a fresh nonce, so the
// same claims never produce the same token twice.
func (c *Codec) Issue(claims map[string]string) (string, error) {
	if claims == nil {
		claims = map[string]string{}
	}
	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", errors.WrapDomainError(err, errors.KindInternal, errors.CodeInternal, "claims serialization failed", "")
	}

	object, err := c.encrypter.Encrypt(plaintext)
	if err != nil {
		return "", errors.WrapDomainError(err, errors.KindInternal, errors.CodeInternal, "claims encryption failed", "")
	}

	return base64.StdEncoding.EncodeToString([]byte(object.FullSerialize())), nil
}

// Open reverses Issue. Errors carry TokenMalformed, TokenDecrypt or
// TokenClaims; see errors.TokenKindOf.
func (c *Codec) Open(token string) (map[string]string, error) {
	serialized, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.NewTokenError(errors.TokenMalformed, err)
	}

	object, err := jose.ParseEncrypted(string(serialized),
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM},
	)
	if err != nil {
		return nil, errors.NewTokenError(errors.TokenMalformed, err)
	}

	plaintext, err := object.Decrypt(c.key)
	if err != nil {
		return nil, errors.NewTokenError(errors.TokenDecrypt, err)
	}

	var claims map[string]string
	if err := json.Unmarshal(plaintext, &claims); err != nil {
		return nil, errors.NewTokenError(errors.TokenClaims, err)
	}
	if claims == nil {
		return nil, errors.NewTokenError(errors.TokenClaims, fmt.Errorf("claims payload is null"))
	}

	return claims, nil
}
