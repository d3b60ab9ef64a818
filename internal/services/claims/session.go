package claims

import (
	"fmt"

	"wallet-gateway/pkg/errors"
)

// Session is the identity carried by a token after a successful token
// exchange with the gateway.
type Session struct {
	UserID      string
	AccessToken string
}

func (s Session) Claims() map[string]string {
	return map[string]string{
		KeyUserID:      s.UserID,
		KeyAccessToken: s.AccessToken,
	}
}

// SessionFromClaims requires both standard keys to be present and non-empty.
func SessionFromClaims(claims map[string]string) (Session, error) {
	s := Session{UserID: claims[KeyUserID], AccessToken: claims[KeyAccessToken]}
	if s.UserID == "" || s.AccessToken == "" {
		return Session{}, errors.NewTokenError(errors.TokenClaims, fmt.Errorf("token is missing session claims"))
	}
	return s, nil
}

// IssueSession is Issue for the standard session claims.
func (c *Codec) IssueSession(s Session) (string, error) {
	return c.Issue(s.Claims())
}

// OpenSession is Open followed by SessionFromClaims.
func (c *Codec) OpenSession(token string) (Session, error) {
	claims, err := c.Open(token)
	if err != nil {
		return Session{}, err
	}
	return SessionFromClaims(claims)
}
