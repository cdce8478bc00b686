package auth

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultJWTLifetime = time.Hour

// Claims are the claims of a self-signed service account token.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// JWT signs a short-lived bearer token with a service account key and sends it
// with every request. Tokens are cached until a minute before they expire.
//
//	key, _ := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
//	signer := &auth.JWT{
//	    Issuer:   "robot@example.iam.gserviceaccount.com",
//	    Audience: "https://www.googleapis.com/",
//	    Key:      key,
//	}
type JWT struct {
	Issuer   string
	Subject  string
	Audience string
	Scopes   []string
	KeyID    string
	// Key is an *rsa.PrivateKey, *ecdsa.PrivateKey or []byte (HMAC).
	Key any
	// Method defaults to RS256 for RSA keys, ES256 for ECDSA keys and HS256 for []byte.
	Method jwt.SigningMethod
	// Lifetime defaults to one hour.
	Lifetime time.Duration

	// Now is used instead of time.Now when set.
	Now func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func (j *JWT) Apply(req *http.Request) error {
	token, err := j.Token()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Token returns a valid signed token, signing a new one if needed.
func (j *JWT) Token() (string, error) {
	now := time.Now()
	if j.Now != nil {
		now = j.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.token != "" && now.Add(time.Minute).Before(j.expires) {
		return j.token, nil
	}

	if j.Key == nil || j.Issuer == "" {
		return "", ErrNoCredentials
	}
	method, err := j.signingMethod()
	if err != nil {
		return "", err
	}
	lifetime := j.Lifetime
	if lifetime <= 0 {
		lifetime = defaultJWTLifetime
	}
	expires := now.Add(lifetime)

	claims := Claims{
		Scope: strings.Join(j.Scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   j.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	if j.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.Audience}
	}
	tok := jwt.NewWithClaims(method, claims)
	if j.KeyID != "" {
		tok.Header["kid"] = j.KeyID
	}
	signed, err := tok.SignedString(j.Key)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	j.token, j.expires = signed, expires
	return signed, nil
}

func (j *JWT) signingMethod() (jwt.SigningMethod, error) {
	if j.Method != nil {
		return j.Method, nil
	}
	switch j.Key.(type) {
	case []byte:
		return jwt.SigningMethodHS256, nil
	case *rsa.PrivateKey:
		return jwt.SigningMethodRS256, nil
	case *ecdsa.PrivateKey:
		return jwt.SigningMethodES256, nil
	}
	return nil, fmt.Errorf("auth: unsupported key type %T", j.Key)
}
