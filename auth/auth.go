// Package auth provides request decorators that attach credentials to
// outgoing requests. They plug into disco.HTTPTransport:
//
//	transport := disco.NewHTTPTransport(nil, &auth.APIKey{Key: os.Getenv("API_KEY")})
//
// Every type in this package implements disco.Decorator.
package auth

import (
	"encoding/base64"
	"errors"
	"net/http"
)

// ErrNoCredentials is returned when a decorator has nothing to send.
var ErrNoCredentials = errors.New("auth: no credentials configured")

// APIKey sends an API key as a query parameter.
type APIKey struct {
	// Param defaults to "key".
	Param string
	Key   string
}

func (a *APIKey) Apply(req *http.Request) error {
	if a.Key == "" {
		return ErrNoCredentials
	}
	param := a.Param
	if param == "" {
		param = "key"
	}
	q := req.URL.Query()
	q.Set(param, a.Key)
	req.URL.RawQuery = q.Encode()
	return nil
}

// Header sends a credential in a header (e.g. X-Api-Key).
type Header struct {
	Name  string
	Value string
}

func (a *Header) Apply(req *http.Request) error {
	if a.Name == "" || a.Value == "" {
		return ErrNoCredentials
	}
	req.Header.Set(a.Name, a.Value)
	return nil
}

// Basic uses HTTP basic authentication.
type Basic struct {
	Username string
	Password string
}

func (a *Basic) Apply(req *http.Request) error {
	if a.Username == "" {
		return ErrNoCredentials
	}
	creds := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+creds)
	return nil
}

// Bearer sends a static OAuth2 access token.
type Bearer struct {
	Token string
}

func (a *Bearer) Apply(req *http.Request) error {
	if a.Token == "" {
		return ErrNoCredentials
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}
