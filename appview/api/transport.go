package api

import (
	"net/http"

	"github.com/sustc/cookbook/appview"
)

// CredentialTransport attaches the session's identifier and password to
// every outgoing request. Requests made without a session never carry
// either header.
type CredentialTransport struct {
	Base http.RoundTripper
}

func (t CredentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Del(appview.HeaderAuthId)
	req.Header.Del(appview.HeaderAuthPassword)

	if c, ok := credentialsFromContext(req.Context()); ok {
		if id, password, ok := c.Credentials(); ok {
			req.Header.Set(appview.HeaderAuthId, id)
			req.Header.Set(appview.HeaderAuthPassword, password)
		}
	}

	return t.base().RoundTrip(req)
}

func (t CredentialTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
