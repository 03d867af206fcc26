package auth

import "net/http"

// Credentials are sent with every request to the WordPress site.
type Credentials struct {
	Nonce       string // sent as X-WP-Nonce
	Username    string // application password user
	AppPassword string
}

// Apply sets the nonce header and basic auth on req for the credentials
// that are configured.
func (c Credentials) Apply(req *http.Request) {
	if c.Nonce != "" {
		req.Header.Set("X-WP-Nonce", c.Nonce)
	}
	if c.Username != "" && c.AppPassword != "" {
		req.SetBasicAuth(c.Username, c.AppPassword)
	}
}
