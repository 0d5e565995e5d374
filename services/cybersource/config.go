// Package cybersource implements the signed hosted-checkout handshake with a
// CyberSource Secure Acceptance style processor: building the signed purchase
// form and verifying the postpay callback.
package cybersource

import (
	"errors"
	"strings"
)

// Config holds the processor credentials. It is injected at construction and
// never read from globals.
type Config struct {
	SecretKey        string
	AccessKey        string
	ProfileID        string
	PurchaseEndpoint string
	// Currency is the ISO code the platform charges in, compared
	// case-insensitively with the callback's req_currency.
	Currency string
	Locale   string
}

// ErrMissingCredentials is returned by Validate when a key is not configured.
var ErrMissingCredentials = errors.New("cybersource: processor credentials are not configured")

// Validate checks that the signing credentials are present.
func (c Config) Validate() error {
	if c.SecretKey == "" || c.AccessKey == "" || c.ProfileID == "" || c.PurchaseEndpoint == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (c Config) locale() string {
	if c.Locale == "" {
		return "en"
	}
	return c.Locale
}

func (c Config) currency() string {
	return strings.ToLower(c.Currency)
}
