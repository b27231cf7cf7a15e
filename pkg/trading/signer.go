package trading

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer implements Binance signed-endpoint authentication: HMAC-SHA256 of
// the full query string, hex encoded.
type Signer struct {
	apiKey string
	secret []byte
}

// NewSigner creates a signer for the given key pair
func NewSigner(apiKey, secret string) *Signer {
	return &Signer{apiKey: apiKey, secret: []byte(secret)}
}

// APIKey returns the key sent in the X-MBX-APIKEY header
func (s *Signer) APIKey() string {
	return s.apiKey
}

// Sign returns the signature for an encoded query string
func (s *Signer) Sign(query string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
