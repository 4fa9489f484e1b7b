package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	apperrors "github.com/sarahcave/coachos/internal/errors"
)

// SignatureHeader carries the sender's HMAC signature of the payload.
const SignatureHeader = "X-Airtable-Webhook-Signature"

// Authenticator verifies webhook payload signatures. The signature is an
// HMAC-SHA256 hex digest over the canonical JSON form of the payload
// (keys sorted, no whitespace), keyed by the shared secret.
type Authenticator struct {
	secret string
}

// NewAuthenticator creates an authenticator. An empty secret disables
// verification entirely (development mode).
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// Verify checks the signature against the request body. With no secret
// configured every request passes; with a secret, a missing or mismatched
// signature fails closed.
func (a *Authenticator) Verify(body []byte, signature string) error {
	if a.secret == "" {
		return nil
	}

	if signature == "" {
		return apperrors.NewAuthenticationError("missing signature header")
	}

	canonical, err := canonicalJSON(body)
	if err != nil {
		return apperrors.NewMalformedPayloadError("payload is not valid JSON: " + err.Error())
	}

	mac := hmac.New(sha256.New, []byte(a.secret))
	mac.Write(canonical)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return apperrors.NewAuthenticationError("signature mismatch")
	}

	return nil
}

// canonicalJSON re-serializes the body with sorted keys and no extra
// whitespace, so the digest is stable across senders' key ordering.
// encoding/json sorts map keys on marshal, which gives the canonical form
// for free once the body round-trips through a map.
func canonicalJSON(body []byte) ([]byte, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, err
	}

	return json.Marshal(decoded)
}
