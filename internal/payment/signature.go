package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrSignatureMismatch means the callback's signature was not produced with
// our secret. Fatal for the transaction: the payment is not recorded.
var ErrSignatureMismatch = errors.New("payment signature mismatch")

// Verifier checks gateway callback signatures. The gateway signs
// "<orderID>|<paymentID>" with HMAC-SHA256 over the shared key secret and
// sends the hex digest; the construction must match exactly for
// compatibility.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
