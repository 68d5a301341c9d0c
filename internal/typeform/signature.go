package typeform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// SignatureHeader is the header Typeform signs deliveries with.
const SignatureHeader = "Typeform-Signature"

var (
	ErrMissingSignature = errors.New("typeform: missing signature")
	ErrBadSignature     = errors.New("typeform: signature mismatch")
)

// Sign returns the header value Typeform would send for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against body. The comparison is constant time.
func VerifySignature(secret, body []byte, header string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(header, "sha256=") {
		return ErrBadSignature
	}
	if !hmac.Equal([]byte(header), []byte(Sign(secret, body))) {
		return ErrBadSignature
	}
	return nil
}
