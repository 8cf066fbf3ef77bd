package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// WebhookSignatureHeader carries the hex HMAC-SHA256 of the raw webhook body
const WebhookSignatureHeader = "X-Signature"

// VerifyWebhookSignature reports whether signature is the hex-encoded
// HMAC-SHA256 of rawBody under secret. The body must be the exact bytes
// received; re-encoded JSON will not verify.
func VerifyWebhookSignature(rawBody []byte, signature, secret string) bool {
	if secret == "" {
		return false
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(got, SignWebhookBody(rawBody, secret))
}

// SignWebhookBody returns the raw HMAC-SHA256 digest of body under secret
func SignWebhookBody(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignWebhookBodyHex returns the header value the vendor sends for body
func SignWebhookBodyHex(body []byte, secret string) string {
	return hex.EncodeToString(SignWebhookBody(body, secret))
}
