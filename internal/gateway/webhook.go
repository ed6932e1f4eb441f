package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// VerifyWebhookSignature checks the x-paystack-signature header: the hex
// HMAC-SHA512 of the raw body keyed with the secret key.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(SignWebhook(secret, body)), []byte(signature))
}

// SignWebhook returns the signature the gateway would send for body.
func SignWebhook(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
