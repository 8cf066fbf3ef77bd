package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSecret = "whsec-test"

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"serialize":"abc","status":2,"modelUrl":"https://x/cat.zip"}`)
	sig := SignWebhookBodyHex(body, testSecret)

	assert.True(t, VerifyWebhookSignature(body, sig, testSecret))
	assert.True(t, VerifyWebhookSignature(body, strings.ToUpper(sig), testSecret), "hex is case-insensitive")
	assert.True(t, VerifyWebhookSignature(body, " "+sig+" ", testSecret))

	assert.False(t, VerifyWebhookSignature(body, sig, "other-secret"))
	assert.False(t, VerifyWebhookSignature(body, "", testSecret))
	assert.False(t, VerifyWebhookSignature(body, "not-hex", testSecret))
	assert.False(t, VerifyWebhookSignature(body, sig, ""))
	assert.False(t, VerifyWebhookSignature(body, sig[:len(sig)-2], testSecret))
}

func TestVerifyWebhookSignature_AnyTamperedByte(t *testing.T) {
	body := []byte(`{"serialize":"abc","status":1}`)
	sig := SignWebhookBodyHex(body, testSecret)

	for i := range body {
		tampered := append([]byte(nil), body...)
		tampered[i] ^= 0x01
		assert.False(t, VerifyWebhookSignature(tampered, sig, testSecret), "byte %d", i)
	}
}
