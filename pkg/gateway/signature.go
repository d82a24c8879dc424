package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign ham gövde üzerinden HMAC-SHA256 imzası üretir (hex).
func Sign(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature webhook imzasını sabit zamanlı karşılaştırmayla doğrular.
// İmza ham gövde üzerinden hesaplanır; gövde parse edilmeden ÖNCE çağrılmalıdır.
func VerifySignature(rawBody []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := Sign(rawBody, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
