package gateway

import "testing"

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"reference":"ref-1","status":"approved","amount":30000}`)
	secret := "whsec-test"

	t.Run("geçerli imza doğrulanır", func(t *testing.T) {
		if !VerifySignature(body, Sign(body, secret), secret) {
			t.Error("kendi imzamız doğrulanamadı")
		}
	})

	t.Run("farklı gövde doğrulanmaz", func(t *testing.T) {
		sig := Sign(body, secret)
		tampered := []byte(`{"reference":"ref-1","status":"approved","amount":99999}`)
		if VerifySignature(tampered, sig, secret) {
			t.Error("değiştirilmiş gövde doğrulandı")
		}
	})

	t.Run("farklı secret doğrulanmaz", func(t *testing.T) {
		if VerifySignature(body, Sign(body, "baska-secret"), secret) {
			t.Error("yanlış secret ile imza doğrulandı")
		}
	})

	t.Run("boş imza veya secret reddedilir", func(t *testing.T) {
		if VerifySignature(body, "", secret) {
			t.Error("boş imza doğrulandı")
		}
		if VerifySignature(body, Sign(body, ""), "") {
			t.Error("boş secret ile imza doğrulandı")
		}
	})
}
