package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
)

// SignatureHeader carries the HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Signature-256"

const defaultMaxWebhookBody = 1 << 20

// SignPayload returns the header value for body: "sha256=<hex>".
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against the HMAC of body in constant time.
// Both "sha256=<hex>" and a bare hex digest are accepted.
func VerifySignature(secret string, body []byte, header string) bool {
	if secret == "" {
		return false
	}
	sig := strings.TrimSpace(header)
	sig = strings.TrimPrefix(sig, "sha256=")
	got, err := hex.DecodeString(sig)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// WebhookSignature rejects requests whose body does not match the signature
// header. The verified body is restored for the next handler.
func WebhookSignature(secret string, maxBody int64) func(http.Handler) http.Handler {
	if maxBody <= 0 {
		maxBody = defaultMaxWebhookBody
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", "unable to read body")
				return
			}
			if int64(len(body)) > maxBody {
				writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "payload too large")
				return
			}
			if !VerifySignature(secret, body, r.Header.Get(SignatureHeader)) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid signature")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
