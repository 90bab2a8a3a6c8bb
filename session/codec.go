// Package session implements the HMAC-signed cookie tokens used by the admin
// area: the login session and the OAuth state value.
//
// Tokens have the form "<base64url(payload)>.<base64url(hmac-sha256)>" and
// need no server-side storage.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

var b64 = base64.RawURLEncoding

// Sign returns the unpadded base64url HMAC-SHA256 of payload under secret.
func Sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return b64.EncodeToString(mac.Sum(nil))
}

// MakeToken encodes payload and appends its signature.
func MakeToken(secret, payload string) string {
	encoded := b64.EncodeToString([]byte(payload))
	return encoded + "." + Sign(secret, encoded)
}

// VerifyToken returns the payload carried by token when its signature is
// valid under secret. Any malformed input yields ok == false.
func VerifyToken(secret, token string) (payload string, ok bool) {
	encoded, sig, ok := splitToken(token)
	if !ok {
		return "", false
	}
	if !equal(Sign(secret, encoded), sig) {
		return "", false
	}
	raw, err := b64.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func splitToken(token string) (string, string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
