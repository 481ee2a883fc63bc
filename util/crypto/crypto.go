// Package crypto provides the credential digest used for stored passwords and
// session tokens.
package crypto

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// The login is wrapped in these before being mixed into the password digest, so
// equal passwords of different accounts never share a digest.
const (
	loginSaltPrefix = "::seatbook/"
	loginSaltSuffix = "/credential"
)

// DigestSize is the length of a hex encoded digest.
const DigestSize = sha512.Size * 2

// HashPassword returns the hex SHA-512 digest of the password followed by the
// salted login. Both are hashed as their raw UTF-8 bytes. An empty password has
// no digest and yields "", which never matches a stored digest.
func HashPassword(password, login string) string {
	if password == "" {
		return ""
	}
	h := sha512.New()
	h.Write([]byte(password))
	h.Write([]byte(loginSaltPrefix))
	h.Write([]byte(login))
	h.Write([]byte(loginSaltSuffix))
	return hex.EncodeToString(h.Sum(nil))
}

// CheckPasswordHash reports whether password and login produce digest.
func CheckPasswordHash(digest, password, login string) bool {
	computed := HashPassword(password, login)
	if computed == "" || len(digest) != DigestSize {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

// Digest returns the hex SHA-512 digest of b.
func Digest(b []byte) string {
	sum := sha512.Sum512(b)
	return hex.EncodeToString(sum[:])
}
