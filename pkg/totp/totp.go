// Package totp implements the time-based one-time password engine used by
// the two-factor login flow: secret generation, code derivation, windowed
// verification with candidate normalization, and provisioning output for
// authenticator apps.
package totp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the TOTP time step in seconds.
	Period = 30

	// Digits is the length of a generated code.
	Digits = 6

	// secretBytes is the raw entropy behind a secret; 20 bytes encodes to a
	// 32-character base32 string, matching what authenticator apps expect.
	secretBytes = 20
)

// ErrInvalidSecret reports a secret that is not valid base32.
var ErrInvalidSecret = errors.New("totp: invalid base32 secret")

// GenerateSecret produces a cryptographically random base32 secret
// (32 characters, no padding).
func GenerateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("totp: failed to generate secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// CodeAt derives the 6-digit code for the secret at the given time.
func CodeAt(secret string, t time.Time) (string, error) {
	code, err := totp.GenerateCode(secret, t.UTC())
	if err != nil {
		return "", fmt.Errorf("totp: failed to derive code: %w", err)
	}
	return code, nil
}

// Normalize sanitizes a candidate code: every non-digit character is
// stripped and the result is truncated to 6 digits. The second return value
// reports whether the sanitized value is exactly 6 digits; callers must
// reject the candidate without computing any hash when it is false.
func Normalize(candidate string) (string, bool) {
	var b strings.Builder
	for _, r := range candidate {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == Digits {
			break
		}
	}
	code := b.String()
	return code, len(code) == Digits
}

// Verify reports whether candidate matches the code for the secret at time t
// or at any step within window steps before or after (each window unit
// tolerates 30 seconds of clock skew). The candidate is normalized first and
// rejected outright when it does not sanitize to exactly 6 digits.
func Verify(secret, candidate string, t time.Time, window uint) bool {
	code, ok := Normalize(candidate)
	if !ok {
		return false
	}

	valid, err := totp.ValidateCustom(code, secret, t.UTC(), totp.ValidateOpts{
		Period:    Period,
		Skew:      window,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}

// ProvisioningURI formats an otpauth:// URI for the secret so external
// authenticator apps can enrol it. Purely a formatting function.
func ProvisioningURI(secret, accountName, issuer string) (string, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		return "", ErrInvalidSecret
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      Period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		Secret:      raw,
	})
	if err != nil {
		return "", fmt.Errorf("totp: failed to build provisioning uri: %w", err)
	}
	return key.URL(), nil
}
