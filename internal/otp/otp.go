// Package otp implements RFC 6238 time-based one-time passwords on top of
// github.com/pquerna/otp: secret generation, otpauth provisioning URIs,
// enrollment QR images and code verification with a one-step window.
package otp

import (
	"bytes"
	"crypto/subtle"
	"encoding/base32"
	"image/png"
	"net/url"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	pqotp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	SecretSize = 20
	Digits     = 6
	Period     = 30 * time.Second
	ImageSize  = 256
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

var validateOpts = totp.ValidateOpts{
	Period:    uint(Period / time.Second),
	Digits:    pqotp.DigitsSix,
	Algorithm: pqotp.AlgorithmSHA1,
}

// now is a seam for tests.
var now = time.Now

// GenerateSecret returns a fresh 160-bit secret, base32 without padding.
func GenerateSecret() (string, error) {
	raw, err := common.RandomBytes(SecretSize)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(raw)
	return b32.EncodeToString(raw), nil
}

// ProvisioningURI builds the otpauth URI understood by authenticator apps.
func ProvisioningURI(secret, account, issuer string) string {
	return "otpauth://totp/" + url.PathEscape(issuer) + ":" + url.PathEscape(account) +
		"?secret=" + url.QueryEscape(secret) +
		"&issuer=" + url.QueryEscape(issuer)
}

// RenderEnrollmentImage encodes uri as a PNG QR code.
func RenderEnrollmentImage(uri string) ([]byte, error) {
	key, err := pqotp.NewKeyFromURL(uri)
	if err != nil {
		return nil, err
	}
	img, err := key.Image(ImageSize, ImageSize)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateCode returns the code for the step containing t.
func GenerateCode(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, validateOpts)
}

// VerifyCode checks code against the current time.
func VerifyCode(secret, code string) bool {
	return VerifyCodeAt(secret, code, now())
}

// VerifyCodeAt accepts code if it matches the step containing t or one of
// its two neighbours. All three candidates are always compared.
func VerifyCodeAt(secret, code string, t time.Time) bool {
	if !wellFormed(code) {
		return false
	}

	ok := 0
	for _, offset := range []time.Duration{-Period, 0, Period} {
		want, err := GenerateCode(secret, t.Add(offset))
		if err != nil {
			return false
		}
		ok |= subtle.ConstantTimeCompare([]byte(want), []byte(code))
	}
	return ok == 1
}

func wellFormed(code string) bool {
	if len(code) != Digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
