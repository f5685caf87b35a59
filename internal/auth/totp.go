package auth

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpIssuer = "DevStudio"
	totpPeriod = 30
)

// TOTPKey holds a freshly provisioned TOTP secret and its otpauth URI
type TOTPKey struct {
	Secret  string
	OTPAuth string

	key *otp.Key
}

// GenerateTOTPKey generates a new TOTP secret bound to the given account
// name, shown as "DevStudio (username)" when scanned by an authenticator app.
func GenerateTOTPKey(accountName string) (*TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
		Period:      totpPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return &TOTPKey{
		Secret:  key.Secret(),
		OTPAuth: key.URL(),
		key:     key,
	}, nil
}

// QRCodeDataURI renders the provisioning URI as a PNG QR code wrapped in a
// data URI, suitable for direct use in an <img> tag.
func (k *TOTPKey) QRCodeDataURI() (string, error) {
	img, err := k.key.Image(200, 200)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ValidateTOTP validates a TOTP code against a secret.
// Allows for ±1 time window to account for clock skew.
// Empty or malformed codes are rejected before any computation.
func ValidateTOTP(secret, code string) bool {
	if secret == "" || len(code) != 6 {
		return false
	}

	valid, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}

	return valid
}
