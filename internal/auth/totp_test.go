package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestGenerateTOTPKey(t *testing.T) {
	key, err := GenerateTOTPKey("root")
	if err != nil {
		t.Fatalf("GenerateTOTPKey: %v", err)
	}

	if key.Secret == "" {
		t.Error("expected non-empty secret")
	}
	if !strings.HasPrefix(key.OTPAuth, "otpauth://totp/") {
		t.Errorf("unexpected otpauth URI: %s", key.OTPAuth)
	}
	if !strings.Contains(key.OTPAuth, "DevStudio") {
		t.Errorf("otpauth URI should carry the issuer: %s", key.OTPAuth)
	}
}

func TestQRCodeDataURI(t *testing.T) {
	key, err := GenerateTOTPKey("root")
	if err != nil {
		t.Fatalf("GenerateTOTPKey: %v", err)
	}

	qr, err := key.QRCodeDataURI()
	if err != nil {
		t.Fatalf("QRCodeDataURI: %v", err)
	}
	if !strings.HasPrefix(qr, "data:image/png;base64,") {
		t.Errorf("expected PNG data URI, got prefix %q", qr[:min(len(qr), 30)])
	}
}

func TestValidateTOTP(t *testing.T) {
	key, err := GenerateTOTPKey("root")
	if err != nil {
		t.Fatalf("GenerateTOTPKey: %v", err)
	}

	code, err := totp.GenerateCode(key.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	if !ValidateTOTP(key.Secret, code) {
		t.Error("expected code from the shared secret to validate")
	}

	// A code computed from a different secret must fail
	other, err := GenerateTOTPKey("other")
	if err != nil {
		t.Fatalf("GenerateTOTPKey: %v", err)
	}
	otherCode, err := totp.GenerateCode(other.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if otherCode != code && ValidateTOTP(key.Secret, otherCode) {
		t.Error("expected code from a different secret to fail")
	}
}

func TestValidateTOTPRejectsMalformed(t *testing.T) {
	key, err := GenerateTOTPKey("root")
	if err != nil {
		t.Fatalf("GenerateTOTPKey: %v", err)
	}

	for _, code := range []string{"", "123", "12345678", "abcdef"} {
		if ValidateTOTP(key.Secret, code) {
			t.Errorf("expected code %q to be rejected", code)
		}
	}

	if ValidateTOTP("", "123456") {
		t.Error("expected empty secret to be rejected")
	}
}

func TestValidateTOTPClockSkew(t *testing.T) {
	key, err := GenerateTOTPKey("root")
	if err != nil {
		t.Fatalf("GenerateTOTPKey: %v", err)
	}

	// A code from the previous time step is still inside the ±1 window
	code, err := totp.GenerateCode(key.Secret, time.Now().Add(-totpPeriod*time.Second))
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if !ValidateTOTP(key.Secret, code) {
		t.Error("expected code from the adjacent window to validate")
	}
}
