package security

import (
	"strings"
	"testing"
	"time"
)

func TestDownloadTokenRoundTrip(t *testing.T) {
	token, err := GenerateDownloadToken(7, 3, 42, time.Minute, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := VerifyDownloadToken(token, "secret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 || claims.CompanyID != 3 || claims.AttachmentID != 42 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestDownloadTokenWrongSecret(t *testing.T) {
	token, err := GenerateDownloadToken(7, 3, 42, time.Minute, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyDownloadToken(token, "other"); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestDownloadTokenExpired(t *testing.T) {
	token, err := GenerateDownloadToken(7, 3, 42, -time.Minute, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyDownloadToken(token, "secret"); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestDownloadTokenTampered(t *testing.T) {
	token, err := GenerateDownloadToken(7, 3, 42, time.Minute, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "x." + parts[1]
	if _, err := VerifyDownloadToken(tampered, "secret"); err == nil {
		t.Fatal("expected verification failure for tampered payload")
	}
}
