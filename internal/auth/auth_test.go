package auth

import (
	"testing"
	"time"
)

func TestIssueAdminAndParse(t *testing.T) {
	tok, err := IssueAdmin("admin-1", "presensi", "secret", time.Minute)
	if err != nil {
		t.Fatalf("IssueAdmin failed: %v", err)
	}
	if !tok.ExpiresAt.After(time.Now()) {
		t.Errorf("ExpiresAt = %v, want future", tok.ExpiresAt)
	}

	claims, err := Parse(tok.Value, "secret", "presensi")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "admin-1" {
		t.Errorf("Subject = %q, want admin-1", claims.Subject)
	}
	if claims.Role != roleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, roleAdmin)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	tok, err := IssueAdmin("admin-1", "presensi", "secret", time.Minute)
	if err != nil {
		t.Fatalf("IssueAdmin failed: %v", err)
	}
	if _, err := Parse(tok.Value, "other-secret", "presensi"); err == nil {
		t.Error("Parse accepted a token signed with another key")
	}
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	tok, err := IssueAdmin("admin-1", "someone-else", "secret", time.Minute)
	if err != nil {
		t.Fatalf("IssueAdmin failed: %v", err)
	}
	if _, err := Parse(tok.Value, "secret", "presensi"); err == nil {
		t.Error("Parse accepted a token from another issuer")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tok, err := IssueAdmin("admin-1", "presensi", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("IssueAdmin failed: %v", err)
	}
	if _, err := Parse(tok.Value, "secret", "presensi"); err == nil {
		t.Error("Parse accepted an expired token")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("password stored in plaintext")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
