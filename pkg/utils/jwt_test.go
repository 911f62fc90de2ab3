package utils

import (
	"testing"
)

func TestGenerateAndValidateToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken("agent-7", "tenant-a", []string{"agent", "supervisor"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "agent-7" {
		t.Errorf("user = %q, want agent-7", claims.UserID)
	}
	if claims.TenantID != "tenant-a" {
		t.Errorf("tenant = %q, want tenant-a", claims.TenantID)
	}
	if len(claims.Roles) != 2 || claims.Roles[1] != "supervisor" {
		t.Errorf("roles = %v", claims.Roles)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("test-secret")
	token, err := GenerateToken("agent-7", "tenant-a", nil)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	SetSecret("other-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	SetSecret("test-secret")
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected parse error")
	}
}
