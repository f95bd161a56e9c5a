package auth

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	token, expiresAt, err := tm.GenerateToken("Maria", "maria@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatal("incomplete token")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Nome != "Maria" || claims.Email != "maria@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 5).GenerateToken("Maria", "maria@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 5).ParseToken(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := NewTokenManager("secret", 5).ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestSecretHashing(t *testing.T) {
	hash, err := HashSecret("refresh-token", 4)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if hash == "refresh-token" {
		t.Fatal("secret stored verbatim")
	}
	if err := CompareSecret(hash, "refresh-token"); err != nil {
		t.Fatalf("CompareSecret: %v", err)
	}
	if err := CompareSecret(hash, "wrong"); err == nil {
		t.Fatal("wrong secret accepted")
	}
}
