package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("Expected hash to differ from password")
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("Expected password to match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRandomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := RandomCode(SmartCardLength)
		if err != nil {
			t.Fatalf("RandomCode failed: %v", err)
		}
		if len(code) != SmartCardLength {
			t.Fatalf("Expected length %d, got %d", SmartCardLength, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("Unexpected character %q in %s", r, code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Errorf("Expected mostly distinct codes, got %d of 50", len(seen))
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue(42, RoleAdmin)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.UserId != 42 || claims.Role != RoleAdmin {
		t.Errorf("Expected user 42 admin, got %d %s", claims.UserId, claims.Role)
	}
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(7, RoleUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	other := NewTokenIssuer("other-secret", time.Hour)
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for wrong secret, got %v", err)
	}

	expired := NewTokenIssuer("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := issuer.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for garbage, got %v", err)
	}
}
