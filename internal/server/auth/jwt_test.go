package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func newIssuer(t *testing.T, secret string, ttl time.Duration) *TokenIssuer {
	t.Helper()
	i, err := NewTokenIssuer([]byte(secret), ttl)
	if err != nil {
		t.Fatalf("NewTokenIssuer error: %v", err)
	}
	return i
}

func TestIssueAndValidate_Success(t *testing.T) {
	i := newIssuer(t, "super-secret", time.Hour)

	before := time.Now()
	tok, exp, err := i.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if exp.Before(before.Add(59*time.Minute)) || exp.After(time.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", exp)
	}

	sub, err := i.Validate(tok)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if sub != "user-123" {
		t.Fatalf("subject mismatch: got %q want %q", sub, "user-123")
	}
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	if _, err := NewTokenIssuer(nil, time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestNewTokenIssuer_CopiesSecret(t *testing.T) {
	secret := []byte("mutable")
	i, err := NewTokenIssuer(secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tok, _, _ := i.Issue("u1")
	secret[0] = 'X'

	if _, err := i.Validate(tok); err != nil {
		t.Fatalf("issuer must not observe caller mutations: %v", err)
	}
}

func TestValidate_Expired(t *testing.T) {
	i := newIssuer(t, "secret", time.Minute)

	orig := now
	t.Cleanup(func() { now = orig })

	now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	tok, _, err := i.Issue("u1")
	if err != nil {
		t.Fatal(err)
	}

	now = func() time.Time { return time.Unix(1_700_000_000, 0).Add(2 * time.Minute) }
	if _, err := i.Validate(tok); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	tok, _, err := newIssuer(t, "right-secret", time.Hour).Issue("u2")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newIssuer(t, "wrong-secret", time.Hour).Validate(tok); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidate_Malformed(t *testing.T) {
	i := newIssuer(t, "k", time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "a.b", strings.Repeat("x", 100)} {
		if _, err := i.Validate(tok); !errors.Is(err, common.ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", tok, err)
		}
	}
}

func TestValidate_Tampered(t *testing.T) {
	i := newIssuer(t, "k", time.Hour)
	tok, _, _ := i.Issue("u1")

	sig := strings.LastIndex(tok, ".") + 1
	repl := byte('A')
	if tok[sig] == 'A' {
		repl = 'B'
	}
	tampered := tok[:sig] + string(repl) + tok[sig+1:]
	if _, err := i.Validate(tampered); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	i := newIssuer(t, "k", time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := i.Validate(hs512); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("HS512: expected ErrTokenInvalid, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := i.Validate(none); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("none: expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidate_RequiresExpAndSubject(t *testing.T) {
	i := newIssuer(t, "k", time.Hour)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1"}).SignedString([]byte("k"))
	if _, err := i.Validate(noExp); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("missing exp: expected ErrTokenInvalid, got %v", err)
	}

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))
	if _, err := i.Validate(noSub); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("missing sub: expected ErrTokenInvalid, got %v", err)
	}
}
