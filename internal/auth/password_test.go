package auth

import (
	"strings"
	"testing"
)

// Tests run bcrypt at its minimum cost; the default cost would add
// roughly a quarter second per hash.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

func TestHashProducesBcryptHash(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "" {
		t.Fatal("Hash() returned an empty string")
	}
	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		t.Errorf("Hash() = %q, want bcrypt prefix", hash)
	}
}

func TestHashSaltsEachCall(t *testing.T) {
	ps := newTestPasswordService()

	h1, err := ps.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical; salting is broken")
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("expected error for a 73-byte password, got nil")
	}
}

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "s3cret-pass"); err != nil {
		t.Errorf("Verify() with correct password = %v, want nil", err)
	}
	if err := ps.Verify(hash, "wrong-pass"); err == nil {
		t.Error("Verify() with wrong password = nil, want error")
	}
	if err := ps.Verify("not-a-hash", "s3cret-pass"); err == nil {
		t.Error("Verify() with garbage hash = nil, want error")
	}
}
