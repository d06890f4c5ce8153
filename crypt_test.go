package humans_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/panyam/humans"
)

func TestDefaultCryptContext(t *testing.T) {
	if humans.DefaultCryptContext == nil {
		t.Fatal("DefaultCryptContext not initialised")
	}
	hash, err := humans.DefaultCryptContext.Hash("password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !humans.DefaultCryptContext.Verify("password", hash) {
		t.Error("expected password to verify")
	}
	if got := humans.DefaultCryptContext.Schemes(); len(got) != 1 || got[0] != humans.SchemeBcrypt {
		t.Errorf("unexpected default schemes %v", got)
	}
}

// TestCryptSchemes hashes and verifies with every built-in scheme
func TestCryptSchemes(t *testing.T) {
	tests := []struct {
		scheme string
		prefix string
	}{
		{humans.SchemeBcrypt, "$2a$"},
		{humans.SchemeArgon2, "$argon2id$v=19$"},
		{humans.SchemeScrypt, "$scrypt$ln=16,r=8,p=1$"},
		{humans.SchemePBKDF2SHA256, "$pbkdf2-sha256$29000$"},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			ctx, err := humans.NewCryptContext(tt.scheme)
			if err != nil {
				t.Fatalf("NewCryptContext failed: %v", err)
			}
			hash, err := ctx.Hash("password")
			if err != nil {
				t.Fatalf("Hash failed: %v", err)
			}
			if hash == "password" {
				t.Fatal("hash equals plaintext")
			}
			if !strings.HasPrefix(hash, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, hash)
			}
			if !ctx.Verify("password", hash) {
				t.Error("expected password to verify")
			}
			if ctx.Verify("invalid", hash) {
				t.Error("expected wrong password to be rejected")
			}
			if ctx.NeedsUpdate(hash) {
				t.Error("fresh hash should not need an update")
			}

			again, _ := ctx.Hash("password")
			if again == hash {
				t.Error("expected a new salt on every hash")
			}
		})
	}
}

func TestCryptContext_MultipleSchemes(t *testing.T) {
	legacy, err := humans.NewCryptContext(humans.SchemePBKDF2SHA256)
	if err != nil {
		t.Fatalf("NewCryptContext failed: %v", err)
	}
	old, _ := legacy.Hash("password")

	ctx, err := humans.NewCryptContext(humans.SchemeArgon2, humans.SchemePBKDF2SHA256, humans.SchemeArgon2)
	if err != nil {
		t.Fatalf("NewCryptContext failed: %v", err)
	}
	if got := ctx.Schemes(); len(got) != 2 || got[0] != humans.SchemeArgon2 {
		t.Errorf("unexpected schemes %v", got)
	}
	if !ctx.Verify("password", old) {
		t.Error("non-preferred scheme should still verify")
	}
	if !ctx.NeedsUpdate(old) {
		t.Error("non-preferred scheme should need an update")
	}
	s, ok := ctx.Identify(old)
	if !ok || s.Name() != humans.SchemePBKDF2SHA256 {
		t.Errorf("expected pbkdf2_sha256, got %v", s)
	}

	// Hashes from schemes outside the context are not accepted
	bcryptHash, _ := humans.DefaultCryptContext.Hash("password")
	if ctx.Verify("password", bcryptHash) {
		t.Error("bcrypt hash should not verify in an argon2/pbkdf2 context")
	}
}

func TestCryptContext_Errors(t *testing.T) {
	if _, err := humans.NewCryptContext(); !errors.Is(err, humans.ErrNoSchemes) {
		t.Errorf("expected ErrNoSchemes, got %v", err)
	}
	if _, err := humans.NewCryptContext("bcrypt", "md5_crypt"); !errors.Is(err, humans.ErrUnknownScheme) {
		t.Errorf("expected ErrUnknownScheme, got %v", err)
	}
}

func TestCryptContext_MalformedHashes(t *testing.T) {
	ctx, err := humans.NewCryptContext(humans.SchemeBcrypt, humans.SchemeArgon2, humans.SchemeScrypt, humans.SchemePBKDF2SHA256)
	if err != nil {
		t.Fatalf("NewCryptContext failed: %v", err)
	}
	for _, hash := range []string{
		"",
		"password",
		"$2a$10$short",
		"$argon2id$v=19$m=65536,t=2,p=4$!!$!!",
		"$argon2id$v=1$m=65536,t=2,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=0,p=4$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5",
		"$argon2id$v=19$m=65536,t=2,p=0$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5",
		"$argon2id$v=19$m=16,t=2,p=4$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5",
		"$argon2id$v=19$m=4294967295,t=2,p=4$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5",
		"$scrypt$ln=99,r=8,p=1$c2FsdA$a2V5",
		"$scrypt$ln=0,r=8,p=1$c2FsdA$a2V5",
		"$scrypt$ln=16,r=0,p=1$c2FsdA$a2V5",
		"$scrypt$ln=16,r=8,p=0$c2FsdA$a2V5",
		"$scrypt$ln=16,r=100000,p=1$c2FsdA$a2V5",
		"$scrypt$ln=16,r=8,p=100000$c2FsdA$a2V5",
		"$pbkdf2-sha256$abc$c2FsdA$a2V5",
		"$pbkdf2-sha256$1000$c2FsdA$",
	} {
		if ctx.Verify("password", hash) {
			t.Errorf("malformed hash %q verified", hash)
		}
		if !ctx.NeedsUpdate(hash) {
			t.Errorf("malformed hash %q should need an update", hash)
		}
	}
}

func TestPBKDF2_WeakerRoundsNeedUpdate(t *testing.T) {
	weak := &humans.PBKDF2Scheme{Rounds: 1000, KeyLen: 32}
	hash, err := weak.Hash("password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	ctx, _ := humans.NewCryptContext(humans.SchemePBKDF2SHA256)
	if !ctx.Verify("password", hash) {
		t.Error("hash with fewer rounds should still verify")
	}
	if !ctx.NeedsUpdate(hash) {
		t.Error("hash with fewer rounds should need an update")
	}
}

func TestNilCryptContextUsesBcrypt(t *testing.T) {
	var ctx *humans.CryptContext
	hash, err := ctx.Hash("password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("expected bcrypt hash, got %q", hash)
	}
	if !ctx.Verify("password", hash) {
		t.Error("expected password to verify")
	}
}
