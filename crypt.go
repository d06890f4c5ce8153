package humans

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Built-in scheme identifiers
const (
	SchemeBcrypt       = "bcrypt"
	SchemeArgon2       = "argon2"
	SchemeScrypt       = "scrypt"
	SchemePBKDF2SHA256 = "pbkdf2_sha256"
)

// Scheme is a one-way password hashing algorithm with a self-describing
// hash format.
type Scheme interface {
	// Name is the identifier used in crypt scheme lists
	Name() string

	// Identify reports whether hash was produced by this scheme
	Identify(hash string) bool

	// Hash returns a new salted hash of password
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. It never errors: malformed
	// hashes simply do not match.
	Verify(password, hash string) bool

	// NeedsUpdate reports whether hash was made with weaker parameters
	// than the scheme currently uses
	NeedsUpdate(hash string) bool
}

var (
	schemesMu sync.RWMutex
	schemes   = map[string]Scheme{}
)

func init() {
	RegisterScheme(&BcryptScheme{Cost: bcrypt.DefaultCost})
	RegisterScheme(&Argon2Scheme{Time: 2, Memory: 64 * 1024, Threads: 4, KeyLen: 32})
	RegisterScheme(&ScryptScheme{LogN: 16, R: 8, P: 1, KeyLen: 32})
	RegisterScheme(&PBKDF2Scheme{Rounds: 29000, KeyLen: 32})
	DefaultCryptContext = mustCryptContext(SchemeBcrypt)
}

// RegisterScheme makes a scheme available to crypt contexts by name,
// replacing any scheme previously registered under the same name.
func RegisterScheme(s Scheme) {
	schemesMu.Lock()
	defer schemesMu.Unlock()
	schemes[s.Name()] = s
}

// LookupScheme returns the registered scheme with the given name
func LookupScheme(name string) (Scheme, bool) {
	schemesMu.RLock()
	defer schemesMu.RUnlock()
	s, ok := schemes[name]
	return s, ok
}

// CryptContext hashes and verifies passwords against an ordered list of
// schemes. The first scheme is used for new hashes; all of them are accepted
// when verifying.
type CryptContext struct {
	schemes []Scheme
}

// DefaultCryptContext uses bcrypt only. It is set once the built-in
// schemes are registered.
var DefaultCryptContext *CryptContext

// NewCryptContext builds a context from registered scheme names
func NewCryptContext(names ...string) (*CryptContext, error) {
	if len(names) == 0 {
		return nil, ErrNoSchemes
	}
	ctx := &CryptContext{}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		s, ok := LookupScheme(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
		}
		seen[name] = true
		ctx.schemes = append(ctx.schemes, s)
	}
	return ctx, nil
}

func mustCryptContext(names ...string) *CryptContext {
	ctx, err := NewCryptContext(names...)
	if err != nil {
		panic(err)
	}
	return ctx
}

func (c *CryptContext) orDefault() *CryptContext {
	if c == nil || len(c.schemes) == 0 {
		return DefaultCryptContext
	}
	return c
}

// Schemes returns the scheme names in preference order
func (c *CryptContext) Schemes() []string {
	c = c.orDefault()
	out := make([]string, len(c.schemes))
	for i, s := range c.schemes {
		out[i] = s.Name()
	}
	return out
}

// Hash hashes password with the preferred scheme
func (c *CryptContext) Hash(password string) (string, error) {
	c = c.orDefault()
	hash, err := c.schemes[0].Hash(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Identify returns the accepted scheme that produced hash
func (c *CryptContext) Identify(hash string) (Scheme, bool) {
	if hash == "" {
		return nil, false
	}
	for _, s := range c.orDefault().schemes {
		if s.Identify(hash) {
			return s, true
		}
	}
	return nil, false
}

// Verify reports whether password matches hash under any accepted scheme
func (c *CryptContext) Verify(password, hash string) bool {
	s, ok := c.Identify(hash)
	if !ok {
		return false
	}
	return s.Verify(password, hash)
}

// NeedsUpdate reports whether hash should be replaced: it was made by a
// non-preferred scheme or with outdated parameters.
func (c *CryptContext) NeedsUpdate(hash string) bool {
	c = c.orDefault()
	s, ok := c.Identify(hash)
	if !ok {
		return true
	}
	if s != c.schemes[0] {
		return true
	}
	return s.NeedsUpdate(hash)
}

// =============================================================================
// bcrypt
// =============================================================================

// BcryptScheme hashes with bcrypt at the given cost
type BcryptScheme struct {
	Cost int
}

func (s *BcryptScheme) Name() string { return SchemeBcrypt }

func (s *BcryptScheme) Identify(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

func (s *BcryptScheme) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *BcryptScheme) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *BcryptScheme) NeedsUpdate(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost < s.Cost
}

// =============================================================================
// argon2id, PHC string format
// =============================================================================

// Argon2Scheme hashes with argon2id
type Argon2Scheme struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// argon2MaxMemory caps the memory cost accepted from stored hashes, in KiB
const argon2MaxMemory = 4 * 1024 * 1024

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (s *Argon2Scheme) Name() string { return SchemeArgon2 }

func (s *Argon2Scheme) Identify(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}

func (s *Argon2Scheme) Hash(password string) (string, error) {
	salt, err := randomSalt(16)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, s.Time, s.Memory, s.Threads, s.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, s.Memory, s.Time, s.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (s *Argon2Scheme) parse(hash string) (*argon2Params, bool) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, false
	}
	p := &argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, false
	}
	// argon2.IDKey panics below these bounds
	if p.time < 1 || p.threads < 1 || p.memory < 8*uint32(p.threads) || p.memory > argon2MaxMemory {
		return nil, false
	}
	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, false
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, false
	}
	return p, true
}

func (s *Argon2Scheme) Verify(password, hash string) bool {
	p, ok := s.parse(hash)
	if !ok {
		return false
	}
	key := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1
}

func (s *Argon2Scheme) NeedsUpdate(hash string) bool {
	p, ok := s.parse(hash)
	return !ok || p.time < s.Time || p.memory < s.Memory
}

// =============================================================================
// scrypt, $scrypt$ln=..,r=..,p=..$salt$key
// =============================================================================

// Bounds on scrypt parameters accepted from stored hashes. Memory use is
// 128 * r * 2^ln bytes.
const (
	scryptMaxLogN = 20
	scryptMaxR    = 32
	scryptMaxP    = 16
)

// ScryptScheme hashes with scrypt using N = 2^LogN
type ScryptScheme struct {
	LogN   int
	R      int
	P      int
	KeyLen int
}

func (s *ScryptScheme) Name() string { return SchemeScrypt }

func (s *ScryptScheme) Identify(hash string) bool {
	return strings.HasPrefix(hash, "$scrypt$")
}

func (s *ScryptScheme) Hash(password string) (string, error) {
	salt, err := randomSalt(16)
	if err != nil {
		return "", err
	}
	key, err := scrypt.Key([]byte(password), salt, 1<<s.LogN, s.R, s.P, s.KeyLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("$scrypt$ln=%d,r=%d,p=%d$%s$%s", s.LogN, s.R, s.P, ab64Encode(salt), ab64Encode(key)), nil
}

func (s *ScryptScheme) Verify(password, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 || parts[1] != "scrypt" {
		return false
	}
	var logN, r, p int
	if _, err := fmt.Sscanf(parts[2], "ln=%d,r=%d,p=%d", &logN, &r, &p); err != nil {
		return false
	}
	if logN < 1 || logN > scryptMaxLogN || r < 1 || r > scryptMaxR || p < 1 || p > scryptMaxP {
		return false
	}
	salt, err := ab64Decode(parts[3])
	if err != nil {
		return false
	}
	want, err := ab64Decode(parts[4])
	if err != nil || len(want) == 0 {
		return false
	}
	key, err := scrypt.Key([]byte(password), salt, 1<<logN, r, p, len(want))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, want) == 1
}

func (s *ScryptScheme) NeedsUpdate(hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 {
		return true
	}
	var logN, r, p int
	if _, err := fmt.Sscanf(parts[2], "ln=%d,r=%d,p=%d", &logN, &r, &p); err != nil {
		return true
	}
	return logN < s.LogN
}

// =============================================================================
// pbkdf2-sha256, $pbkdf2-sha256$rounds$salt$key
// =============================================================================

// PBKDF2Scheme hashes with PBKDF2-HMAC-SHA256
type PBKDF2Scheme struct {
	Rounds int
	KeyLen int
}

func (s *PBKDF2Scheme) Name() string { return SchemePBKDF2SHA256 }

func (s *PBKDF2Scheme) Identify(hash string) bool {
	return strings.HasPrefix(hash, "$pbkdf2-sha256$")
}

func (s *PBKDF2Scheme) Hash(password string) (string, error) {
	salt, err := randomSalt(16)
	if err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(password), salt, s.Rounds, s.KeyLen, sha256.New)
	return fmt.Sprintf("$pbkdf2-sha256$%d$%s$%s", s.Rounds, ab64Encode(salt), ab64Encode(key)), nil
}

func (s *PBKDF2Scheme) rounds(hash string) (int, []string, bool) {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 || parts[1] != "pbkdf2-sha256" {
		return 0, nil, false
	}
	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds <= 0 {
		return 0, nil, false
	}
	return rounds, parts, true
}

func (s *PBKDF2Scheme) Verify(password, hash string) bool {
	rounds, parts, ok := s.rounds(hash)
	if !ok {
		return false
	}
	salt, err := ab64Decode(parts[3])
	if err != nil {
		return false
	}
	want, err := ab64Decode(parts[4])
	if err != nil || len(want) == 0 {
		return false
	}
	key := pbkdf2.Key([]byte(password), salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(key, want) == 1
}

func (s *PBKDF2Scheme) NeedsUpdate(hash string) bool {
	rounds, _, ok := s.rounds(hash)
	return !ok || rounds < s.Rounds
}

// =============================================================================
// helpers
// =============================================================================

func randomSalt(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return b, nil
}

// ab64 is unpadded base64 with "." in place of "+", as used by modular
// crypt strings for scrypt and pbkdf2.
func ab64Encode(b []byte) string {
	return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b), "+", ".")
}

func ab64Decode(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(s, ".", "+"))
}
