// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// argon2id cost for every digest written by this service.
var currentArgon = argonParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

const saltLength = 16

// Stored digests above these costs are rejected rather than computed. A
// corrupted row must not be able to exhaust memory on login.
const (
	maxArgonMemory  = 1 << 22
	maxArgonTime    = 16
	maxArgonThreads = 64
)

var ErrMalformedDigest = errors.New("malformed password digest")

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// digest is a parsed stored password. bcrypt digests come from the legacy
// storefront scripts and are kept verbatim for bcrypt to interpret.
type digest struct {
	bcrypt []byte

	params argonParams
	salt   []byte
	key    []byte
}

func (d digest) matches(password string) (bool, error) {
	if d.bcrypt != nil {
		err := bcrypt.CompareHashAndPassword(d.bcrypt, []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, fmt.Errorf("%w: %w", ErrMalformedDigest, err)
		}
	}

	candidate := argon2.IDKey(
		[]byte(password),
		d.salt,
		d.params.time,
		d.params.memory,
		d.params.threads,
		d.params.keyLen,
	)
	return subtle.ConstantTimeCompare(d.key, candidate) == 1, nil
}

func (d digest) outdated() bool {
	return d.bcrypt != nil || d.params != currentArgon
}

func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	p := currentArgon
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches the stored digest. Any
// digest that is neither argon2id nor bcrypt yields false and
// ErrMalformedDigest.
func VerifyPassword(password, encoded string) (bool, error) {
	d, err := parseDigest(encoded)
	if err != nil {
		return false, err
	}
	return d.matches(password)
}

// CheckPassword is VerifyPassword for callers that only care about a match.
func CheckPassword(password, encoded string) bool {
	//nolint:errcheck // malformed digests are a non-match
	ok, _ := VerifyPassword(password, encoded)
	return ok
}

// VerifyPasswordWithRehash also returns a fresh argon2id digest when the
// stored one is bcrypt or uses older parameters. The returned digest is
// empty when no upgrade is due or when hashing it failed.
func VerifyPasswordWithRehash(password, encoded string) (bool, string, error) {
	d, err := parseDigest(encoded)
	if err != nil {
		return false, "", err
	}

	ok, err := d.matches(password)
	if err != nil || !ok {
		return false, "", err
	}

	if !d.outdated() {
		return true, "", nil
	}

	upgraded, err := HashPassword(password)
	if err != nil {
		//nolint:nilerr // the password matched; the upgrade can wait
		return true, "", nil
	}
	return true, upgraded, nil
}

var dummyDigest = sync.OnceValue(func() string {
	d, err := HashPassword("no-such-account")
	if err != nil {
		panic(fmt.Sprintf("security: generate dummy digest: %v", err))
	}
	return d
})

// VerifyPasswordTimingSafe burns the same argon2 work when there is no stored
// digest, so an unknown email costs as much as a wrong password.
func VerifyPasswordTimingSafe(password string, encoded *string) (bool, string, error) {
	if encoded == nil || *encoded == "" {
		//nolint:errcheck // result is discarded, only the work matters
		_, _, _ = VerifyPasswordWithRehash(password, dummyDigest())
		return false, "", nil
	}
	return VerifyPasswordWithRehash(password, *encoded)
}

func parseDigest(encoded string) (digest, error) {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, prefix) {
			return digest{bcrypt: []byte(encoded)}, nil
		}
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return digest{}, fmt.Errorf("%w: unrecognised format", ErrMalformedDigest)
	}
	if parts[1] != "argon2id" {
		return digest{}, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedDigest, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return digest{}, fmt.Errorf("%w: unsupported version %q", ErrMalformedDigest, parts[2])
	}

	var d digest
	if _, err := fmt.Sscanf(
		parts[3],
		"m=%d,t=%d,p=%d",
		&d.params.memory,
		&d.params.time,
		&d.params.threads,
	); err != nil {
		return digest{}, fmt.Errorf("%w: parameters: %w", ErrMalformedDigest, err)
	}
	if err := d.params.check(); err != nil {
		return digest{}, err
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) == 0 {
		return digest{}, fmt.Errorf("%w: salt", ErrMalformedDigest)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.key) == 0 {
		return digest{}, fmt.Errorf("%w: key", ErrMalformedDigest)
	}

	//nolint:gosec // G115: argon2id keys are a few dozen bytes
	d.params.keyLen = uint32(len(d.key))

	return d, nil
}

// check bounds the costs argon2.IDKey would otherwise panic on or allocate
// without limit.
func (p argonParams) check() error {
	switch {
	case p.time < 1 || p.time > maxArgonTime:
		return fmt.Errorf("%w: time cost %d out of range", ErrMalformedDigest, p.time)
	case p.threads < 1 || p.threads > maxArgonThreads:
		return fmt.Errorf("%w: parallelism %d out of range", ErrMalformedDigest, p.threads)
	case p.memory < 8*uint32(p.threads) || p.memory > maxArgonMemory:
		return fmt.Errorf("%w: memory cost %d out of range", ErrMalformedDigest, p.memory)
	}
	return nil
}
