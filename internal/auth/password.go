package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for new hashes.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Upper bounds accepted from a configured hash. A hash edited by hand must
// not be able to stall login.
const (
	maxArgonTime   = 10
	maxArgonMemory = 512 * 1024 // KiB
	maxArgonKeyLen = 64
)

// phc is a decoded $argon2id$ string.
type phc struct {
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	hash    []byte
}

func (p phc) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.hash),
	)
}

// HashPassword returns the operator password as an Argon2id PHC string,
// the format expected in security.console_auth.password_hash:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	p := phc{time: argonTime, memory: argonMemory, threads: argonThreads, salt: salt}
	p.hash = argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, argonKeyLen)
	return p.String(), nil
}

// VerifyPassword reports whether password matches the Argon2id PHC hash.
// A malformed or out-of-range hash yields ErrInvalidHash rather than false.
func VerifyPassword(password, encodedHash string) (bool, error) {
	p, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.hash))) //nolint:gosec // G115: bounded by maxArgonKeyLen
	return subtle.ConstantTimeCompare(p.hash, candidate) == 1, nil
}

func parsePHC(encoded string) (phc, error) {
	var p phc
	invalid := func(format string, args ...any) (phc, error) {
		return phc{}, fmt.Errorf("%w: %s", ErrInvalidHash, fmt.Sprintf(format, args...))
	}

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" { //nolint:mnd // PHC field count
		return invalid("expected $argon2id$v=..$m=..,t=..,p=..$salt$hash")
	}
	if parts[1] != "argon2id" {
		return invalid("unsupported algorithm %q", parts[1])
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return invalid("unsupported version %q", parts[2])
	}

	for _, kv := range strings.Split(parts[3], ",") {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return invalid("malformed parameter %q", kv)
		}
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return invalid("parameter %s: %v", key, err)
		}
		switch key {
		case "m":
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			if n > 255 { //nolint:mnd // uint8 range
				return invalid("parallelism %d out of range", n)
			}
			p.threads = uint8(n)
		default:
			return invalid("unknown parameter %q", key)
		}
	}
	if p.time == 0 || p.time > maxArgonTime {
		return invalid("time cost %d out of range", p.time)
	}
	if p.memory == 0 || p.memory > maxArgonMemory {
		return invalid("memory cost %d out of range", p.memory)
	}
	if p.threads == 0 {
		return invalid("parallelism must be positive")
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return invalid("decoding salt: %v", err)
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return invalid("decoding hash: %v", err)
	}
	if len(p.hash) == 0 || len(p.hash) > maxArgonKeyLen {
		return invalid("hash length %d out of range", len(p.hash))
	}
	return p, nil
}
