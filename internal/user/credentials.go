// AngelaMos | 2026
// credentials.go

package user

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

// hashParams are the argon2id cost settings stored alongside every hash so
// existing credentials stay verifiable when the defaults move.
type hashParams struct {
	memory  uint32
	passes  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

var credentialParams = hashParams{
	memory:  64 * 1024,
	passes:  1,
	threads: 4,
	keyLen:  32,
	saltLen: 16,
}

var b64 = base64.RawStdEncoding

func (p hashParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.passes, p.memory, p.threads, p.keyLen)
}

// HashPassword returns a PHC formatted argon2id hash of password.
func HashPassword(password string) (string, error) {
	salt := make([]byte, credentialParams.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("hash password: read salt: %w", err)
	}

	key := credentialParams.derive(password, salt)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		credentialParams.memory,
		credentialParams.passes,
		credentialParams.threads,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches encoded. An error means
// the stored hash itself is unusable.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, key, err := parseHash(encoded)
	if err != nil {
		return false, err
	}

	candidate := params.derive(password, salt)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func parseHash(encoded string) (hashParams, []byte, []byte, error) {
	var p hashParams

	fields := strings.Split(strings.TrimPrefix(encoded, "$"), "$")
	if len(fields) != 5 {
		return p, nil, nil, fmt.Errorf("%w: expected 5 fields, got %d", ErrMalformedHash, len(fields))
	}

	algorithm, version, costs, rawSalt, rawKey := fields[0], fields[1], fields[2], fields[3], fields[4]

	if algorithm != "argon2id" {
		return p, nil, nil, fmt.Errorf("%w: algorithm %q", ErrMalformedHash, algorithm)
	}

	var v int
	if _, err := fmt.Sscanf(version, "v=%d", &v); err != nil || v != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: version %q", ErrMalformedHash, version)
	}

	if _, err := fmt.Sscanf(costs, "m=%d,t=%d,p=%d", &p.memory, &p.passes, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: costs %q", ErrMalformedHash, costs)
	}

	salt, err := b64.DecodeString(rawSalt)
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %w", ErrMalformedHash, err)
	}

	key, err := b64.DecodeString(rawKey)
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}

	//nolint:gosec // G115: argon2id keys are a few dozen bytes
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}
