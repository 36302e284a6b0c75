// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/campus-market/internal/config"
	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

const (
	testIssuer   = "campus-identity"
	testAudience = "campus-market"
)

type keyPair struct {
	private   jwk.Key
	publicPEM []byte
}

func newKeyPair(t *testing.T) keyPair {
	t.Helper()

	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	private, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, private.Set(jwk.AlgorithmKey, jwa.ES256()))

	public, err := private.PublicKey()
	require.NoError(t, err)

	publicPEM, err := jwk.Pem(public)
	require.NoError(t, err)

	return keyPair{private: private, publicPEM: publicPEM}
}

type tokenOpts struct {
	issuer    string
	audience  string
	subject   string
	tokenType string
	role      string
	expires   time.Time
}

func defaultTokenOpts() tokenOpts {
	return tokenOpts{
		issuer:    testIssuer,
		audience:  testAudience,
		subject:   "user-1",
		tokenType: "access",
		role:      "user",
		expires:   time.Now().Add(15 * time.Minute),
	}
}

func sign(t *testing.T, key jwk.Key, o tokenOpts) string {
	t.Helper()

	b := jwt.NewBuilder().
		Issuer(o.issuer).
		Audience([]string{o.audience}).
		IssuedAt(time.Now().Add(-time.Hour)).
		Expiration(o.expires).
		Claim("type", o.tokenType)
	if o.subject != "" {
		b = b.Subject(o.subject)
	}
	if o.role != "" {
		b = b.Claim("role", o.role)
	}

	token, err := b.Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), key))
	require.NoError(t, err)

	return string(signed)
}

func TestVerifyAccessToken_Valid(t *testing.T) {
	keys := newKeyPair(t)
	v, err := NewVerifierFromPEM(keys.publicPEM, testIssuer, testAudience)
	require.NoError(t, err)

	o := defaultTokenOpts()
	o.role = "admin"

	claims, err := v.VerifyAccessToken(context.Background(), sign(t, keys.private, o))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestVerifyAccessToken_Rejections(t *testing.T) {
	keys := newKeyPair(t)
	v, err := NewVerifierFromPEM(keys.publicPEM, testIssuer, testAudience)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(o *tokenOpts)
		key    jwk.Key
		want   error
	}{
		{
			name:   "expired",
			mutate: func(o *tokenOpts) { o.expires = time.Now().Add(-time.Minute) },
			want:   core.ErrTokenExpired,
		},
		{
			name:   "wrong audience",
			mutate: func(o *tokenOpts) { o.audience = "someone-else" },
			want:   core.ErrTokenInvalid,
		},
		{
			name:   "wrong issuer",
			mutate: func(o *tokenOpts) { o.issuer = "rogue" },
			want:   core.ErrTokenInvalid,
		},
		{
			name:   "refresh token",
			mutate: func(o *tokenOpts) { o.tokenType = "refresh" },
			want:   core.ErrTokenInvalid,
		},
		{
			name:   "missing subject",
			mutate: func(o *tokenOpts) { o.subject = "" },
			want:   core.ErrTokenInvalid,
		},
		{
			name:   "missing role",
			mutate: func(o *tokenOpts) { o.role = "" },
			want:   core.ErrTokenInvalid,
		},
		{
			name: "foreign key",
			key:  newKeyPair(t).private,
			want: core.ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultTokenOpts()
			if tt.mutate != nil {
				tt.mutate(&o)
			}
			key := keys.private
			if tt.key != nil {
				key = tt.key
			}

			_, err := v.VerifyAccessToken(context.Background(), sign(t, key, o))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	keys := newKeyPair(t)
	v, err := NewVerifierFromPEM(keys.publicPEM, testIssuer, testAudience)
	require.NoError(t, err)

	_, err = v.VerifyAccessToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestNewVerifierFromPEM_RejectsPrivateKey(t *testing.T) {
	keys := newKeyPair(t)

	privatePEM, err := jwk.Pem(keys.private)
	require.NoError(t, err)

	_, err = NewVerifierFromPEM(privatePEM, testIssuer, testAudience)
	assert.Error(t, err)
}

func TestNewVerifier_ReadsKeyFile(t *testing.T) {
	keys := newKeyPair(t)
	path := filepath.Join(t.TempDir(), "public.pem")
	require.NoError(t, os.WriteFile(path, keys.publicPEM, 0o600))

	v, err := NewVerifier(config.JWTConfig{
		PublicKeyPath: path,
		Issuer:        testIssuer,
		Audience:      testAudience,
	})
	require.NoError(t, err)

	_, err = v.VerifyAccessToken(context.Background(), sign(t, keys.private, defaultTokenOpts()))
	assert.NoError(t, err)

	_, err = NewVerifier(config.JWTConfig{PublicKeyPath: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)
}
