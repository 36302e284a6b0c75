// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/campus-market/internal/config"
	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/middleware"
)

// Verifier checks ES256 access tokens issued by the identity service. It
// only holds the public key.
type Verifier struct {
	publicKey jwk.Key
	issuer    string
	audience  string
}

func NewVerifier(cfg config.JWTConfig) (*Verifier, error) {
	pem, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}

	return NewVerifierFromPEM(pem, cfg.Issuer, cfg.Audience)
}

func NewVerifierFromPEM(pem []byte, issuer, audience string) (*Verifier, error) {
	key, err := jwk.ParseKey(pem, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	if _, isPrivate := key.(jwk.ECDSAPrivateKey); isPrivate {
		return nil, fmt.Errorf("parse public key: got a private key")
	}

	if err := key.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return nil, fmt.Errorf("set algorithm: %w", err)
	}

	return &Verifier{publicKey: key, issuer: issuer, audience: audience}, nil
}

func (v *Verifier) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), v.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil || tokenType != "access" {
		return nil, fmt.Errorf("verify token: invalid token type: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("verify token: missing subject: %w", core.ErrTokenInvalid)
	}

	var role string
	if err := token.Get("role", &role); err != nil {
		return nil, fmt.Errorf("verify token: missing role claim: %w", core.ErrTokenInvalid)
	}

	return &middleware.AccessTokenClaims{
		UserID: subject,
		Role:   role,
	}, nil
}

func isTokenExpiredError(err error) bool {
	if errors.Is(err, jwt.TokenExpiredError()) {
		return true
	}
	return strings.Contains(err.Error(), `"exp" not satisfied`)
}
