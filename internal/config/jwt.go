package config

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenLifetime = time.Hour * 24 * 30

type JWT struct {
	publicKey     *rsa.PublicKey
	privateKey    *rsa.PrivateKey
	signingMethod jwt.SigningMethod
	tokenLifetime time.Duration
}

// readKey reads a PEM key from the env variable name, or from the file named
// by name+"_FILE". ok is false when neither is set.
func readKey(name string) (pem []byte, ok bool, err error) {
	if s, ok := os.LookupEnv(name); ok {
		return []byte(s), true, nil
	}
	path, ok := os.LookupEnv(name + "_FILE")
	if !ok {
		return nil, false, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, true, fmt.Errorf("unable to read %s: %w", path, err)
	}
	return b, true, nil
}

func tokenLifetime() (time.Duration, error) {
	s, ok := os.LookupEnv("JWT_TOKEN_LIFETIME")
	if !ok {
		return defaultTokenLifetime, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unable to parse JWT_TOKEN_LIFETIME: %w", err)
	}
	return d, nil
}

// NewJWT loads the RS256 key pair from JWT_PRIVATE_KEY(_FILE) and
// JWT_PUBLIC_KEY(_FILE). In development an ephemeral key is generated when
// no private key is configured.
func NewJWT() (*JWT, error) {
	lifetime, err := tokenLifetime()
	if err != nil {
		return nil, err
	}

	privatePEM, ok, err := readKey("JWT_PRIVATE_KEY")
	if err != nil {
		return nil, err
	}
	if !ok {
		if !Development() {
			return nil, fmt.Errorf("no JWT_PRIVATE_KEY or JWT_PRIVATE_KEY_FILE env variable set")
		}
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("unable to generate JWT key: %w", err)
		}
		return NewJWTFromKey(key, lifetime), nil
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("unable to parse JWT private key: %w", err)
	}

	j := NewJWTFromKey(privateKey, lifetime)

	publicPEM, ok, err := readKey("JWT_PUBLIC_KEY")
	if err != nil {
		return nil, err
	}
	if ok {
		j.publicKey, err = jwt.ParseRSAPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, fmt.Errorf("unable to parse JWT public key: %w", err)
		}
	}

	return j, nil
}

func NewJWTFromKey(key *rsa.PrivateKey, lifetime time.Duration) *JWT {
	return &JWT{
		privateKey:    key,
		publicKey:     &key.PublicKey,
		signingMethod: jwt.GetSigningMethod("RS256"),
		tokenLifetime: lifetime,
	}
}

func (j *JWT) TokenLifetime() time.Duration {
	return j.tokenLifetime
}

func (j *JWT) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(j.signingMethod, claims).SignedString(j.privateKey)
}

func (j *JWT) ParseWithClaims(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	return jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return j.publicKey, nil
		},
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
	)
}
