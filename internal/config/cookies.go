package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Cookies struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	jwt      *JWT
}

// SlotClaims identify the save slot of an anonymous player.
type SlotClaims struct {
	SlotId string `json:"slot_id"`
	jwt.RegisteredClaims
}

func NewSlotClaims(lifetime time.Duration) *SlotClaims {
	now := time.Now()
	return &SlotClaims{
		SlotId: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
}

func NewCookies(j *JWT) (*Cookies, error) {
	cookies := &Cookies{
		Domain:   os.Getenv("COOKIES_DOMAIN"),
		Secure:   os.Getenv("COOKIES_SECURE") != "0",
		SameSite: http.SameSiteStrictMode,
		jwt:      j,
	}

	if sameSiteStr, ok := os.LookupEnv("COOKIES_SAMESITE"); ok {
		switch strings.ToUpper(sameSiteStr) {
		case "DEFAULT":
			cookies.SameSite = http.SameSiteDefaultMode
		case "LAX":
			cookies.SameSite = http.SameSiteLaxMode
		case "STRICT":
			cookies.SameSite = http.SameSiteStrictMode
		case "NONE":
			cookies.SameSite = http.SameSiteNoneMode
		default:
			return nil, fmt.Errorf("invalid COOKIES_SAMESITE value %q", sameSiteStr)
		}
	}

	return cookies, nil
}

func (c *Cookies) cookie(name, value string, expires time.Time, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Path:     "/",
		Value:    value,
		Expires:  expires,
		HttpOnly: httpOnly,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{"auth", "sign"} {
		cookie := c.cookie(name, "delete", time.Time{}, name == "sign")
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

// Issue signs claims and stores the token in two cookies: header.payload in
// "auth" (readable by scripts) and the signature in "sign" (HttpOnly).
func (c *Cookies) Issue(w http.ResponseWriter, claims *SlotClaims) error {
	token, err := c.jwt.Sign(claims)
	if err != nil {
		return fmt.Errorf("unable to sign claims: %w", err)
	}
	header, payload, signature, err := splitToken(token)
	if err != nil {
		return err
	}
	expires := time.Now().Add(c.jwt.tokenLifetime)
	http.SetCookie(w, c.cookie("auth", header+"."+payload, expires, false))
	http.SetCookie(w, c.cookie("sign", signature, expires, true))
	return nil
}

func splitToken(token string) (header, payload, signature string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed JWT token generated")
	}
	return parts[0], parts[1], parts[2], nil
}

func (c *Cookies) ParseSlotClaims(r *http.Request) (*SlotClaims, error) {
	authCookie, err := r.Cookie("auth")
	if err != nil {
		return nil, err
	}
	signCookie, err := r.Cookie("sign")
	if err != nil {
		return nil, err
	}
	token, err := c.jwt.ParseWithClaims(
		authCookie.Value+"."+signCookie.Value, &SlotClaims{},
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SlotClaims)
	if !ok || claims.SlotId == "" {
		return nil, fmt.Errorf("malformed claims")
	}
	return claims, nil
}
