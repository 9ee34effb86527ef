package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper/internal/config"
)

type CtxKey int

const (
	CtxSlotClaims CtxKey = iota
)

// Slot puts the player's slot claims into the request context, issuing
// fresh claims (and so a fresh slot) when the cookies are missing or
// invalid.
func Slot(log logrus.FieldLogger, cookies *config.Cookies, newClaims func() *config.SlotClaims) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := cookies.ParseSlotClaims(r)
			if err != nil {
				claims = newClaims()
				if err := cookies.Issue(w, claims); err != nil {
					log.WithError(err).Error("unable to issue slot cookies")
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				log.WithField("slot", claims.SlotId).Debug("issued new slot")
			}
			ctx := context.WithValue(r.Context(), CtxSlotClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SlotClaims(ctx context.Context) (*config.SlotClaims, bool) {
	claims, ok := ctx.Value(CtxSlotClaims).(*config.SlotClaims)
	return claims, ok
}
