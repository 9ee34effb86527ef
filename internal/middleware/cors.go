package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors lets any origin through with credentials, since slot cookies must
// reach the API from wherever the front end is served.
func Cors() Middleware {
	options := cors.Options{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	return cors.New(options).Handler
}
