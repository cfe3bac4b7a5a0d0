package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/MarkMiraclee/purchaseorder/internal/auth"
	"github.com/MarkMiraclee/purchaseorder/internal/models"
)

type contextKey string

const userContextKey contextKey = "userContext"

// Auth decodes the bearer token into a UserContext stored on the request
// context. The token is the only identity source; storage is not consulted.
func Auth(codec *auth.Codec, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			headerParts := strings.Fields(authHeader)
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "Bearer") {
				unauthorized(w, "invalid authorization header")
				return
			}

			user, err := codec.Verify(headerParts[1])
			if err != nil {
				log.WithFields(logrus.Fields{
					"uri":    r.RequestURI,
					"reason": err.Error(),
				}).Debug("rejected bearer token")

				msg := "invalid token"
				if errors.Is(err, auth.ErrExpired) {
					msg = "token expired"
				}
				unauthorized(w, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user models.UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the caller placed on ctx by Auth.
func UserFromContext(ctx context.Context) (models.UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(models.UserContext)
	return user, ok
}

// errorBody mirrors the API envelope so 401s look like every other failure.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(errorBody{Code: http.StatusUnauthorized, Message: msg})
}
