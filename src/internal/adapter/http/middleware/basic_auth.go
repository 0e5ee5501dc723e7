package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/logger"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const basicAuthChallenge = `Basic realm="fcy-ledger", charset="UTF-8"`

// BasicAuth admits a request only when it carries the configured channel
// credentials. An unconfigured server rejects everything.
func BasicAuth(channelID, channelKey string) func(http.Handler) http.Handler {
	configured := channelID != "" && channelKey != ""

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields := logger.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"requestId": chimw.GetReqID(r.Context()),
			}

			if !configured {
				logger.Error("channel auth middleware missing channel credentials", nil, fields)
				reject(w, http.StatusInternalServerError, "server auth configuration is missing")
				return
			}

			id, key, ok := r.BasicAuth()
			// Both comparisons always run so timing does not reveal which half failed.
			idOK := constantTimeEqual(id, channelID)
			keyOK := constantTimeEqual(key, channelKey)
			if !ok || !idOK || !keyOK {
				fields["channelId"] = id
				logger.Warn("channel auth middleware rejected request", fields)
				w.Header().Set("WWW-Authenticate", basicAuthChallenge)
				reject(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
