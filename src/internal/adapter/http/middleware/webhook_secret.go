package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

const WebhookSecretHeader = "X-Webhook-Secret"

type bankLookup interface {
	GetByID(ctx context.Context, id string) (domain.Bank, error)
}

// WebhookSecret rejects a bank callback unless the header matches the bank's
// stored secret hash. Unknown banks are rejected the same way.
func WebhookSecret(banks bankLookup, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bankID := chi.URLParam(r, param)
			secret := r.Header.Get(WebhookSecretHeader)

			bank, err := banks.GetByID(r.Context(), bankID)
			if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
				logger.Error("webhook middleware bank lookup failed", err, logger.Fields{"bankId": bankID})
				reject(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if err != nil || secret == "" || bcrypt.CompareHashAndPassword([]byte(bank.WebhookSecretHash), []byte(secret)) != nil {
				logger.Warn("webhook middleware secret mismatch", logger.Fields{
					"bankId": bankID,
					"path":   r.URL.Path,
				})
				reject(w, http.StatusUnauthorized, domain.ErrWebhookSecretMismatch.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
