package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type bankLookupStub map[string]domain.Bank

func (s bankLookupStub) GetByID(_ context.Context, id string) (domain.Bank, error) {
	bank, ok := s[id]
	if !ok {
		return domain.Bank{}, domain.ErrRecordNotFound
	}
	return bank, nil
}

func webhookRouter(t *testing.T) http.Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	banks := bankLookupStub{"044001": {ID: "044001", WebhookSecretHash: string(hash)}}
	r := chi.NewRouter()
	r.With(WebhookSecret(banks, "bankID")).Post("/webhooks/banks/{bankID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	return r
}

func TestWebhookSecret(t *testing.T) {
	router := webhookRouter(t)

	cases := []struct {
		name   string
		bank   string
		secret string
		want   int
	}{
		{name: "matching secret", bank: "044001", secret: "s3cret", want: http.StatusAccepted},
		{name: "wrong secret", bank: "044001", secret: "guess", want: http.StatusUnauthorized},
		{name: "missing secret", bank: "044001", want: http.StatusUnauthorized},
		{name: "unknown bank", bank: "999999", secret: "s3cret", want: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhooks/banks/"+tc.bank, nil)
			if tc.secret != "" {
				req.Header.Set(WebhookSecretHeader, tc.secret)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestRequireOwner(t *testing.T) {
	var seen string
	h := RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = OwnerFrom(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wallets", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/wallets", nil)
	req.Header.Set(OwnerHeader, " owner-7 ")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "owner-7", seen)
}
