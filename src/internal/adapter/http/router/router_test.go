package router_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/seed"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "bank-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Page    *struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	} `json:"page"`
	Errors []string `json:"errors"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	store.Rates().EnsureDefaultRates(context.Background(), seed.Rates())
	banks, err := seed.Banks(webhookSecret)
	require.NoError(t, err)
	bankRepo := memory.NewBankRepository(banks)

	thresholds := services.AMLThresholds{Medium: decimal.NewFromInt(10000), High: decimal.NewFromInt(50000)}
	feeRate := decimal.RequireFromString("0.005")

	ledger := services.NewLedgerService(store, store.Wallets(), store.Transactions(), nil, nil, services.LedgerConfig{AML: thresholds})
	rates := services.NewRateService(store.Rates(), nil, nil, services.RateConfig{CacheTTL: time.Minute, FeeRate: feeRate})
	fx := services.NewFXService(store, ledger, rates, nil, nil, feeRate)
	aml := services.NewAMLService(store.AML(), thresholds, nil, nil)
	settlements := services.NewSettlementService(store, store.Settlements(), bankRepo, ledger, nil, nil, services.SettlementConfig{
		CompletionWindow: time.Hour,
		StaleAfter:       24 * time.Hour,
	})

	handler := router.New(
		router.Options{ChannelID: "LedgerApp", ChannelKey: "LedgerKey001"},
		controller.NewWebhookController(settlements, bankRepo),
		controller.NewWalletController(ledger),
		controller.NewFXController(rates, fx),
		controller.NewSettlementController(settlements, ledger),
		controller.NewCardController(services.NewCardChargeService(ledger, aml), services.NewCollectionService(ledger)),
		controller.NewAMLController(aml, 60),
	)
	return &testServer{t: t, handler: handler}
}

func (s *testServer) do(method, path, owner string, body any, headers map[string]string) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("LedgerApp:LedgerKey001")))
	if owner != "" {
		req.Header.Set(middleware.OwnerHeader, owner)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type walletBody struct {
	ID       string `json:"id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

type settlementBody struct {
	ID                string `json:"id"`
	BankID            string `json:"bankId"`
	Status            string `json:"status"`
	ProviderReference string `json:"providerReference"`
}

func (s *testServer) createWallet(owner, currency string, deposit int64) walletBody {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/wallets", owner, map[string]any{"currency": currency}, nil)
	require.Equal(s.t, http.StatusCreated, code, env.Errors)
	wallet := decodeData[walletBody](s.t, env)

	if deposit > 0 {
		code, env = s.do(http.MethodPost, "/wallets/"+wallet.ID+"/deposit", owner, map[string]any{"amount": deposit}, nil)
		require.Equal(s.t, http.StatusOK, code, env.Errors)
	}
	return wallet
}

func TestHealthIsOpen(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWalletRoutesRequireChannelAndOwner(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/wallets", nil)
	req.Header.Set(middleware.OwnerHeader, "owner-1")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	code, _ := s.do(http.MethodGet, "/wallets", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestWalletLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	wallet := s.createWallet("owner-1", "usd", 100)
	assert.Equal(t, "USD", wallet.Currency)

	code, env := s.do(http.MethodPost, "/wallets", "owner-1", map[string]any{"currency": "USD"}, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)

	code, _ = s.do(http.MethodPost, "/wallets/"+wallet.ID+"/withdraw", "owner-1", map[string]any{"amount": 101}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = s.do(http.MethodPost, "/wallets/"+wallet.ID+"/withdraw", "owner-1", map[string]any{"amount": -1}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/wallets/"+wallet.ID+"/balance", "owner-1", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "100", decodeData[walletBody](t, env).Balance)

	code, _ = s.do(http.MethodGet, "/wallets/"+wallet.ID+"/balance", "owner-2", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodGet, "/wallets/missing/balance", "owner-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodGet, "/wallets/"+wallet.ID+"/transactions?limit=500", "owner-1", nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Page)
	assert.Equal(t, 100, env.Page.Limit)
	assert.Len(t, decodeData[[]map[string]any](t, env), 1)

	code, env = s.do(http.MethodGet, "/wallets/"+wallet.ID+"/verify", "owner-1", nil, nil)
	require.Equal(t, http.StatusOK, code)
	verification := decodeData[struct {
		Consistent bool `json:"consistent"`
	}](t, env)
	assert.True(t, verification.Consistent)
}

func TestTransferRequiresSourceOwnership(t *testing.T) {
	s := newTestServer(t)
	source := s.createWallet("owner-1", "USD", 50)
	destination := s.createWallet("owner-2", "USD", 0)

	body := map[string]any{"sourceWalletId": source.ID, "destinationWalletId": destination.ID, "amount": 20}

	code, _ := s.do(http.MethodPost, "/transfers", "owner-2", body, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := s.do(http.MethodPost, "/transfers", "owner-1", body, nil)
	require.Equal(t, http.StatusOK, code, env.Errors)

	_, env = s.do(http.MethodGet, "/wallets/"+destination.ID+"/balance", "owner-2", nil, nil)
	assert.Equal(t, "20", decodeData[walletBody](t, env).Balance)
}

func TestFXRoutes(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/fx/rates/USD/NGN", "", nil, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/fx/rates/USD/XYZ", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodGet, "/fx/quote?amount=abc&from=USD&to=NGN", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	source := s.createWallet("owner-1", "USD", 100)
	code, env := s.do(http.MethodPost, "/fx/convert", "owner-1", map[string]any{
		"sourceWalletId": source.ID,
		"amount":         10,
		"fromCurrency":   "USD",
		"toCurrency":     "NGN",
	}, nil)
	require.Equal(t, http.StatusOK, code, env.Errors)
}

func TestSettlementAndBankWebhook(t *testing.T) {
	s := newTestServer(t)
	wallet := s.createWallet("owner-1", "USD", 500)

	code, env := s.do(http.MethodPost, "/settlements", "owner-1", map[string]any{
		"walletId":       wallet.ID,
		"amount":         200,
		"idempotencyKey": "order-1",
	}, nil)
	require.Equal(t, http.StatusCreated, code, env.Errors)
	settlement := decodeData[settlementBody](t, env)
	assert.Equal(t, "pending", settlement.Status)
	assert.Equal(t, "US0001", settlement.BankID)

	callback := map[string]any{"settlementId": settlement.ID, "status": "completed"}

	code, _ = s.do(http.MethodPost, "/webhooks/banks/US0001", "", callback, map[string]string{middleware.WebhookSecretHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(http.MethodPost, "/webhooks/banks/US0001", "", callback, map[string]string{middleware.WebhookSecretHeader: webhookSecret})
	require.Equal(t, http.StatusOK, code, env.Errors)
	assert.Equal(t, "completed", decodeData[settlementBody](t, env).Status)

	code, env = s.do(http.MethodGet, "/settlements/"+settlement.ID+"/logs", "", nil, nil)
	require.Equal(t, http.StatusOK, code)
	logs := decodeData[[]map[string]any](t, env)
	assert.Len(t, logs, 2)

	code, _ = s.do(http.MethodPost, "/settlements/"+settlement.ID+"/retry", "", nil, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodGet, "/settlements/reconciliation?date=2026-13-01", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/settlements/reconciliation", "", nil, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAMLScanAcceptsEmptyBody(t *testing.T) {
	s := newTestServer(t)
	s.createWallet("owner-1", "USD", 20000)

	code, env := s.do(http.MethodPost, "/aml/scan", "", nil, nil)
	require.Equal(t, http.StatusOK, code, env.Errors)
	result := decodeData[struct {
		Scanned       int `json:"scanned"`
		AlertsCreated int `json:"alertsCreated"`
	}](t, env)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.AlertsCreated)

	code, env = s.do(http.MethodGet, "/aml/alerts", "", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]map[string]any](t, env), 1)
}
