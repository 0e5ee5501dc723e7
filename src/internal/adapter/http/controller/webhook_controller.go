package controller

import (
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
)

type WebhookController struct {
	settlements service_interfaces.SettlementService
	banks       domain.BankRepository
}

// NewWebhookController serves bank callbacks. Each request must carry the
// calling bank's webhook secret.
func NewWebhookController(settlements service_interfaces.SettlementService, banks domain.BankRepository) *WebhookController {
	return &WebhookController{settlements: settlements, banks: banks}
}

func (c *WebhookController) RegisterRoutes(r chi.Router) {
	r.With(middleware.WebhookSecret(c.banks, "bankID")).Post("/webhooks/banks/{bankID}", c.bankCallback)
}

func (c *WebhookController) bankCallback(w http.ResponseWriter, r *http.Request) {
	var req models.BankCallbackRequest
	if !decode(w, r, &req) {
		return
	}

	settlement, err := c.settlements.HandleBankCallback(r.Context(), chi.URLParam(r, "bankID"), req.ToDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "callback processed", models.NewSettlementResponse(settlement))
}
