package controller

import (
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
)

// CardController serves the card and collection collaborators, which debit
// and credit wallets on their own authority.
type CardController struct {
	cards       service_interfaces.CardChargeService
	collections service_interfaces.CollectionService
}

func NewCardController(cards service_interfaces.CardChargeService, collections service_interfaces.CollectionService) *CardController {
	return &CardController{cards: cards, collections: collections}
}

func (c *CardController) RegisterRoutes(r chi.Router) {
	r.Post("/cards/{cardID}/charges", c.charge)
	r.Post("/collections/receipts", c.receive)
}

func (c *CardController) charge(w http.ResponseWriter, r *http.Request) {
	var req models.CardChargeRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := c.cards.Charge(r.Context(), req.ToDomain(chi.URLParam(r, "cardID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "card charged", models.NewLedgerResultResponse(result))
}

func (c *CardController) receive(w http.ResponseWriter, r *http.Request) {
	var req models.CollectionReceiptRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := c.collections.Receive(r.Context(), req.ToDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "collection received", models.NewLedgerResultResponse(result))
}
