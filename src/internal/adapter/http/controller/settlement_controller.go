package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/fcy-ledger/src/internal/commons"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
)

type SettlementController struct {
	settlements service_interfaces.SettlementService
	ledger      service_interfaces.LedgerService
}

func NewSettlementController(settlements service_interfaces.SettlementService, ledger service_interfaces.LedgerService) *SettlementController {
	return &SettlementController{settlements: settlements, ledger: ledger}
}

func (c *SettlementController) RegisterRoutes(r chi.Router) {
	r.Route("/settlements", func(r chi.Router) {
		r.With(middleware.RequireOwner).Post("/", c.initiate)
		r.Get("/", c.list)
		r.Get("/reconciliation", c.reconciliation)
		r.Get("/{settlementID}", c.get)
		r.Get("/{settlementID}/logs", c.logs)
		r.Post("/{settlementID}/retry", c.retry)
	})
}

func (c *SettlementController) initiate(w http.ResponseWriter, r *http.Request) {
	var req models.InitiateSettlementRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := ownedWallet(w, r, c.ledger, req.WalletID); !ok {
		return
	}

	settlement, err := c.settlements.Initiate(r.Context(), req.ToDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "settlement initiated", models.NewSettlementResponse(settlement))
}

func (c *SettlementController) list(w http.ResponseWriter, r *http.Request) {
	page := commons.ParsePage(r.URL.Query())
	rows, err := c.settlements.List(r.Context(), r.URL.Query().Get("wallet_id"), page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, "settlements retrieved", models.NewSettlementResponses(rows), page)
}

func (c *SettlementController) reconciliation(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidArgument))
			return
		}
		date = parsed
	}

	summary, err := c.settlements.Reconciliation(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "reconciliation retrieved", models.NewReconciliationResponse(summary))
}

func (c *SettlementController) get(w http.ResponseWriter, r *http.Request) {
	settlement, err := c.settlements.Get(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "settlement retrieved", models.NewSettlementResponse(settlement))
}

func (c *SettlementController) logs(w http.ResponseWriter, r *http.Request) {
	logs, err := c.settlements.ListLogs(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "reconciliation logs retrieved", models.NewReconciliationLogResponses(logs))
}

func (c *SettlementController) retry(w http.ResponseWriter, r *http.Request) {
	settlement, err := c.settlements.Retry(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "settlement retried", models.NewSettlementResponse(settlement))
}
