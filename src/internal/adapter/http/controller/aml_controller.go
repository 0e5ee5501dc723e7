package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/fcy-ledger/src/internal/commons"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
)

type AMLController struct {
	aml             service_interfaces.AMLService
	defaultLookback int
}

func NewAMLController(aml service_interfaces.AMLService, defaultLookback int) *AMLController {
	return &AMLController{aml: aml, defaultLookback: defaultLookback}
}

func (c *AMLController) RegisterRoutes(r chi.Router) {
	r.Post("/aml/scan", c.scan)
	r.Get("/aml/alerts", c.listAlerts)
}

func (c *AMLController) scan(w http.ResponseWriter, r *http.Request) {
	// The body is optional; an empty one scans the configured lookback.
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[struct{}]("invalid request body", err.Error()))
		return
	}
	if req.LookbackMinutes == 0 {
		req.LookbackMinutes = c.defaultLookback
	}
	logRequest(r, req)

	result, err := c.aml.Scan(r.Context(), req.LookbackMinutes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "scan completed", models.ScanResponse{
		Scanned:       result.Scanned,
		AlertsCreated: result.AlertsCreated,
	})
}

func (c *AMLController) listAlerts(w http.ResponseWriter, r *http.Request) {
	page := commons.ParsePage(r.URL.Query())
	alerts, err := c.aml.ListAlerts(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, "alerts retrieved", models.NewAlertResponses(alerts), page)
}
