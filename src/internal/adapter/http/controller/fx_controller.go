package controller

import (
	"fmt"
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/fcy-ledger/src/internal/commons"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type FXController struct {
	rates service_interfaces.RateService
	fx    service_interfaces.FXService
}

func NewFXController(rates service_interfaces.RateService, fx service_interfaces.FXService) *FXController {
	return &FXController{rates: rates, fx: fx}
}

func (c *FXController) RegisterRoutes(r chi.Router) {
	r.Route("/fx", func(r chi.Router) {
		r.Get("/rates", c.getRates)
		r.Get("/rates/{from}/{to}", c.getRate)
		r.Get("/quote", c.quote)
		r.With(middleware.RequireOwner).Post("/convert", c.convert)
	})
}

func (c *FXController) getRates(w http.ResponseWriter, r *http.Request) {
	page := commons.ParsePage(r.URL.Query())
	rates, err := c.rates.GetRates(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, "rates retrieved", models.NewRateResponses(rates), page)
}

func (c *FXController) getRate(w http.ResponseWriter, r *http.Request) {
	rate, err := c.rates.GetRate(r.Context(), chi.URLParam(r, "from"), chi.URLParam(r, "to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "rate retrieved", models.NewRateResponse(rate))
}

func (c *FXController) quote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	amount, err := decimal.NewFromString(query.Get("amount"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: amount must be numeric", domain.ErrInvalidArgument))
		return
	}

	quote, err := c.rates.Quote(r.Context(), amount, query.Get("from"), query.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "quote generated", models.NewQuoteResponse(quote))
}

func (c *FXController) convert(w http.ResponseWriter, r *http.Request) {
	var req models.ConvertRequest
	if !decode(w, r, &req) {
		return
	}
	owner, _ := middleware.OwnerFrom(r.Context())

	result, err := c.fx.Convert(r.Context(), req.ToDomain(owner))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "conversion successful", models.NewConvertResponse(result))
}
