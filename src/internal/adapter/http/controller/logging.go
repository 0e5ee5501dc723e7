package controller

import (
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// requestFields identifies a request in logs by route pattern rather than raw
// path, so wallet and settlement ids do not fragment log queries.
func requestFields(r *http.Request) logger.Fields {
	fields := logger.Fields{
		"method":    r.Method,
		"path":      r.URL.Path,
		"requestId": chimw.GetReqID(r.Context()),
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		fields["route"] = rctx.RoutePattern()
	}
	if owner, ok := middleware.OwnerFrom(r.Context()); ok {
		fields["ownerId"] = owner
	}
	return fields
}

func logRequest(r *http.Request, payload any) {
	fields := requestFields(r)
	fields["payload"] = logger.SanitizePayload(payload)
	logger.Info("http request", fields)
}

func logError(r *http.Request, err error) {
	fields := requestFields(r)
	fields["query"] = r.URL.RawQuery
	logger.Error("http handler error", err, fields)
}
