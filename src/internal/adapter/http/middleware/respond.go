package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/commons"
)

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(commons.ErrorResponse[struct{}](message))
}
