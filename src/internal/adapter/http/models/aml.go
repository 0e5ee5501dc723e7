package models

import "github.com/api-sage/fcy-ledger/src/internal/domain"

type AlertResponse struct {
	ID            string `json:"id,omitempty"`
	TransactionID string `json:"transactionId"`
	Type          string `json:"type"`
	Severity      string `json:"severity"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

func NewAlertResponse(a domain.AMLAlert) AlertResponse {
	return AlertResponse{
		ID:            a.ID,
		TransactionID: a.TransactionID,
		Type:          a.Type,
		Severity:      string(a.Severity),
		Status:        string(a.Status),
		CreatedAt:     formatTime(a.CreatedAt),
	}
}

func NewAlertResponses(alerts []domain.AMLAlert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, NewAlertResponse(a))
	}
	return out
}

type ScanRequest struct {
	LookbackMinutes int `json:"lookbackMinutes"`
}

type ScanResponse struct {
	Scanned       int `json:"scanned"`
	AlertsCreated int `json:"alertsCreated"`
}
