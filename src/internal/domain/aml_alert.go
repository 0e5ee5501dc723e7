package domain

import "time"

type AlertSeverity string

const (
	AlertSeverityLow    AlertSeverity = "low"
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

type AlertStatus string

const (
	AlertStatusPending  AlertStatus = "pending"
	AlertStatusResolved AlertStatus = "resolved"
)

const (
	AlertTypeLargeWithdrawal  = "large_withdrawal"
	AlertTypeLargeTransaction = "large_transaction"
	AlertTypeRapidSuccession  = "rapid_succession"
	AlertTypeCardLimitUsage   = "card_limit_usage"
)

type AMLAlert struct {
	ID            string
	TransactionID string
	Type          string
	Severity      AlertSeverity
	Status        AlertStatus
	CreatedAt     time.Time
}
