package domain

type BankStatus string

const (
	BankStatusActive   BankStatus = "active"
	BankStatusInactive BankStatus = "inactive"
)

type Bank struct {
	ID                string
	Name              string
	Country           string
	Status            BankStatus
	WebhookSecretHash string
}
