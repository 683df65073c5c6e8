package domain

import (
	"time"
)

// Transaction is a single financial movement record. Once ingested it is
// immutable; all derived scores are recomputed from stored transactions.
type Transaction struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	// Amount is a positive, currency-agnostic decimal value.
	Amount float64 `json:"amount"`

	// Classification fields, free-form strings supplied at ingestion.
	Merchant string `json:"merchant"`
	Category string `json:"category"`
	Location string `json:"location"`
	DeviceID string `json:"deviceId"`

	// Timestamp is the point in time the transaction was recorded.
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// TransactionRequest is the API request payload for transaction ingestion.
type TransactionRequest struct {
	UserID   string  `json:"user_id"`
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
	Category string  `json:"category"`
	Location string  `json:"location"`
	DeviceID string  `json:"device_id"`
}

// ToTransaction converts a request to a Transaction domain object.
// The caller assigns the ID.
func (r *TransactionRequest) ToTransaction() *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		UserID:    r.UserID,
		Amount:    r.Amount,
		Merchant:  r.Merchant,
		Category:  r.Category,
		Location:  r.Location,
		DeviceID:  r.DeviceID,
		Timestamp: now,
		CreatedAt: now,
	}
}

// TransactionResponse is the API response for a successful ingestion.
type TransactionResponse struct {
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	ReceivedAt    time.Time `json:"received_at"`
}
