package amqp

import (
	"encoding/json"
	"time"

	"portfel/internal/core"
)

// TransactionSyncMessage asks the worker to export one transaction to the
// spreadsheet. Only the ID travels; the worker reads the full record from
// the database.
type TransactionSyncMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id string) *TransactionSyncMessage {
	return &TransactionSyncMessage{ID: id, Timestamp: time.Now()}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BudgetAlertMessage reports that a commit moved a budget into an elevated
// tier. The worker records it for the owner's notification feed.
type BudgetAlertMessage struct {
	OwnerID    string    `json:"owner_id"`
	Category   string    `json:"category"`
	Tier       core.Tier `json:"tier"`
	Percentage float64   `json:"percentage"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(ownerID, category string, tier core.Tier, percentage float64) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		OwnerID:    ownerID,
		Category:   category,
		Tier:       tier,
		Percentage: percentage,
		Timestamp:  time.Now(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
