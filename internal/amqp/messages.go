package amqp

import (
	"encoding/json"
	"time"
)

// LedgerUpdatedMessage announces a newly saved ledger revision. Consumers
// load the ledger themselves; the message carries no financial data.
type LedgerUpdatedMessage struct {
	Revision  int64     `json:"revision"`
	Tag       string    `json:"tag"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerUpdatedMessage(revision int64, tag string) *LedgerUpdatedMessage {
	return &LedgerUpdatedMessage{
		Revision:  revision,
		Tag:       tag,
		Timestamp: time.Now(),
	}
}

func (m *LedgerUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerUpdatedMessageFromJSON(data []byte) (*LedgerUpdatedMessage, error) {
	var msg LedgerUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
