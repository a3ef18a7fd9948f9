package domain

import "time"

// DeliveryFailureReason classifies a failed delivery.
type DeliveryFailureReason string

const (
	DeliveryInvalidAddress DeliveryFailureReason = "invalid_address"
	DeliveryFailed         DeliveryFailureReason = "delivery_failed"
	DeliveryTimeout        DeliveryFailureReason = "timeout"
)

// DeliveryOutcome is what a dispatcher reports after trying to send a statement.
type DeliveryOutcome struct {
	Delivered         bool                  `json:"delivered"`
	Reason            DeliveryFailureReason `json:"reason,omitempty"`
	Detail            string                `json:"detail,omitempty"`
	ProviderMessageID string                `json:"providerMessageID,omitempty"`
}

// Delivered builds a successful outcome.
func Delivered(providerMessageID string) DeliveryOutcome {
	return DeliveryOutcome{Delivered: true, ProviderMessageID: providerMessageID}
}

// DeliveryFailure builds a failed outcome.
func DeliveryFailure(reason DeliveryFailureReason, detail string) DeliveryOutcome {
	return DeliveryOutcome{Reason: reason, Detail: detail}
}

// StatementMessage is everything a dispatcher needs to render and send a statement.
type StatementMessage struct {
	Statement Statement
	Sales     []SaleRecord
	Recipient string
}

// NotificationResult is returned to callers after a successful delivery.
type NotificationResult struct {
	StatementID        string             `json:"statementID"`
	Recipient          string             `json:"recipient"`
	NotificationStatus NotificationStatus `json:"notificationStatus"`
	Outcome            DeliveryOutcome    `json:"outcome"`
	NotifiedAt         time.Time          `json:"notifiedAt"`
}
