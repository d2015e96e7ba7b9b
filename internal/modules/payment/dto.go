package payment

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// WebhookEvent is the provider's notification body. Amount is a decimal
// string so it compares exactly.
type WebhookEvent struct {
	ReservationID int64  `json:"reservation_id" validate:"required,gt=0"`
	Outcome       string `json:"outcome" validate:"required,oneof=succeeded failed"`
	Amount        string `json:"amount" validate:"required"`
	ProviderRef   string `json:"provider_ref" validate:"required,max=128"`
	Reason        string `json:"reason"`
}

type WebhookResult struct {
	ReservationID     int64  `json:"reservation_id"`
	ReservationStatus string `json:"reservation_status,omitempty"`
	PaymentStatus     string `json:"payment_status"`
	AlreadyProcessed  bool   `json:"already_processed"`
	RefundRequired    bool   `json:"refund_required,omitempty"`
}
