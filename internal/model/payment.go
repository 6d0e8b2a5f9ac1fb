package model

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// PaymentTxn tracks a username purchase from link creation to webhook
// confirmation. Prices are stored in cents.
type PaymentTxn struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Username    string `json:"username"`
	Fancy       int    `json:"fancy"`
	FancyType   string `json:"fancy_type"`
	BasePrice   int64  `json:"base_price"`
	FancyPrice  int64  `json:"fancy_price"`
	TotalPrice  int64  `json:"total_price"`
	PaymentID   string `json:"payment_id"`
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
