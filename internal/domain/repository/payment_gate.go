package repository

import "context"

// PaymentStatus - статус оплаты
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusUnknown PaymentStatus = "unknown"
)

// CheckoutHandle - созданная сессия оплаты
type CheckoutHandle struct {
	ChargeID    string `json:"charge_id"`
	CheckoutURL string `json:"checkout_url"`
	RowCount    int    `json:"row_count"`
	AmountCents int64  `json:"amount_cents"`
}

// ChargeStatus - статус платежа и число оплаченных строк
type ChargeStatus struct {
	Status   PaymentStatus
	RowCount int
}

// PaymentGate - внешний платёжный шлюз
type PaymentGate interface {
	// CreateCharge создаёт платёж за rowCount платных строк
	CreateCharge(ctx context.Context, rowCount int, sessionID string) (*CheckoutHandle, error)

	// CheckStatus возвращает статус и оплаченные строки по id сессии или платежа
	CheckStatus(ctx context.Context, id string) (ChargeStatus, error)
}
