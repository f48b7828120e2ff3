package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Method identifies how a charge is funded
type Method string

const (
	MethodCard    Method = "CARD"
	MethodBalance Method = "BALANCE"
)

// IsValid checks if the method is a known payment method
func (m Method) IsValid() bool {
	return m == MethodCard || m == MethodBalance
}

// ChargeRequest describes a single synchronous charge
type ChargeRequest struct {
	Reference string          // order or proxy order number the charge settles
	PayerID   uuid.UUID       // account being charged
	Amount    decimal.Decimal
	Method    Method
}

// ChargeResult is the gateway's answer to a charge
type ChargeResult struct {
	TransactionID string
	Succeeded     bool
	FailureReason string
}

// Gateway is the synchronous payment collaborator. The fulfillment flows
// treat it as opaque: a charge either succeeds or fails, and a failed
// charge aborts the surrounding transaction.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
