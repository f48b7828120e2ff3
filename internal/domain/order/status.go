package order

// Status represents the customer-facing status of an order.
// The happy path is a linear sequence; CANCELLED and REFUNDED are side
// branches reachable from any non-terminal state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusPacked    Status = "PACKED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPacked, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for states with no outgoing transitions
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// next returns the forward successor in the linear chain, or "" if none
func (s Status) next() Status {
	switch s {
	case StatusPending:
		return StatusConfirmed
	case StatusConfirmed:
		return StatusPacked
	case StatusPacked:
		return StatusShipped
	case StatusShipped:
		return StatusDelivered
	}
	return ""
}

// CanTransitionTo checks if the status can transition to the target status.
// Forward movement is one step at a time; cancellation and refund are
// allowed from any non-terminal state.
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() {
		return false
	}
	switch target {
	case StatusCancelled:
		return s != StatusDelivered
	case StatusRefunded:
		return true
	}
	return s.next() == target
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}
