package transactions

// CreateTransactionRequest mirrors the original payload shape: the owning
// account rides in the body, and its absence is a validation error.
type CreateTransactionRequest struct {
	AccountID   int64  `json:"account"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"max=200"`
}

// UpdateTransactionRequest updates amount or description. Account and date
// are immutable.
type UpdateTransactionRequest struct {
	Amount      *string `json:"amount,omitempty"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=200"`
}
