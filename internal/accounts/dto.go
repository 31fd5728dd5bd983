package accounts

type CreateAccountRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Balance string `json:"balance,omitempty"`
}

type UpdateAccountRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Balance *string `json:"balance,omitempty"`
}
