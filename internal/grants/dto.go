package grants

// CreateGrantRequest addresses the subject by username, like the original
// API surface. An unknown username is a validation error, not a 404.
type CreateGrantRequest struct {
	Username  string `json:"username" validate:"required"`
	AccountID int64  `json:"account" validate:"required,gt=0"`
	Level     string `json:"permission" validate:"required,oneof=view crud post"`
}

type UpdateGrantRequest struct {
	Level string `json:"permission" validate:"required,oneof=view crud post"`
}
