package user

// SignupRequest represents the request body for creating an account
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=requester dev"`
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and the account it belongs to
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// UpdateUserRequest represents the request body for updating a profile
type UpdateUserRequest struct {
	Name              *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	PreferredCurrency *string `json:"preferred_currency,omitempty" validate:"omitempty,oneof=CAD USD EUR"`
}

// LinkPaymentAccountRequest represents the request body for linking a
// payment processor account
type LinkPaymentAccountRequest struct {
	AccountID string `json:"account_id" validate:"required"`
}

// UserResponse represents the response for a single user
type UserResponse struct {
	ID                   int64   `json:"id"`
	Username             string  `json:"username"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	EmailVerified        bool    `json:"email_verified"`
	Role                 string  `json:"role"`
	PaymentAccountStatus *string `json:"payment_account_status,omitempty"`
	PreferredCurrency    string  `json:"preferred_currency"`
	CreatedAt            string  `json:"created_at"`
}

// ToResponse converts a User model to a UserResponse DTO
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:                   u.ID,
		Username:             u.Username,
		Name:                 u.Name,
		Email:                u.Email,
		EmailVerified:        u.EmailVerified,
		Role:                 u.Role,
		PaymentAccountStatus: u.PaymentAccountStatus,
		PreferredCurrency:    u.PreferredCurrency,
		CreatedAt:            u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
