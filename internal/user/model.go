package user

import "time"

// User represents a user account in the system
type User struct {
	ID                   int64     `json:"id"`
	Username             string    `json:"username"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"-"`
	EmailVerified        bool      `json:"email_verified"`
	Role                 string    `json:"role"` // 'requester', 'dev', or 'admin'
	PaymentAccountID     *string   `json:"payment_account_id,omitempty"`
	PaymentAccountStatus *string   `json:"payment_account_status,omitempty"` // 'connected', 'pending', 'disconnected'
	PreferredCurrency    string    `json:"preferred_currency"`               // 'CAD', 'USD', 'EUR'
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Valid roles
const (
	RoleRequester = "requester"
	RoleDev       = "dev"
	RoleAdmin     = "admin"
)

// ValidRole reports whether the role is one of the known roles
func ValidRole(role string) bool {
	return role == RoleRequester || role == RoleDev || role == RoleAdmin
}
