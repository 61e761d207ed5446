package httpdto

// RegisterRequest is used for POST /v1/auth/register
type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Password  string `json:"password" binding:"required"`
}

// LoginRequest is used for POST /v1/auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
