package dto

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the JSON body for POST /auth/register.
// Password2 must repeat Password; it is discarded before persistence.
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=1,max=120"`
	Password  string `json:"password" binding:"required,min=6"`
	Password2 string `json:"password2" binding:"required"`
}

// UserResponse is the public user representation (after register/login).
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// MessageResponse is a bare confirmation message (logout).
type MessageResponse struct {
	Message string `json:"message"`
}

// FieldErrors maps input field names to validation messages for 400 responses.
type FieldErrors struct {
	Errors map[string]string `json:"errors"`
}
