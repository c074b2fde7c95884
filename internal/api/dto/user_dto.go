package dto

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest payload for new users. Role is the backing integer of
// the role enum.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Timezone string `json:"timezone"`
	Role     int    `json:"role"`
}

// UpdateUserRequest payload for partial updates; absent fields are left
// untouched.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Timezone *string `json:"timezone"`
	Role     *int    `json:"role"`
}
