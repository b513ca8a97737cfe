package authsdk

import "time"

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /auth/login. Identifier is a username or
// an email address.
type LoginRequest struct {
	Identifier string `json:"identifier" example:"admin"`
	Password   string `json:"password" example:"admin"`
}

// RegisterRequest is the body of POST /auth/register. An identifier that
// looks like an email address registers an email account, anything else a
// username.
type RegisterRequest struct {
	Identifier string `json:"identifier" example:"jane@example.com"`
	Password   string `json:"password" example:"s3cret"`
	FullName   string `json:"fullName" example:"Jane Doe"`
	Phone      string `json:"phone,omitempty" example:"0901234567"`
	Address    string `json:"address,omitempty"`
}

// RefreshRequest is the optional body of POST /auth/refresh. The
// refreshToken cookie takes precedence over it.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	// AccessToken is the JWT to send as "Authorization: Bearer <token>"
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer"
	TokenType string `json:"tokenType" example:"Bearer"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64 `json:"expiresIn" example:"900"`

	// RefreshToken is only present when the server is configured to return
	// it in the body. Otherwise it travels in the refreshToken cookie.
	RefreshToken string `json:"refreshToken,omitempty"`
}

// APIResponse wraps successful non-token responses.
type APIResponse struct {
	Code    int    `json:"code" example:"200"`
	Message string `json:"message" example:"success"`
	Data    any    `json:"data,omitempty"`
}

// ============================================================================
// Account Types
// ============================================================================

// AccountResponse is an account with its profile. The password hash is
// never part of it.
type AccountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role" example:"USER"`
	Status    string    `json:"status" example:"ACTIVE"`
	FullName  string    `json:"fullName,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AccountListResponse struct {
	Items  []AccountResponse `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// CreateAccountRequest is the admin provisioning body of POST /users.
type CreateAccountRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty" example:"USER"`
	Status   string `json:"status,omitempty" example:"ACTIVE"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// UpdateAccountRequest is the body of PUT /users/{id}. Omitted fields are
// left unchanged.
type UpdateAccountRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Status   *string `json:"status,omitempty"`
	Password *string `json:"password,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Keys     string `json:"keys"`
}
