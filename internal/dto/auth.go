package dto

type RegisterRequest struct {
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required,min=6,max=128"`
	PasswordConfirmation string `json:"passwordConfirmation" binding:"omitempty,eqfield=Password"`
	FirstName            string `json:"firstName" binding:"omitempty,max=128"`
	LastName             string `json:"lastName" binding:"omitempty,max=128"`
	PhoneNumber          string `json:"phoneNumber" binding:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordRequest struct {
	Password             string `json:"password" binding:"required,min=6,max=128"`
	PasswordConfirmation string `json:"passwordConfirmation" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// OAuthCallbackRequest carries the assertion the OAuth proxy signed after
// completing the provider exchange.
type OAuthCallbackRequest struct {
	Assertion string `form:"assertion" binding:"required"`
}

// AuthResponse is returned by login, verification and OAuth sign in.
type AuthResponse struct {
	Message      string       `json:"message"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         UserResponse `json:"user"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
