package constants

const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// BearerPrefix prefixes access tokens in the Authorization header.
	BearerPrefix = "Bearer "
)

// Generic messages used when no domain message applies.
const (
	MsgUnauthorized    = "Unauthorized"
	MsgForbidden       = "Access forbidden"
	MsgInvalidFormat   = "Invalid request format"
	MsgInternalError   = "Internal server error"
	MsgTooManyRequests = "Too many requests"
	MsgDeleted         = "Resource deleted successfully"
)

// Auth and account flows
const (
	MsgRegistered             = "User successfully created, please check your email to verify your account"
	MsgLoggedIn               = "Login successful"
	MsgVerified               = "User successfully verified"
	MsgVerificationSent       = "If an account with that email exists and is not yet verified, a new verification email has been sent"
	MsgPasswordResetSent      = "If a user with that email is registered you will receive a password reset email"
	MsgPasswordReset          = "Successfully updated password"
	MsgPasswordChanged        = "Successfully changed password"
	MsgUserDisabledToggled    = "User status updated"
	MsgUserCreatedWithAccount = "User successfully created"
)
