package ticketAuth

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown identifier and for a
	// wrong password alike. It is never wrapped.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInfrastructure marks a cache or repository failure. Detail is logged,
	// never surfaced.
	ErrInfrastructure = errors.New("infrastructure unavailable")
	// ErrConfiguration is returned when a user record cannot be provisioned
	// with the given salt.
	ErrConfiguration = errors.New("invalid user configuration")
	// ErrLoginThrottled is returned when failed login attempts exceed the
	// configured budget.
	ErrLoginThrottled = errors.New("login throttled")
	// ErrUserNotFound is returned by UserRepository implementations when no
	// user matches the identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by UserProvisioner implementations on a
	// duplicate identifier.
	ErrUserExists = errors.New("user already exists")
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Error codes attached with oops to wrapped failures.
const (
	CodeInfrastructure     = "AUTH_INFRASTRUCTURE"
	CodeConfiguration      = "AUTH_CONFIGURATION"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeLoginThrottled     = "AUTH_LOGIN_THROTTLED"
	CodeValidationFailed   = "VALIDATION_FAILED"
)
