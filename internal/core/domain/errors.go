package domain

import "errors"

// Error kinds. Every *Error unwraps to exactly one of these, so callers can
// classify with errors.Is without caring about the concrete message.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("access forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrUpload         = errors.New("upload failed")
)

// Error is a classified failure carrying the message shown to API clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds an *Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrMissingRegistrationFields = NewError(ErrValidation, "Please provide all required fields.")
	ErrMissingLoginFields        = NewError(ErrValidation, "Please provide email and password.")
	ErrInvalidRole               = NewError(ErrValidation, "Role must be either user or admin.")
	ErrInvalidCredentials        = NewError(ErrAuthentication, "Invalid credentials.")
	ErrEmailTaken                = NewError(ErrConflict, "Email already registered.")
	ErrUserNotFound              = NewError(ErrNotFound, "User not found")
	ErrAccessDenied              = NewError(ErrForbidden, "Access denied: insufficient permissions")

	ErrMissingSweetFields    = NewError(ErrValidation, "Name, category, price, and quantity are required")
	ErrInvalidPrice          = NewError(ErrValidation, "Price must be at least 1")
	ErrInvalidQuantity       = NewError(ErrValidation, "Quantity cannot be negative")
	ErrEmptyName             = NewError(ErrValidation, "Name cannot be empty")
	ErrEmptyCategory         = NewError(ErrValidation, "Category cannot be empty")
	ErrInvalidPurchaseAmount = NewError(ErrValidation, "Invalid purchase quantity")
	ErrInsufficientStock     = NewError(ErrValidation, "Not enough stock available")
	ErrInvalidRestockAmount  = NewError(ErrValidation, "Amount must be a positive number")
	ErrSweetNotFound         = NewError(ErrNotFound, "Sweet not found")
	ErrPurchaseInProgress    = NewError(ErrConflict, "Purchase already in progress")
)
