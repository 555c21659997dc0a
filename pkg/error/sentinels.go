package error

var (
	ErrSessionNotActive = NotFoundError("Session not active")
	ErrSessionNotFound  = NotFoundError("Session not found")
	ErrEmptyMessage     = ValidationError("either body or mediaUrl is required")
)
