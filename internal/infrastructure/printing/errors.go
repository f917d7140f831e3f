package printing

// RenderError represents an error while building a card document
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeInvalidPageSize = "INVALID_PAGE_SIZE"
	ErrCodeInvalidLayout   = "INVALID_LAYOUT"
	ErrCodeFontFailed      = "FONT_FAILED"
	ErrCodeDrawFailed      = "DRAW_FAILED"
	ErrCodeQRFailed        = "QR_FAILED"
	ErrCodeFinalizeFailed  = "FINALIZE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
