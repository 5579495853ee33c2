package errors

// baseError is the shared scaffolding every typed error in this package
// embeds: a wrapped cause, a message, a classifying code, and a lazily
// allocated bag of structured details (segment name, offset, table
// capacity, whatever the embedding type's With... methods choose to
// attach). It is never returned on its own; SegmentError, TableError,
// ContainerError, and ValidationError each narrow it to their domain.
type baseError struct {
	cause   error
	message string
	code    ErrorCode
	details map[string]any
}

// NewBaseError constructs the embedded baseError for a domain error type.
func NewBaseError(err error, code ErrorCode, msg string) *baseError {
	return &baseError{cause: err, code: code, message: msg}
}

// WithMessage replaces the error message.
func (be *baseError) WithMessage(msg string) *baseError {
	be.message = msg
	return be
}

// WithCode replaces the classifying error code.
func (be *baseError) WithCode(code ErrorCode) *baseError {
	be.code = code
	return be
}

// WithDetail attaches one key/value pair of structured context,
// allocating the details map on first use.
func (be *baseError) WithDetail(key string, value any) *baseError {
	if be.details == nil {
		be.details = make(map[string]any)
	}
	be.details[key] = value
	return be
}

// Error implements the error interface.
func (b *baseError) Error() string {
	return b.message
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (b *baseError) Unwrap() error {
	return b.cause
}

// Code returns the classifying error code.
func (b *baseError) Code() ErrorCode {
	return b.code
}

// Details returns the attached structured context. The returned map is
// the error's own, not a copy.
func (b *baseError) Details() map[string]any {
	return b.details
}
