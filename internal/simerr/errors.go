// Package simerr defines the error taxonomy shared by the Gmail and GitHub
// simulation engines. Every simulated operation fails with one of these types
// so callers (and the MCP tool layer) can map failures to the status the real
// API would return.
package simerr

// ValidationError reports malformed, missing or mistyped input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation returns a new ValidationError with the given message.
func Validation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// InvalidInputError reports input that is well-formed but semantically
// unusable, such as a search query with mismatched quotes.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

// InvalidInput returns a new InvalidInputError with the given message.
func InvalidInput(msg string) *InvalidInputError {
	return &InvalidInputError{Message: msg}
}

// InvalidFormatValueError reports an unsupported message format argument.
type InvalidFormatValueError struct {
	Message string
}

func (e *InvalidFormatValueError) Error() string { return e.Message }

// InvalidFormatValue returns a new InvalidFormatValueError.
func InvalidFormatValue(msg string) *InvalidFormatValueError {
	return &InvalidFormatValueError{Message: msg}
}

// InvalidMaxResultsValueError reports an out-of-range maxResults argument.
type InvalidMaxResultsValueError struct {
	Message string
}

func (e *InvalidMaxResultsValueError) Error() string { return e.Message }

// InvalidMaxResultsValue returns a new InvalidMaxResultsValueError.
func InvalidMaxResultsValue(msg string) *InvalidMaxResultsValueError {
	return &InvalidMaxResultsValueError{Message: msg}
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NotFound returns a new NotFoundError with the given message.
func NotFound(msg string) *NotFoundError {
	return &NotFoundError{Message: msg}
}

// ConflictError reports a state conflict, such as a stale blob SHA or a
// duplicate label name.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflict returns a new ConflictError with the given message.
func Conflict(msg string) *ConflictError {
	return &ConflictError{Message: msg}
}

// ForbiddenError reports an operation the acting user is not allowed to
// perform, such as writing to a protected branch.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// Forbidden returns a new ForbiddenError with the given message.
func Forbidden(msg string) *ForbiddenError {
	return &ForbiddenError{Message: msg}
}

// UnprocessableEntityError reports a request that is valid in isolation but
// cannot be applied, such as forking a repository twice.
type UnprocessableEntityError struct {
	Message string
}

func (e *UnprocessableEntityError) Error() string { return e.Message }

// UnprocessableEntity returns a new UnprocessableEntityError.
func UnprocessableEntity(msg string) *UnprocessableEntityError {
	return &UnprocessableEntityError{Message: msg}
}

// RateLimitError reports an exhausted simulated rate limit.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string { return e.Message }

// RateLimit returns a new RateLimitError with the given message.
func RateLimit(msg string) *RateLimitError {
	return &RateLimitError{Message: msg}
}
