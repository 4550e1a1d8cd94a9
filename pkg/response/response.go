package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Errors     []string    `json:"errors,omitempty"`   // every blocking validation error
	Warnings   []string    `json:"warnings,omitempty"` // advisory, never blocking
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// SuccessWithWarnings is Success plus non-blocking warnings.
func SuccessWithWarnings(statusCode int, data interface{}, warnings []string) Response {
	res := Success(statusCode, data)
	res.Warnings = warnings
	return res
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Invalid reports a rejected submission with its full error list.
func Invalid(statusCode int, errs, warnings []string) Response {
	res := Error(statusCode, "validation failed")
	res.Errors = errs
	res.Warnings = warnings
	return res
}

// Page wraps one page of a listing.
type Page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
