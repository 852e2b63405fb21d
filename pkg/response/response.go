package response

// Response represents a standard API response format
type Response struct {
	Status     string            `json:"status"`      // "success" or "error"
	StatusCode int               `json:"status_code"` // HTTP status code
	Data       interface{}       `json:"data,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
	Error      string            `json:"error,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"` // field-level validation messages
}

// Pagination describes the page returned by list endpoints
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// SuccessWithPagination wraps a list page together with its pagination meta
func SuccessWithPagination(statusCode int, data interface{}, page, limit int, total int64) Response {
	var totalPages int64
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
		Pagination: &Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// ValidationError returns an error response carrying per-field messages
func ValidationError(statusCode int, err string, fields map[string]string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
		Fields:     fields,
	}
}
